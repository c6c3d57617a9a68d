package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
	"github.com/magabrotheeeer/subscription-ledger/internal/storage"
)

// SecretRecovery выдаёт сохранённый секрет подписчику, оплатившему восстановление.
type SecretRecovery interface {
	Recover(ctx context.Context, sub models.Subscriber) (string, error)
}

// PlaintextRecovery возвращает секрет в открытом виде любому, кто прошёл Access Gate
// и оплатил восстановление. Дополнительной аутентификации владельца секрета нет.
type PlaintextRecovery struct{}

// Recover возвращает сохранённый секрет как есть.
func (PlaintextRecovery) Recover(_ context.Context, sub models.Subscriber) (string, error) {
	return sub.SecretKey, nil
}

// IsActive сообщает, действует ли подписка вызывающего. Владелец без записи
// проходит Access Gate, но активной подписки не имеет.
func (s *Service) IsActive(ctx context.Context, caller string) (bool, error) {
	if err := s.gate.Check(ctx, caller); err != nil {
		return false, err
	}

	sub, found, err := s.lookupCached(ctx, caller)
	if err != nil {
		return false, fmt.Errorf("ledger.IsActive: %w", err)
	}
	if !found {
		return false, nil
	}
	return sub.ActiveAt(s.now()), nil
}

// VerifySecret сравнивает candidate с секретом подписчика identity.
// Незарегистрированный идентификатор даёт ErrUnknownSubscriber, а не сравнение с genesis-записью.
func (s *Service) VerifySecret(ctx context.Context, identity, candidate string) (bool, error) {
	sub, found, err := s.lookupCached(ctx, identity)
	if err != nil {
		return false, fmt.Errorf("ledger.VerifySecret: %w", err)
	}
	if !found {
		return false, ErrUnknownSubscriber
	}
	return sub.SecretKey == candidate, nil
}

// RecoverSecret возвращает секрет вызывающего после оплаты фиксированной платы.
// Плата должна совпадать с настроенной в точности и передаётся в PaymentHandler.
func (s *Service) RecoverSecret(ctx context.Context, caller string, paidFee int64) (string, error) {
	const op = "ledger.RecoverSecret"
	log := s.log.With(slog.String("op", op), slog.String("identity", caller))

	ctx, unlock, err := s.enter(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()

	if err := s.gate.Check(ctx, caller); err != nil {
		return "", err
	}

	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if paidFee != settings.RecoveryFee {
		s.metrics.PaymentRejected("amount_mismatch")
		return "", fmt.Errorf("%w: paid %d, fee %d", ErrPaymentMismatch, paidFee, settings.RecoveryFee)
	}

	sub, found, err := s.lookup(ctx, caller)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return "", ErrUnknownSubscriber
	}

	if err := s.forward(ctx, settings.HandlerAddress, paidFee); err != nil {
		log.Error("recovery fee not transferred", slog.Any("err", err))
		return "", err
	}

	secret, err := s.recovery.Recover(ctx, sub)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	log.Info("secret recovered")
	return secret, nil
}

// RotateSecret заменяет секрет вызывающего на next, если current совпадает с сохранённым.
func (s *Service) RotateSecret(ctx context.Context, caller, current, next string) error {
	const op = "ledger.RotateSecret"

	ctx, unlock, err := s.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.gate.Check(ctx, caller); err != nil {
		return err
	}

	sub, found, err := s.lookup(ctx, caller)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return ErrUnknownSubscriber
	}
	if sub.SecretKey != current {
		return ErrKeyMismatch
	}

	sub.SecretKey = next
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.UpdateSubscriber(ctx, sub)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.committed(caller)

	s.log.Info("secret rotated", slog.String("op", op), slog.String("identity", caller))
	return nil
}
