package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
	"github.com/magabrotheeeer/subscription-ledger/internal/storage"
)

// authorize захватывает мьютекс и проверяет права администратора или владельца.
func (s *Service) authorize(ctx context.Context, caller string) (context.Context, func(), error) {
	ctx, unlock, err := s.enter(ctx)
	if err != nil {
		return nil, nil, err
	}
	if caller == "" || !s.registry.IsAdminOrOwner(ctx, caller) {
		unlock()
		return nil, nil, ErrNotAuthorized
	}
	return ctx, unlock, nil
}

// SetHandlerAddress перенаправляет платежи на новый адрес Payment Handler.
func (s *Service) SetHandlerAddress(ctx context.Context, caller, address string) error {
	const op = "ledger.SetHandlerAddress"

	ctx, unlock, err := s.authorize(ctx, caller)
	if err != nil {
		return err
	}
	defer unlock()

	if address == "" {
		return ErrInvalidIdentity
	}
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if settings.HandlerAddress == address {
		return ErrNoOpConfigChange
	}

	settings.HandlerAddress = address
	if err := s.saveSettings(ctx, settings); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment handler changed", slog.String("op", op), slog.String("by", caller), slog.String("address", address))
	return nil
}

// SetRecoveryFee меняет плату за восстановление секрета.
func (s *Service) SetRecoveryFee(ctx context.Context, caller string, fee int64) error {
	const op = "ledger.SetRecoveryFee"

	ctx, unlock, err := s.authorize(ctx, caller)
	if err != nil {
		return err
	}
	defer unlock()

	if fee < 0 {
		return ErrInvalidAmount
	}
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if settings.RecoveryFee == fee {
		return ErrNoOpConfigChange
	}

	settings.RecoveryFee = fee
	if err := s.saveSettings(ctx, settings); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("recovery fee changed", slog.String("op", op), slog.String("by", caller), slog.Int64("fee", fee))
	return nil
}

// SetPlanPrice меняет цену тарифа. Отвергается только запись того же значения.
func (s *Service) SetPlanPrice(ctx context.Context, caller string, tier models.Tier, price int64) error {
	const op = "ledger.SetPlanPrice"

	ctx, unlock, err := s.authorize(ctx, caller)
	if err != nil {
		return err
	}
	defer unlock()

	if price < 0 {
		return ErrInvalidAmount
	}
	p, err := s.plan(ctx, tier)
	if err != nil {
		return err
	}
	if p.Price == price {
		return ErrNoOpConfigChange
	}

	p.Price = price
	if err := s.savePlan(ctx, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("plan price changed", slog.String("op", op), slog.String("by", caller),
		slog.String("plan", tier.String()), slog.Int64("price", price))
	return nil
}

// SetPlanDuration меняет длительность периода тарифа.
func (s *Service) SetPlanDuration(ctx context.Context, caller string, tier models.Tier, d time.Duration) error {
	const op = "ledger.SetPlanDuration"

	ctx, unlock, err := s.authorize(ctx, caller)
	if err != nil {
		return err
	}
	defer unlock()

	if d < time.Second || d%time.Second != 0 {
		return ErrInvalidPlan
	}
	p, err := s.plan(ctx, tier)
	if err != nil {
		return err
	}
	if p.Duration == d {
		return ErrNoOpConfigChange
	}

	p.Duration = d
	if err := s.savePlan(ctx, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("plan duration changed", slog.String("op", op), slog.String("by", caller),
		slog.String("plan", tier.String()), slog.Duration("duration", d))
	return nil
}

func (s *Service) saveSettings(ctx context.Context, settings models.Settings) error {
	return s.repo.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.SaveSettings(ctx, settings)
	})
}

func (s *Service) savePlan(ctx context.Context, p models.Plan) error {
	return s.repo.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.SavePlan(ctx, p)
	})
}
