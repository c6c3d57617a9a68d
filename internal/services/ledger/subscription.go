package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
	"github.com/magabrotheeeer/subscription-ledger/internal/storage"
)

// Subscribe оформляет или продлевает подписку payer на тариф plan.
//
// paid должен в точности совпадать с ценой тарифа. Средства передаются в
// PaymentHandler последним действием транзакции; при отказе обработчика
// транзакция откатывается и состояние леджера не меняется.
func (s *Service) Subscribe(ctx context.Context, plan models.Tier, secretKey, payer string, paid int64) (models.Subscriber, error) {
	if payer == "" {
		return models.Subscriber{}, ErrInvalidIdentity
	}
	return s.credit(ctx, plan, secretKey, payer, paid)
}

// Gift оформляет или продлевает подписку recipient за счёт payer.
// Подарок самому себе отвергается до любых других проверок.
func (s *Service) Gift(ctx context.Context, plan models.Tier, secretKey, payer, recipient string, paid int64) (models.Subscriber, error) {
	if payer == recipient {
		return models.Subscriber{}, ErrSelfGiftRejected
	}
	if payer == "" || recipient == "" {
		return models.Subscriber{}, ErrInvalidIdentity
	}
	return s.credit(ctx, plan, secretKey, recipient, paid)
}

// credit зачисляет период тарифа plan на запись recipient.
func (s *Service) credit(ctx context.Context, plan models.Tier, secretKey, recipient string, paid int64) (models.Subscriber, error) {
	const op = "ledger.credit"
	log := s.log.With(
		slog.String("op", op),
		slog.String("identity", recipient),
		slog.String("plan", plan.String()),
	)

	if !plan.Valid() {
		return models.Subscriber{}, ErrInvalidPlan
	}

	ctx, unlock, err := s.enter(ctx)
	if err != nil {
		return models.Subscriber{}, err
	}
	defer unlock()

	terms, err := s.plan(ctx, plan)
	if err != nil {
		return models.Subscriber{}, err
	}
	if paid != terms.Price {
		s.metrics.PaymentRejected("amount_mismatch")
		log.Info("payment mismatch", slog.Int64("paid", paid), slog.Int64("price", terms.Price))
		return models.Subscriber{}, fmt.Errorf("%w: paid %d, price %d", ErrPaymentMismatch, paid, terms.Price)
	}

	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}

	existing, found, err := s.lookup(ctx, recipient)
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	record := extend(existing, found, recipient, secretKey, now, terms.DurationSeconds())

	transferred := false
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if found {
			if err := tx.UpdateSubscriber(ctx, record); err != nil {
				return err
			}
		} else {
			index, err := tx.AppendSubscriber(ctx, record)
			if err != nil {
				return err
			}
			record.Index = index
		}
		if err := s.forward(ctx, settings.HandlerAddress, paid); err != nil {
			return err
		}
		transferred = true
		return nil
	})
	if err != nil && transferred {
		// Перевод уже выполнен, а фиксация не удалась: требуется ручная сверка.
		log.Error("payment forwarded but subscription not credited",
			slog.Int64("amount", paid),
			slog.String("handler_address", settings.HandlerAddress),
			slog.Any("err", err),
		)
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}
	if err != nil {
		log.Error("subscription not credited", slog.Any("err", err))
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}
	s.committed(recipient)

	if found {
		s.metrics.SubscriptionRenewed(plan)
		log.Info("subscription renewed", slog.Int64("valid_until", record.ValidUntil))
		return record, nil
	}

	s.metrics.SubscriptionCreated(plan)
	log.Info("subscription created", slog.Int64("index", record.Index), slog.Int64("valid_until", record.ValidUntil))

	event := models.SubscriptionEvent{
		ID:        uuid.New(),
		Identity:  recipient,
		Timestamp: now,
		Plan:      plan,
	}
	if err := s.publisher.PublishSubscription(ctx, event); err != nil {
		s.metrics.EventPublishFailed()
		log.Error("failed to publish subscription event", slog.Any("err", err))
	}
	return record, nil
}

// extend вычисляет новое состояние записи после оплаты периода длительностью d секунд.
// Истёкшая подписка начинает новый период с now, действующая продлевается на d.
func extend(existing models.Subscriber, found bool, identity, secretKey string, now, d int64) models.Subscriber {
	if !found {
		return models.Subscriber{
			Identity:   identity,
			ValidUntil: now + d,
			SecretKey:  secretKey,
		}
	}

	record := existing
	record.SecretKey = secretKey
	if record.ActiveAt(now) {
		record.ValidUntil += d
	} else {
		record.ValidUntil = now + d
	}
	return record
}
