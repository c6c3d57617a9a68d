package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
	"github.com/magabrotheeeer/subscription-ledger/internal/storage"
)

// WithinTx выполняет fn в транзакции уровня SERIALIZABLE. Транзакция фиксируется,
// только если fn вернула nil, иначе откатывается.
func (s *Storage) WithinTx(ctx context.Context, fn storage.TxFunc) error {
	const op = "storage.WithinTx"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sqlTx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := fn(ctx, &tx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

type tx struct {
	tx *sql.Tx
}

// AppendSubscriber вставляет запись со следующим свободным индексом.
func (t *tx) AppendSubscriber(ctx context.Context, sub models.Subscriber) (int64, error) {
	const op = "storage.AppendSubscriber"

	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscribers WHERE identity = $1)`, sub.Identity).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return 0, storage.ErrIdentityExists
	}

	index, err := subscriberCount(ctx, t.tx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO subscribers (idx, identity, valid_until, secret_key) VALUES ($1, $2, $3, $4)`,
		index, sub.Identity, sub.ValidUntil, sub.SecretKey)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return index, nil
}

// UpdateSubscriber обновляет срок действия и секрет записи.
func (t *tx) UpdateSubscriber(ctx context.Context, sub models.Subscriber) error {
	const op = "storage.UpdateSubscriber"

	result, err := t.tx.ExecContext(ctx,
		`UPDATE subscribers SET valid_until = $1, secret_key = $2 WHERE idx = $3 AND identity = $4`,
		sub.ValidUntil, sub.SecretKey, sub.Index, sub.Identity)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return storage.ErrSubscriberNotFound
	}
	return nil
}

// SavePlan сохраняет тариф.
func (t *tx) SavePlan(ctx context.Context, p models.Plan) error {
	const op = "storage.SavePlan"

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO plans (tier, price, duration_seconds) VALUES ($1, $2, $3)
		 ON CONFLICT (tier) DO UPDATE SET price = EXCLUDED.price, duration_seconds = EXCLUDED.duration_seconds`,
		int(p.Tier), p.Price, p.DurationSeconds())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SaveSettings сохраняет единственную строку настроек.
func (t *tx) SaveSettings(ctx context.Context, settings models.Settings) error {
	const op = "storage.SaveSettings"

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO ledger_settings (id, handler_address, recovery_fee) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET handler_address = EXCLUDED.handler_address, recovery_fee = EXCLUDED.recovery_fee`,
		settings.HandlerAddress, settings.RecoveryFee)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
