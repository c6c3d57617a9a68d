// Package repository реализует хранилище леджера на основе PostgreSQL:
// директорию подписчиков, последовательность записей, таблицу тарифов и настройки.
// Запись выполняется только внутри транзакций WithinTx.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
	"github.com/magabrotheeeer/subscription-ledger/internal/storage"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables 
        WHERE table_name = 'subscribers'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return errors.New("storage.CheckDatabaseReady: required table subscribers is missing")
	}
	return nil
}

// queryer — общее подмножество *sql.DB и *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Lookup ищет идентификатор в директории.
func (s *Storage) Lookup(ctx context.Context, identity string) (int64, bool, error) {
	const op = "storage.Lookup"

	var index int64
	err := s.DB.QueryRowContext(ctx, `SELECT idx FROM subscribers WHERE identity = $1`, identity).Scan(&index)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return index, true, nil
}

// SubscriberAt возвращает запись по индексу.
func (s *Storage) SubscriberAt(ctx context.Context, index int64) (models.Subscriber, error) {
	const op = "storage.SubscriberAt"

	var sub models.Subscriber
	err := s.DB.QueryRowContext(ctx,
		`SELECT idx, identity, valid_until, secret_key FROM subscribers WHERE idx = $1`, index).
		Scan(&sub.Index, &sub.Identity, &sub.ValidUntil, &sub.SecretKey)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscriber{}, storage.ErrSubscriberNotFound
	}
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// SubscriberCount возвращает количество записей.
func (s *Storage) SubscriberCount(ctx context.Context) (int64, error) {
	return subscriberCount(ctx, s.DB)
}

func subscriberCount(ctx context.Context, q queryer) (int64, error) {
	const op = "storage.SubscriberCount"

	var count int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// Plan возвращает условия тарифа.
func (s *Storage) Plan(ctx context.Context, tier models.Tier) (models.Plan, error) {
	const op = "storage.Plan"

	var (
		p       models.Plan
		seconds int64
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT tier, price, duration_seconds FROM plans WHERE tier = $1`, int(tier)).
		Scan(&p.Tier, &p.Price, &seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Plan{}, storage.ErrPlanNotFound
	}
	if err != nil {
		return models.Plan{}, fmt.Errorf("%s: %w", op, err)
	}
	p.Duration = time.Duration(seconds) * time.Second
	return p, nil
}

// Plans возвращает таблицу тарифов, упорядоченную по уровню.
func (s *Storage) Plans(ctx context.Context) ([]models.Plan, error) {
	const op = "storage.Plans"

	rows, err := s.DB.QueryContext(ctx, `SELECT tier, price, duration_seconds FROM plans ORDER BY tier`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		var (
			p       models.Plan
			seconds int64
		)
		if err := rows.Scan(&p.Tier, &p.Price, &seconds); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.Duration = time.Duration(seconds) * time.Second
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// Settings возвращает настройки леджера. До инициализации возвращаются нулевые значения.
func (s *Storage) Settings(ctx context.Context) (models.Settings, error) {
	const op = "storage.Settings"

	var settings models.Settings
	err := s.DB.QueryRowContext(ctx,
		`SELECT handler_address, recovery_fee FROM ledger_settings WHERE id = 1`).
		Scan(&settings.HandlerAddress, &settings.RecoveryFee)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("%s: %w", op, err)
	}
	return settings, nil
}
