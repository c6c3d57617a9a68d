// Package ledger содержит бизнес-логику леджера подписок: оформление, подарок и
// продление подписки, проверку и смену секретного ключа, административную
// настройку тарифов и Access Gate для операций, доступных только подписчикам.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
	"github.com/magabrotheeeer/subscription-ledger/internal/storage"
)

// Repository определяет методы хранилища директории, записей и конфигурации леджера.
type Repository interface {
	// Lookup ищет идентификатор в директории. ok == false означает, что идентификатор не зарегистрирован.
	Lookup(ctx context.Context, identity string) (index int64, ok bool, err error)
	// SubscriberAt возвращает запись по индексу.
	SubscriberAt(ctx context.Context, index int64) (models.Subscriber, error)
	// SubscriberCount возвращает количество записей.
	SubscriberCount(ctx context.Context) (int64, error)
	// Plan возвращает условия тарифа.
	Plan(ctx context.Context, tier models.Tier) (models.Plan, error)
	// Plans возвращает всю таблицу тарифов.
	Plans(ctx context.Context) ([]models.Plan, error)
	// Settings возвращает настройки леджера.
	Settings(ctx context.Context) (models.Settings, error)
	// WithinTx выполняет fn в транзакции и фиксирует её, только если fn вернула nil.
	WithinTx(ctx context.Context, fn storage.TxFunc) error
}

// PaymentHandler — внешний приёмник средств.
type PaymentHandler interface {
	// Receive передаёт amount обработчику по адресу address. false означает отказ.
	Receive(ctx context.Context, address string, amount int64) (bool, error)
}

// AccessRegistry — внешний реестр ролей.
type AccessRegistry interface {
	IsOwner(ctx context.Context, identity string) bool
	IsAdminOrOwner(ctx context.Context, identity string) bool
}

// EventPublisher публикует события о новых подписках.
type EventPublisher interface {
	PublishSubscription(ctx context.Context, event models.SubscriptionEvent) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Metrics собирает счётчики исходов операций леджера.
type Metrics interface {
	SubscriptionCreated(plan models.Tier)
	SubscriptionRenewed(plan models.Tier)
	PaymentRejected(reason string)
	EventPublishFailed()
}

// Service реализует леджер подписок.
//
// Все изменяющие операции выполняются под mu целиком, включая вызов PaymentHandler.
// Пока идёт передача средств, любая изменяющая операция, в том числе обратный
// вызов из PaymentHandler с новым контекстом, сразу отвергается с ErrReentrantCall.
type Service struct {
	repo      Repository
	handler   PaymentHandler
	registry  AccessRegistry
	publisher EventPublisher
	cache     Cache
	cacheTTL  time.Duration
	metrics   Metrics
	recovery  SecretRecovery
	clock     func() time.Time
	log       *slog.Logger
	gate      *Gate

	mu sync.Mutex
	// transferring выставлен, пока PaymentHandler обрабатывает перевод
	transferring atomic.Bool
	// gen увеличивается после каждой зафиксированной записи подписчика
	gen atomic.Uint64
}

// Option настраивает Service.
type Option func(*Service)

// WithClock задаёт источник текущего времени.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithCache включает кеширование записей подписчиков на путях чтения.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithMetrics задаёт сборщик метрик.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSecretRecovery подменяет стратегию восстановления секрета.
func WithSecretRecovery(r SecretRecovery) Option {
	return func(s *Service) {
		s.recovery = r
	}
}

// New создает новый экземпляр Service.
func New(repo Repository, handler PaymentHandler, registry AccessRegistry, publisher EventPublisher,
	log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		handler:   handler,
		registry:  registry,
		publisher: publisher,
		metrics:   noopMetrics{},
		recovery:  PlaintextRecovery{},
		clock:     time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gate = NewGate(repo, registry)
	return s
}

// Gate возвращает Access Gate леджера.
func (s *Service) Gate() *Gate {
	return s.gate
}

type inFlightKey struct{}

// enter захватывает мьютекс изменяющих операций. Контекст, переданный из
// незавершённой операции, и любой вызов во время перевода средств отвергаются сразу.
func (s *Service) enter(ctx context.Context) (context.Context, func(), error) {
	if ctx.Value(inFlightKey{}) != nil || s.transferring.Load() {
		return nil, nil, ErrReentrantCall
	}
	s.mu.Lock()
	return context.WithValue(ctx, inFlightKey{}, struct{}{}), s.mu.Unlock, nil
}

func (s *Service) now() int64 {
	return s.clock().Unix()
}

// lookup читает запись из хранилища, минуя кеш.
func (s *Service) lookup(ctx context.Context, identity string) (models.Subscriber, bool, error) {
	index, ok, err := s.repo.Lookup(ctx, identity)
	if err != nil || !ok {
		return models.Subscriber{}, false, err
	}
	sub, err := s.repo.SubscriberAt(ctx, index)
	if err != nil {
		return models.Subscriber{}, false, err
	}
	return sub, true, nil
}

func subscriberKey(identity string) string {
	return "subscriber:" + identity
}

// lookupCached читает запись через кеш. Используется только на путях чтения.
func (s *Service) lookupCached(ctx context.Context, identity string) (models.Subscriber, bool, error) {
	if s.cache == nil {
		return s.lookup(ctx, identity)
	}

	key := subscriberKey(identity)
	var cached models.Subscriber
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), slog.Any("err", err))
	}
	if found {
		return cached, true, nil
	}

	gen := s.gen.Load()
	sub, ok, err := s.lookup(ctx, identity)
	if err != nil || !ok {
		return sub, ok, err
	}
	if s.gen.Load() != gen {
		return sub, true, nil
	}
	if err := s.cache.Set(key, sub, s.cacheTTL); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), slog.Any("err", err))
		return sub, true, nil
	}
	// Фиксация между проверкой gen и Set могла уже снять запись из кеша,
	// тогда Set вернул бы в кеш устаревшую копию.
	if s.gen.Load() != gen {
		if err := s.cache.Invalidate(key); err != nil {
			s.log.Warn("failed to remove stale entry from cache", slog.String("key", key), slog.Any("err", err))
		}
	}
	return sub, true, nil
}

// committed отмечает зафиксированное изменение записи identity.
func (s *Service) committed(identity string) {
	s.gen.Add(1)
	if s.cache == nil {
		return
	}
	key := subscriberKey(identity)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), slog.Any("err", err))
	}
}

// forward передаёт amount в PaymentHandler. Любая ошибка или отказ обработчика
// превращаются в ErrPaymentTransferFailed.
func (s *Service) forward(ctx context.Context, address string, amount int64) error {
	ok, err := s.receive(ctx, address, amount)
	if err != nil {
		s.metrics.PaymentRejected("transfer_error")
		return fmt.Errorf("%w: %v", ErrPaymentTransferFailed, err)
	}
	if !ok {
		s.metrics.PaymentRejected("transfer_refused")
		return ErrPaymentTransferFailed
	}
	return nil
}

func (s *Service) receive(ctx context.Context, address string, amount int64) (bool, error) {
	s.transferring.Store(true)
	defer s.transferring.Store(false)
	return s.handler.Receive(ctx, address, amount)
}

// Bootstrap инициализирует пустой леджер: создаёт genesis-запись владельца
// с истёкшим сроком действия, заполняет таблицу тарифов и настройки.
// Повторный вызов для уже инициализированного леджера ничего не меняет.
func (s *Service) Bootstrap(ctx context.Context, owner string, plans []models.Plan, settings models.Settings) error {
	const op = "ledger.Bootstrap"
	if owner == "" {
		return ErrInvalidIdentity
	}

	ctx, unlock, err := s.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	count, err := s.repo.SubscriberCount(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		s.log.Debug("ledger already initialized", slog.Int64("subscribers", count))
		return nil
	}

	genesis := models.Subscriber{
		Identity:   owner,
		ValidUntil: s.now(),
	}
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		index, err := tx.AppendSubscriber(ctx, genesis)
		if err != nil {
			return err
		}
		if index != models.GenesisIndex {
			return fmt.Errorf("genesis record got index %d", index)
		}
		for _, p := range plans {
			if !p.Tier.Valid() {
				return fmt.Errorf("%w: %s", ErrInvalidPlan, p.Tier)
			}
			if err := tx.SavePlan(ctx, p); err != nil {
				return err
			}
		}
		return tx.SaveSettings(ctx, settings)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.committed(owner)

	s.log.Info("ledger initialized", slog.String("owner", owner), slog.Int("plans", len(plans)))
	return nil
}

// HandlerAddress возвращает текущий адрес Payment Handler.
func (s *Service) HandlerAddress(ctx context.Context) (string, error) {
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return "", fmt.Errorf("ledger.HandlerAddress: %w", err)
	}
	return settings.HandlerAddress, nil
}

// RecoveryFee возвращает плату за восстановление секрета.
func (s *Service) RecoveryFee(ctx context.Context) (int64, error) {
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger.RecoveryFee: %w", err)
	}
	return settings.RecoveryFee, nil
}

// PlanTerms возвращает цену и длительность тарифа.
func (s *Service) PlanTerms(ctx context.Context, tier models.Tier) (int64, time.Duration, error) {
	p, err := s.plan(ctx, tier)
	if err != nil {
		return 0, 0, err
	}
	return p.Price, p.Duration, nil
}

// Plans возвращает всю таблицу тарифов.
func (s *Service) Plans(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.repo.Plans(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger.Plans: %w", err)
	}
	return plans, nil
}

// SubscriberCount возвращает количество записей, включая genesis-запись.
func (s *Service) SubscriberCount(ctx context.Context) (int64, error) {
	count, err := s.repo.SubscriberCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger.SubscriberCount: %w", err)
	}
	return count, nil
}

func (s *Service) plan(ctx context.Context, tier models.Tier) (models.Plan, error) {
	if !tier.Valid() {
		return models.Plan{}, ErrInvalidPlan
	}
	p, err := s.repo.Plan(ctx, tier)
	if errors.Is(err, storage.ErrPlanNotFound) {
		return models.Plan{}, fmt.Errorf("%w: %s is not configured", ErrInvalidPlan, tier)
	}
	if err != nil {
		return models.Plan{}, fmt.Errorf("ledger.plan: %w", err)
	}
	return p, nil
}

type noopMetrics struct{}

func (noopMetrics) SubscriptionCreated(models.Tier) {}
func (noopMetrics) SubscriptionRenewed(models.Tier) {}
func (noopMetrics) PaymentRejected(string)          {}
func (noopMetrics) EventPublishFailed()             {}
