// Package memory реализует хранилище леджера в памяти процесса.
// Используется в тестах и при storage.driver: memory.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
	"github.com/magabrotheeeer/subscription-ledger/internal/storage"
)

// Store хранит директорию, последовательность записей, тарифы и настройки.
type Store struct {
	mu sync.RWMutex
	// txMu упорядочивает транзакции между собой
	txMu sync.Mutex

	directory map[string]int64
	records   []models.Subscriber
	plans     map[models.Tier]models.Plan
	settings  models.Settings
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		directory: make(map[string]int64),
		plans:     make(map[models.Tier]models.Plan),
	}
}

// Lookup ищет идентификатор в директории.
func (s *Store) Lookup(_ context.Context, identity string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, ok := s.directory[identity]
	return index, ok, nil
}

// SubscriberAt возвращает запись по индексу.
func (s *Store) SubscriberAt(_ context.Context, index int64) (models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= int64(len(s.records)) {
		return models.Subscriber{}, storage.ErrSubscriberNotFound
	}
	return s.records[index], nil
}

// SubscriberCount возвращает количество записей.
func (s *Store) SubscriberCount(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.records)), nil
}

// Plan возвращает условия тарифа.
func (s *Store) Plan(_ context.Context, tier models.Tier) (models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.plans[tier]; ok {
		return p, nil
	}
	return models.Plan{}, storage.ErrPlanNotFound
}

// Plans возвращает тарифы, упорядоченные по индексу уровня.
func (s *Store) Plans(_ context.Context) ([]models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Plan, 0, len(s.plans))
	for _, tier := range slices.Sorted(maps.Keys(s.plans)) {
		result = append(result, s.plans[tier])
	}
	return result, nil
}

// Settings возвращает настройки леджера.
func (s *Store) Settings(_ context.Context) (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings, nil
}

// WithinTx выполняет fn над копией состояния и применяет её, только если fn вернула nil.
// Пока fn выполняется, читатели видят зафиксированное состояние.
func (s *Store) WithinTx(ctx context.Context, fn storage.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	tx := &tx{
		directory: maps.Clone(s.directory),
		records:   slices.Clone(s.records),
		plans:     maps.Clone(s.plans),
		settings:  s.settings,
	}
	s.mu.RUnlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory = tx.directory
	s.records = tx.records
	s.plans = tx.plans
	s.settings = tx.settings
	return nil
}

type tx struct {
	directory map[string]int64
	records   []models.Subscriber
	plans     map[models.Tier]models.Plan
	settings  models.Settings
}

func (t *tx) AppendSubscriber(_ context.Context, sub models.Subscriber) (int64, error) {
	if _, exists := t.directory[sub.Identity]; exists {
		return 0, storage.ErrIdentityExists
	}
	index := int64(len(t.records))
	sub.Index = index
	t.records = append(t.records, sub)
	t.directory[sub.Identity] = index
	return index, nil
}

func (t *tx) UpdateSubscriber(_ context.Context, sub models.Subscriber) error {
	if sub.Index < 0 || sub.Index >= int64(len(t.records)) {
		return storage.ErrSubscriberNotFound
	}
	current := t.records[sub.Index]
	if current.Identity != sub.Identity {
		return fmt.Errorf("memory.UpdateSubscriber: index %d belongs to another identity", sub.Index)
	}
	current.ValidUntil = sub.ValidUntil
	current.SecretKey = sub.SecretKey
	t.records[sub.Index] = current
	return nil
}

func (t *tx) SavePlan(_ context.Context, p models.Plan) error {
	t.plans[p.Tier] = p
	return nil
}

func (t *tx) SaveSettings(_ context.Context, settings models.Settings) error {
	t.settings = settings
	return nil
}
