// Package storage описывает общий контракт хранилищ леджера: транзакционную
// запись подписчиков, таблицы тарифов и настроек, а также ошибки хранилища.
package storage

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
)

var (
	// ErrSubscriberNotFound — записи с таким индексом нет
	ErrSubscriberNotFound = errors.New("storage: subscriber not found")
	// ErrPlanNotFound — тариф отсутствует в таблице
	ErrPlanNotFound = errors.New("storage: plan not found")
	// ErrIdentityExists — идентификатор уже присутствует в директории
	ErrIdentityExists = errors.New("storage: identity already registered")
)

// Tx — набор операций записи, выполняемых атомарно внутри транзакции.
// Изменения становятся видимыми только после успешного завершения транзакции.
type Tx interface {
	// AppendSubscriber добавляет запись в конец последовательности и возвращает назначенный индекс.
	AppendSubscriber(ctx context.Context, sub models.Subscriber) (int64, error)
	// UpdateSubscriber перезаписывает срок действия и секрет записи с индексом sub.Index.
	UpdateSubscriber(ctx context.Context, sub models.Subscriber) error
	// SavePlan сохраняет цену и длительность тарифа.
	SavePlan(ctx context.Context, plan models.Plan) error
	// SaveSettings сохраняет настройки леджера.
	SaveSettings(ctx context.Context, settings models.Settings) error
}

// TxFunc — тело транзакции. Возврат ошибки откатывает все изменения.
type TxFunc func(ctx context.Context, tx Tx) error
