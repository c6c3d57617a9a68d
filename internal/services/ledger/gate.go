package ledger

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
)

// Directory — отображение идентификатора в индекс записи с явным признаком присутствия.
type Directory interface {
	Lookup(ctx context.Context, identity string) (index int64, ok bool, err error)
}

// Gate — Access Gate для операций, доступных только подписчикам.
//
// Проверка проходит, если идентификатор присутствует в директории и не указывает
// на genesis-запись, либо если вызывающий — владелец.
type Gate struct {
	dir      Directory
	registry AccessRegistry
}

// NewGate создаёт Gate поверх директории и реестра ролей.
func NewGate(dir Directory, registry AccessRegistry) *Gate {
	return &Gate{dir: dir, registry: registry}
}

// Check возвращает ErrNotAuthorized, если caller не может вызывать операции подписчика.
func (g *Gate) Check(ctx context.Context, caller string) error {
	ok, err := g.registered(ctx, caller)
	if err != nil {
		return fmt.Errorf("ledger.Gate: %w", err)
	}
	if ok || g.owner(ctx, caller) {
		return nil
	}
	return ErrNotAuthorized
}

// registered проверяет путь через директорию.
func (g *Gate) registered(ctx context.Context, caller string) (bool, error) {
	if caller == "" {
		return false, nil
	}
	index, ok, err := g.dir.Lookup(ctx, caller)
	if err != nil {
		return false, err
	}
	return ok && index != models.GenesisIndex, nil
}

// owner проверяет путь через capability владельца.
func (g *Gate) owner(ctx context.Context, caller string) bool {
	return caller != "" && g.registry.IsOwner(ctx, caller)
}
