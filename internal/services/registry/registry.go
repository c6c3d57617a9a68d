// Package registry предоставляет статический Access Registry: владельца и
// администраторов леджера, заданных в конфигурации.
package registry

import "context"

// Static отвечает на вопросы о ролях по фиксированным спискам.
// Неизвестный идентификатор не имеет ни одной роли.
type Static struct {
	owner  string
	admins map[string]struct{}
}

// NewStatic создаёт реестр с владельцем owner и администраторами admins.
func NewStatic(owner string, admins []string) *Static {
	set := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		if a != "" {
			set[a] = struct{}{}
		}
	}
	return &Static{owner: owner, admins: set}
}

// IsOwner сообщает, является ли identity владельцем.
func (r *Static) IsOwner(_ context.Context, identity string) bool {
	return identity != "" && identity == r.owner
}

// IsAdminOrOwner сообщает, является ли identity администратором или владельцем.
func (r *Static) IsAdminOrOwner(ctx context.Context, identity string) bool {
	if r.IsOwner(ctx, identity) {
		return true
	}
	_, ok := r.admins[identity]
	return ok
}
