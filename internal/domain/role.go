package domain

import "context"

type Role struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"-"`
	Description    string `json:"description"`
}

type RoleStore interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, r *Role) error
}

type RoleRepository interface {
	RoleStore
	List(ctx context.Context) ([]Role, error)
}

// 内置角色
const (
	RoleAdministrators = "Administrators"
	RoleEveryone       = "Everyone"
	RoleUsers          = "Users"
	RoleGuests         = "Guests"
	RoleManagers       = "Managers"
)
