package domain

import (
	"context"
	"strings"
	"time"
)

type User struct {
	ID                 string    `json:"id"`
	UserName           string    `json:"userName"`
	NormalizedUserName string    `json:"-"`
	Email              string    `json:"email"`
	NormalizedEmail    string    `json:"-"`
	EmailConfirmed     bool      `json:"emailConfirmed"`
	PasswordHash       string    `json:"-"`
	Address            string    `json:"address,omitempty"`
	Roles              []string  `json:"roles,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// UserStore 用户存储；FindByEmail 查不到返回 (nil, nil)
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User, password string) error
	AddToRole(ctx context.Context, u *User, roleName string) error
}

// UserRepository 账号相关的其余操作（登录、确认邮箱、后台）
type UserRepository interface {
	UserStore
	FindByID(ctx context.Context, id string) (*User, error)
	ConfirmEmail(ctx context.Context, id string) error
	RoleNames(ctx context.Context, userID string) ([]string, error)
	List(ctx context.Context, offset, limit int, q string, withDeleted bool) ([]User, int64, error)
	SoftDelete(ctx context.Context, id string) error
}

// Normalize 比较键：去空白 + 大写
func Normalize(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
