// Package seed ensures the built-in roles, accounts and role memberships
// exist before the application starts serving requests.
//
// Every catalog entry is checked individually, so a run that was interrupted
// half way is completed by the next one. Existing roles and users are never
// modified.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"note-board/internal/domain"
)

// DefaultPassword 内置账号的初始密码
const DefaultPassword = "Pa$$w0rd"

// Roles 内置角色，按声明顺序创建
var Roles = []string{
	domain.RoleAdministrators,
	domain.RoleEveryone,
	domain.RoleUsers,
	domain.RoleGuests,
	domain.RoleManagers,
}

// Account 内置账号；UserName 为空时取邮箱
type Account struct {
	Key      string
	UserName string
}

var Accounts = []Account{
	{Key: "administrator"},
	{Key: "guest", UserName: "Guest"},
	{Key: "anonymous", UserName: "Anonymous"},
	{Key: "user"},
	{Key: "manager"},
}

type Membership struct {
	Account string
	Role    string
}

var Memberships = []Membership{
	{"administrator", domain.RoleAdministrators},
	{"administrator", domain.RoleUsers},
	{"guest", domain.RoleGuests},
	{"anonymous", domain.RoleGuests},
	{"user", domain.RoleUsers},
	{"manager", domain.RoleManagers},
}

type Options struct {
	Domain   string // 邮箱后缀，如 a.com
	Password string // 为空则用 DefaultPassword
}

type Seeder struct {
	roles  domain.RoleStore
	users  domain.UserStore
	domain string
	pwd    string
	log    *zap.Logger
}

var ErrMissingDomain = errors.New("seed: identity domain is required")

func New(roles domain.RoleStore, users domain.UserStore, opt Options, l *zap.Logger) (*Seeder, error) {
	d := strings.TrimSpace(opt.Domain)
	if d == "" {
		return nil, ErrMissingDomain
	}
	if roles == nil || users == nil {
		return nil, errors.New("seed: role and user stores are required")
	}
	if opt.Password == "" {
		opt.Password = DefaultPassword
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Seeder{
		roles:  roles,
		users:  users,
		domain: strings.TrimPrefix(d, "@"),
		pwd:    opt.Password,
		log:    l.Named("seed"),
	}, nil
}

// Email 内置账号邮箱 {key}@{domain}
func (s *Seeder) Email(key string) string { return key + "@" + s.domain }

// Run 依次确保角色、账号、成员关系；任一步失败立即返回，已完成的写入保留
func (s *Seeder) Run(ctx context.Context) error {
	for _, name := range Roles {
		if err := s.ensureRole(ctx, name); err != nil {
			return err
		}
	}

	accounts := make(map[string]*domain.User, len(Accounts))
	for _, a := range Accounts {
		u, err := s.ensureUser(ctx, a)
		if err != nil {
			return err
		}
		accounts[a.Key] = u
	}

	// 关联每次都写，已存在时由存储层忽略
	for _, m := range Memberships {
		if err := s.users.AddToRole(ctx, accounts[m.Account], m.Role); err != nil {
			return fmt.Errorf("seed membership %s -> %s: %w", m.Account, m.Role, err)
		}
	}
	s.log.Info("bootstrap identity ensured",
		zap.Int("roles", len(Roles)),
		zap.Int("accounts", len(Accounts)),
		zap.Int("memberships", len(Memberships)),
	)
	return nil
}

func (s *Seeder) ensureRole(ctx context.Context, name string) error {
	ok, err := s.roles.ExistsByName(ctx, name)
	if err != nil {
		return fmt.Errorf("seed role %s: %w", name, err)
	}
	if ok {
		s.log.Debug("role exists", zap.String("role", name))
		return nil
	}
	err = s.roles.Create(ctx, &domain.Role{
		Name:           name,
		NormalizedName: domain.Normalize(name),
	})
	switch {
	case errors.Is(err, domain.ErrConflict):
		// 另一个实例抢先创建
		s.log.Warn("role created concurrently", zap.String("role", name))
		return nil
	case err != nil:
		return fmt.Errorf("seed role %s: %w", name, err)
	}
	s.log.Info("role created", zap.String("role", name))
	return nil
}

func (s *Seeder) ensureUser(ctx context.Context, a Account) (*domain.User, error) {
	email := s.Email(a.Key)
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("seed user %s: %w", a.Key, err)
	}
	if u != nil {
		s.log.Debug("user exists", zap.String("email", email))
		return u, nil
	}

	userName := a.UserName
	if userName == "" {
		userName = email
	}
	u = &domain.User{
		UserName:       userName,
		Email:          email,
		EmailConfirmed: true,
	}
	err = s.users.Create(ctx, u, s.pwd)
	if errors.Is(err, domain.ErrConflict) {
		// 唯一冲突 → 再查一次
		existing, ferr := s.users.FindByEmail(ctx, email)
		if ferr != nil {
			return nil, fmt.Errorf("seed user %s: %w", a.Key, ferr)
		}
		if existing == nil {
			return nil, fmt.Errorf("seed user %s: %w", a.Key, err)
		}
		s.log.Warn("user created concurrently", zap.String("email", email))
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed user %s: %w", a.Key, err)
	}
	s.log.Info("user created", zap.String("email", email), zap.String("user_name", userName))
	return u, nil
}
