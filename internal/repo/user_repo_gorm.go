package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"note-board/internal/domain"
	"note-board/internal/feature/identity"
	"note-board/pkg/utils"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

// Create 校验密码策略后写入 bcrypt 哈希；唯一冲突返回 ErrConflict
func (r *UserRepo) Create(ctx context.Context, u *domain.User, password string) error {
	email := strings.TrimSpace(u.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email %q", domain.ErrValidation, u.Email)
	}
	if err := utils.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if strings.TrimSpace(u.UserName) == "" {
		u.UserName = email
	}
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	m := identity.UserModel{
		ID:                 u.ID,
		UserName:           u.UserName,
		NormalizedUserName: domain.Normalize(u.UserName),
		Email:              email,
		NormalizedEmail:    domain.Normalize(email),
		EmailConfirmed:     u.EmailConfirmed,
		PasswordHash:       hash,
		Address:            u.Address,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDupKey(err) {
			return fmt.Errorf("%w: user %q", domain.ErrConflict, email)
		}
		return fmt.Errorf("create user %q: %w", email, err)
	}
	*u = toDomainUser(m)
	return nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "normalized_email = ?", domain.Normalize(email))
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) first(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var m identity.UserModel
	err := r.db.WithContext(ctx).First(&m, cond, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u := toDomainUser(m)
	return &u, nil
}

// AddToRole 关联已存在时为 no-op
func (r *UserRepo) AddToRole(ctx context.Context, u *domain.User, roleName string) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	db := r.db.WithContext(ctx)

	var n int64
	if err := db.Model(&identity.UserModel{}).Where("id = ?", u.ID).Count(&n).Error; err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user %q", domain.ErrNotFound, u.ID)
	}

	var role identity.RoleModel
	err := db.First(&role, "normalized_name = ?", domain.Normalize(roleName)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: role %q", domain.ErrNotFound, roleName)
	}
	if err != nil {
		return fmt.Errorf("find role: %w", err)
	}

	link := identity.UserRoleModel{UserID: u.ID, RoleID: role.ID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return fmt.Errorf("add %q to role %q: %w", u.Email, roleName, err)
	}
	return nil
}

func (r *UserRepo) RoleNames(ctx context.Context, userID string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&identity.RoleModel{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name").
		Pluck("roles.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("role names: %w", err)
	}
	return names, nil
}

func (r *UserRepo) ConfirmEmail(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&identity.UserModel{}).
		Where("id = ?", id).
		Update("email_confirmed", true)
	if res.Error != nil {
		return fmt.Errorf("confirm email: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %q", domain.ErrNotFound, id)
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, offset, limit int, q string, withDeleted bool) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&identity.UserModel{})
	if withDeleted {
		tx = tx.Unscoped()
	}
	if s := strings.TrimSpace(q); s != "" {
		like := "%" + domain.Normalize(s) + "%"
		tx = tx.Where("normalized_email LIKE ? OR normalized_user_name LIKE ?", like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var ms []identity.UserModel
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Find(&ms).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(ms))
	for _, m := range ms {
		users = append(users, toDomainUser(m))
	}
	return users, total, nil
}

func (r *UserRepo) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&identity.UserModel{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %q", domain.ErrNotFound, id)
	}
	return nil
}

func toDomainUser(m identity.UserModel) domain.User {
	return domain.User{
		ID:                 m.ID,
		UserName:           m.UserName,
		NormalizedUserName: m.NormalizedUserName,
		Email:              m.Email,
		NormalizedEmail:    m.NormalizedEmail,
		EmailConfirmed:     m.EmailConfirmed,
		PasswordHash:       m.PasswordHash,
		Address:            m.Address,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
