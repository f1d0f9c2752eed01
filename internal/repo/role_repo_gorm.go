package repo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"note-board/internal/domain"
	"note-board/internal/feature/identity"
	"note-board/pkg/utils"
)

type RoleRepo struct{ db *gorm.DB }

func NewRoleRepo(db *gorm.DB) *RoleRepo { return &RoleRepo{db: db} }

var _ domain.RoleRepository = (*RoleRepo)(nil)

func (r *RoleRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&identity.RoleModel{}).
		Where("normalized_name = ?", domain.Normalize(name)).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check role %q: %w", name, err)
	}
	return n > 0, nil
}

func (r *RoleRepo) Create(ctx context.Context, role *domain.Role) error {
	if strings.TrimSpace(role.Name) == "" {
		return fmt.Errorf("%w: empty role name", domain.ErrValidation)
	}
	if role.ID == "" {
		role.ID = utils.NewID()
	}
	if role.NormalizedName == "" {
		role.NormalizedName = domain.Normalize(role.Name)
	}
	m := identity.RoleModel{
		ID:             role.ID,
		Name:           role.Name,
		NormalizedName: role.NormalizedName,
		Description:    role.Description,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDupKey(err) {
			return fmt.Errorf("%w: role %q", domain.ErrConflict, role.Name)
		}
		return fmt.Errorf("create role %q: %w", role.Name, err)
	}
	return nil
}

func (r *RoleRepo) List(ctx context.Context) ([]domain.Role, error) {
	var ms []identity.RoleModel
	if err := r.db.WithContext(ctx).Order("name").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	out := make([]domain.Role, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.Role{
			ID: m.ID, Name: m.Name, NormalizedName: m.NormalizedName, Description: m.Description,
		})
	}
	return out, nil
}
