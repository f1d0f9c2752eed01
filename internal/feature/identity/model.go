package identity

import (
	"time"

	"gorm.io/gorm"
)

type UserModel struct {
	ID                 string `gorm:"primaryKey;type:varchar(36)"`
	UserName           string `gorm:"size:256;not null"`
	NormalizedUserName string `gorm:"uniqueIndex;size:191;not null"`
	Email              string `gorm:"size:256;not null"`
	NormalizedEmail    string `gorm:"uniqueIndex;size:191;not null"`
	EmailConfirmed     bool   `gorm:"not null;default:false"`
	PasswordHash       string `gorm:"size:100;not null"`
	Address            string `gorm:"size:255"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (UserModel) TableName() string { return "users" }

type RoleModel struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	Name           string `gorm:"size:256;not null"`
	NormalizedName string `gorm:"uniqueIndex;size:191;not null"`
	Description    string `gorm:"size:255"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RoleModel) TableName() string { return "roles" }

// UserRoleModel 多对多关联（复合主键，重复插入由 ON CONFLICT 吞掉）
type UserRoleModel struct {
	UserID string `gorm:"primaryKey;type:varchar(36)"`
	RoleID string `gorm:"primaryKey;type:varchar(36)"`
}

func (UserRoleModel) TableName() string { return "user_roles" }

// Models 供 AutoMigrate 使用
func Models() []any { return []any{&UserModel{}, &RoleModel{}, &UserRoleModel{}} }
