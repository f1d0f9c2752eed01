package memo

import (
	"time"

	"gorm.io/gorm"
)

// MemoModel 同时供 ez.Crud 绑定 JSON 使用
type MemoModel struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID   string `gorm:"index;type:varchar(36);not null" json:"ownerId"`
	ParentID  string `gorm:"index;type:varchar(36)" json:"parentId"`
	Title     string `gorm:"size:255;not null" json:"title" binding:"required,max=255"`
	Content   string `gorm:"type:text" json:"content"`
	ReadCount int    `gorm:"not null;default:0" json:"readCount"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MemoModel) TableName() string { return "memos" }

type CommentModel struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	MemoID  string `gorm:"index;type:varchar(36);not null"`
	OwnerID string `gorm:"type:varchar(36);not null"`
	Content string `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (CommentModel) TableName() string { return "memo_comments" }

func Models() []any { return []any{&MemoModel{}, &CommentModel{}} }
