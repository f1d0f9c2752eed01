package domain

import (
	"context"
	"time"
)

// Memo 留言板条目；ParentID 非空时为回复
type Memo struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	ParentID  string    `json:"parentId,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ReadCount int       `json:"readCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type MemoComment struct {
	ID        string    `json:"id"`
	MemoID    string    `json:"memoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type MemoRepository interface {
	FindByID(ctx context.Context, id string) (*Memo, error)
	Create(ctx context.Context, m *Memo) error
	IncrementReadCount(ctx context.Context, id string) error
	Replies(ctx context.Context, parentID string) ([]Memo, error)
}

type MemoCommentRepository interface {
	ListByMemo(ctx context.Context, memoID string) ([]MemoComment, error)
	Create(ctx context.Context, c *MemoComment) error
}
