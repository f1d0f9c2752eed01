package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"note-board/internal/domain"
	"note-board/internal/feature/memo"
	"note-board/pkg/utils"
)

type MemoRepo struct{ db *gorm.DB }

func NewMemoRepo(db *gorm.DB) *MemoRepo { return &MemoRepo{db: db} }

var _ domain.MemoRepository = (*MemoRepo)(nil)

func (r *MemoRepo) FindByID(ctx context.Context, id string) (*domain.Memo, error) {
	var m memo.MemoModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find memo: %w", err)
	}
	out := toDomainMemo(m)
	return &out, nil
}

func (r *MemoRepo) Create(ctx context.Context, d *domain.Memo) error {
	if d.ID == "" {
		d.ID = utils.NewID()
	}
	m := memo.MemoModel{
		ID: d.ID, OwnerID: d.OwnerID, ParentID: d.ParentID, Title: d.Title, Content: d.Content,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("create memo: %w", err)
	}
	*d = toDomainMemo(m)
	return nil
}

func (r *MemoRepo) IncrementReadCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&memo.MemoModel{}).
		Where("id = ?", id).
		UpdateColumn("read_count", gorm.Expr("read_count + ?", 1)).Error
}

func (r *MemoRepo) Replies(ctx context.Context, parentID string) ([]domain.Memo, error) {
	var ms []memo.MemoModel
	if err := r.db.WithContext(ctx).Where("parent_id = ?", parentID).Order("created_at").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	out := make([]domain.Memo, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomainMemo(m))
	}
	return out, nil
}

func toDomainMemo(m memo.MemoModel) domain.Memo {
	return domain.Memo{
		ID: m.ID, OwnerID: m.OwnerID, ParentID: m.ParentID, Title: m.Title, Content: m.Content,
		ReadCount: m.ReadCount, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

type CommentRepo struct{ db *gorm.DB }

func NewCommentRepo(db *gorm.DB) *CommentRepo { return &CommentRepo{db: db} }

var _ domain.MemoCommentRepository = (*CommentRepo)(nil)

func (r *CommentRepo) ListByMemo(ctx context.Context, memoID string) ([]domain.MemoComment, error) {
	var ms []memo.CommentModel
	if err := r.db.WithContext(ctx).Where("memo_id = ?", memoID).Order("created_at").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	out := make([]domain.MemoComment, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.MemoComment{
			ID: m.ID, MemoID: m.MemoID, OwnerID: m.OwnerID, Content: m.Content, CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (r *CommentRepo) Create(ctx context.Context, c *domain.MemoComment) error {
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	m := memo.CommentModel{ID: c.ID, MemoID: c.MemoID, OwnerID: c.OwnerID, Content: c.Content}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	c.CreatedAt = m.CreatedAt
	return nil
}
