package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"note-board/internal/core/cache"
	"note-board/internal/domain"
)

// MemoDetails 详情页：正文 + 回复 + 评论
type MemoDetails struct {
	Memo     domain.Memo          `json:"memo"`
	Replies  []domain.Memo        `json:"replies"`
	Comments []domain.MemoComment `json:"comments"`
}

type MemoService struct {
	memos    domain.MemoRepository
	comments domain.MemoCommentRepository
	cache    *cache.Cache // 可为 nil
	ttl      time.Duration
	log      *zap.Logger
}

func NewMemoService(memos domain.MemoRepository, comments domain.MemoCommentRepository, c *cache.Cache, ttl time.Duration, l *zap.Logger) *MemoService {
	return &MemoService{memos: memos, comments: comments, cache: c, ttl: ttl, log: l.Named("memo")}
}

func memoKey(id string) string { return "memo:details:" + id }

// Details 阅读数每次都 +1，缓存中的计数可能滞后一个 TTL
func (s *MemoService) Details(ctx context.Context, id string) (*MemoDetails, error) {
	var (
		d   *MemoDetails
		err error
	)
	if s.cache != nil {
		d, err = cache.GetOrLoadJSON(s.cache, ctx, memoKey(id), s.ttl, func(ctx context.Context) (*MemoDetails, error) {
			return s.load(ctx, id)
		})
	} else {
		d, err = s.load(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: memo %q", domain.ErrNotFound, id)
	}
	if err := s.memos.IncrementReadCount(ctx, id); err != nil {
		s.log.Warn("increment read count failed", zap.String("id", id), zap.Error(err))
	}
	return d, nil
}

func (s *MemoService) load(ctx context.Context, id string) (*MemoDetails, error) {
	m, err := s.memos.FindByID(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	replies, err := s.memos.Replies(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByMemo(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MemoDetails{Memo: *m, Replies: replies, Comments: comments}, nil
}

func (s *MemoService) Reply(ctx context.Context, parentID, ownerID, title, content string) (*domain.Memo, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if err := s.mustExist(ctx, parentID); err != nil {
		return nil, err
	}
	m := &domain.Memo{OwnerID: ownerID, ParentID: parentID, Title: title, Content: content}
	if err := s.memos.Create(ctx, m); err != nil {
		return nil, err
	}
	s.Invalidate(ctx, parentID)
	return m, nil
}

func (s *MemoService) AddComment(ctx context.Context, memoID, ownerID, content string) (*domain.MemoComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}
	if err := s.mustExist(ctx, memoID); err != nil {
		return nil, err
	}
	c := &domain.MemoComment{MemoID: memoID, OwnerID: ownerID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	s.Invalidate(ctx, memoID)
	return c, nil
}

func (s *MemoService) Comments(ctx context.Context, memoID string) ([]domain.MemoComment, error) {
	if err := s.mustExist(ctx, memoID); err != nil {
		return nil, err
	}
	return s.comments.ListByMemo(ctx, memoID)
}

// Invalidate 更新/删除/回复后清理详情缓存
func (s *MemoService) Invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, memoKey(id)); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("id", id), zap.Error(err))
	}
}

func (s *MemoService) mustExist(ctx context.Context, id string) error {
	m, err := s.memos.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: memo %q", domain.ErrNotFound, id)
	}
	return nil
}
