package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"note-board/internal/core/auth"
	"note-board/internal/domain"
	"note-board/internal/feature/memo"
	"note-board/internal/service"
	httpez "note-board/internal/transport/http/ez"
	mdw "note-board/internal/transport/http/middleware"
	resp "note-board/internal/transport/http/response"
)

// MemoHandler 留言板：列表/详情/评论公开，写操作需登录
type MemoHandler struct {
	svc *service.MemoService
	db  *gorm.DB
	jwt *auth.JWTer
}

func NewMemoHandler(svc *service.MemoService, db *gorm.DB, j *auth.JWTer) *MemoHandler {
	return &MemoHandler{svc: svc, db: db, jwt: j}
}

func (h *MemoHandler) MountAPI(api *gin.RouterGroup) {
	authed := api.Group("", mdw.AuthJWT(h.jwt, ""))

	// 写操作走通用 CRUD；回复只能通过 /reply，阅读数不允许客户端改
	httpez.Crud(httpez.CrudConfig[memo.MemoModel]{
		DB:          h.db,
		Group:       authed,
		Path:        "/memos",
		New:         func() *memo.MemoModel { return &memo.MemoModel{} },
		AllowCreate: true,
		AllowUpdate: true,
		AllowDelete: true,
		Hooks: httpez.CrudHooks[memo.MemoModel]{
			BeforeCreate: sanitizeMemo,
			BeforeUpdate: sanitizeMemo,
			AfterWrite:   func(c *gin.Context, id string) { h.svc.Invalidate(c, id) },
		},
	})
	// 我的留言
	httpez.Crud(httpez.CrudConfig[memo.MemoModel]{
		DB:        h.db,
		Group:     authed,
		Path:      "/me/memos",
		New:       func() *memo.MemoModel { return &memo.MemoModel{} },
		AllowList: true,
		OrderBy:   "created_at DESC",
	})

	ezPublic := httpez.New(api)
	ezAuth := httpez.New(authed)

	type indexQ struct {
		Page int    `form:"page,default=1"`
		Size int    `form:"size,default=20"`
		Q    string `form:"q"`
	}
	type indexOut = resp.Page[memo.MemoModel]
	httpez.RegisterAction(ezPublic, h.db, httpez.Action[indexQ, indexOut]{
		Method: http.MethodGet,
		Path:   "/memos",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *indexQ) (indexOut, error) {
			if in.Page <= 0 {
				in.Page = 1
			}
			if in.Size <= 0 || in.Size > 100 {
				in.Size = 20
			}
			// 只列主题，回复在详情里展示
			q := tx.Model(&memo.MemoModel{}).Where("parent_id = ?", "")
			if s := strings.TrimSpace(in.Q); s != "" {
				q = q.Where("title LIKE ?", "%"+s+"%")
			}
			q = q.Session(&gorm.Session{}) // Count 和 Find 共用条件
			var total int64
			if err := q.Count(&total).Error; err != nil {
				return indexOut{}, httpez.Internal("count memos failed", err)
			}
			var list []memo.MemoModel
			if err := q.Order("created_at DESC").Limit(in.Size).Offset((in.Page - 1) * in.Size).Find(&list).Error; err != nil {
				return indexOut{}, httpez.Internal("list memos failed", err)
			}
			return resp.NewPage(total, in.Page, in.Size, list), nil
		},
	})

	httpez.RegisterAction(ezPublic, h.db, httpez.Action[struct{}, *service.MemoDetails]{
		Method: http.MethodGet,
		Path:   "/memos/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*service.MemoDetails, error) {
			return h.svc.Details(c, c.Param("id"))
		},
	})

	type replyIn struct {
		Title   string `json:"title"   binding:"required,max=255"`
		Content string `json:"content"`
	}
	httpez.RegisterAction(ezAuth, h.db, httpez.Action[replyIn, *domain.Memo]{
		Method: http.MethodPost,
		Path:   "/memos/:id/reply",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *replyIn) (*domain.Memo, error) {
			return h.svc.Reply(c, c.Param("id"), c.GetString("userId"), in.Title, in.Content)
		},
	})

	httpez.RegisterAction(ezPublic, h.db, httpez.Action[struct{}, []domain.MemoComment]{
		Method: http.MethodGet,
		Path:   "/memos/:id/comments",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) ([]domain.MemoComment, error) {
			return h.svc.Comments(c, c.Param("id"))
		},
	})

	type commentIn struct {
		Content string `json:"content" binding:"required,max=2000"`
	}
	httpez.RegisterAction(ezAuth, h.db, httpez.Action[commentIn, *domain.MemoComment]{
		Method: http.MethodPost,
		Path:   "/memos/:id/comments",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *commentIn) (*domain.MemoComment, error) {
			return h.svc.AddComment(c, c.Param("id"), c.GetString("userId"), in.Content)
		},
	})
}

func sanitizeMemo(_ *gin.Context, m *memo.MemoModel) error {
	m.ParentID = ""
	m.ReadCount = 0
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return httpez.BadRequest("title is required")
	}
	return nil
}
