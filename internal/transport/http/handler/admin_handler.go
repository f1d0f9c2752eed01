package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"note-board/internal/domain"
	httpez "note-board/internal/transport/http/ez"
)

// AdminHandler 管理端：用户/角色。分组已要求 Administrators，这里再按 Roles 双重校验
type AdminHandler struct {
	users domain.UserRepository
	roles domain.RoleRepository
	db    *gorm.DB
}

func NewAdminHandler(users domain.UserRepository, roles domain.RoleRepository, db *gorm.DB) *AdminHandler {
	return &AdminHandler{users: users, roles: roles, db: db}
}

var adminOnly = []string{domain.RoleAdministrators}

func (h *AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	ez := httpez.New(admin)

	// --- GET /admin/v1/users  用户列表（附角色） ---
	type listQ struct {
		Offset      int    `form:"offset,default=0"`
		Limit       int    `form:"limit,default=20"`
		Q           string `form:"q"`            // 按 email/userName 模糊搜
		WithDeleted bool   `form:"with_deleted"` // 是否包含软删
	}
	type row struct {
		ID             string    `json:"id"`
		Email          string    `json:"email"`
		UserName       string    `json:"userName"`
		EmailConfirmed bool      `json:"emailConfirmed"`
		Roles          []string  `json:"roles"`
		CreatedAt      time.Time `json:"createdAt"`
	}
	type listOut struct {
		Total int64 `json:"total"`
		Items []row `json:"items"`
	}
	httpez.RegisterAction(ez, h.db, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			if in.Offset < 0 {
				in.Offset = 0
			}
			us, total, err := h.users.List(c, in.Offset, in.Limit, in.Q, in.WithDeleted)
			if err != nil {
				return listOut{}, err
			}
			out := listOut{Total: total, Items: make([]row, 0, len(us))}
			for _, u := range us {
				roles, err := h.users.RoleNames(c, u.ID)
				if err != nil {
					return listOut{}, err
				}
				out.Items = append(out.Items, row{
					ID: u.ID, Email: u.Email, UserName: u.UserName,
					EmailConfirmed: u.EmailConfirmed, Roles: roles, CreatedAt: u.CreatedAt,
				})
			}
			return out, nil
		},
	})

	// --- POST /admin/v1/users/:id/ban  封禁（软删） ---
	httpez.RegisterAction(ez, h.db, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == c.GetString("userId") {
				return nil, httpez.BadRequest("cannot ban yourself")
			}
			if err := h.users.SoftDelete(c, id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	// --- POST /admin/v1/users/:id/roles  加入角色 ---
	type addRoleIn struct {
		Role string `json:"role" binding:"required,max=64"`
	}
	httpez.RegisterAction(ez, h.db, httpez.Action[addRoleIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/roles",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *gorm.DB, in *addRoleIn) (gin.H, error) {
			u, err := h.users.FindByID(c, c.Param("id"))
			if err != nil {
				return nil, err
			}
			if u == nil {
				return nil, httpez.NotFound("user not found")
			}
			if err := h.users.AddToRole(c, u, strings.TrimSpace(in.Role)); err != nil {
				return nil, err
			}
			roles, err := h.users.RoleNames(c, u.ID)
			if err != nil {
				return nil, err
			}
			return gin.H{"id": u.ID, "roles": roles}, nil
		},
	})

	// --- 角色 ---
	type roleRow struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	httpez.RegisterAction(ez, h.db, httpez.Action[struct{}, []roleRow]{
		Method: http.MethodGet,
		Path:   "/roles",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) ([]roleRow, error) {
			rs, err := h.roles.List(c)
			if err != nil {
				return nil, err
			}
			out := make([]roleRow, 0, len(rs))
			for _, r := range rs {
				out = append(out, roleRow{ID: r.ID, Name: r.Name, Description: r.Description})
			}
			return out, nil
		},
	})

	type createRoleIn struct {
		Name        string `json:"name"        binding:"required,max=64"`
		Description string `json:"description" binding:"omitempty,max=255"`
	}
	httpez.RegisterAction(ez, h.db, httpez.Action[createRoleIn, roleRow]{
		Method: http.MethodPost,
		Path:   "/roles",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *gorm.DB, in *createRoleIn) (roleRow, error) {
			r := &domain.Role{Name: strings.TrimSpace(in.Name), Description: in.Description}
			if err := h.roles.Create(c, r); err != nil {
				return roleRow{}, err
			}
			return roleRow{ID: r.ID, Name: r.Name, Description: r.Description}, nil
		},
	})
}
