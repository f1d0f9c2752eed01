package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"note-board/internal/core/auth"
	"note-board/internal/domain"
	"note-board/internal/service"
	httpez "note-board/internal/transport/http/ez"
	mdw "note-board/internal/transport/http/middleware"
)

// AccountHandler 注册 / 确认邮箱 / 登录 / 当前用户
type AccountHandler struct {
	svc *service.AccountService
	db  *gorm.DB
	jwt *auth.JWTer
}

func NewAccountHandler(svc *service.AccountService, db *gorm.DB, j *auth.JWTer) *AccountHandler {
	return &AccountHandler{svc: svc, db: db, jwt: j}
}

func (h *AccountHandler) Priority() int { return 10 }

type userOut struct {
	ID             string   `json:"id"`
	UserName       string   `json:"userName"`
	Email          string   `json:"email"`
	EmailConfirmed bool     `json:"emailConfirmed"`
	Address        string   `json:"address,omitempty"`
	Roles          []string `json:"roles"`
}

func toUserOut(u *domain.User) userOut {
	return userOut{
		ID: u.ID, UserName: u.UserName, Email: u.Email,
		EmailConfirmed: u.EmailConfirmed, Address: u.Address, Roles: u.Roles,
	}
}

func (h *AccountHandler) MountAPI(api *gin.RouterGroup) {
	ezPublic := httpez.New(api)

	type registerIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
		UserName string `json:"userName" binding:"omitempty,max=64"`
		Address  string `json:"address"  binding:"omitempty,max=255"`
	}
	httpez.RegisterAction(ezPublic, h.db, httpez.Action[registerIn, userOut]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *registerIn) (userOut, error) {
			u, err := h.svc.Register(c, service.RegisterInput{
				Email: in.Email, Password: in.Password, UserName: in.UserName, Address: in.Address,
			})
			if err != nil {
				return userOut{}, err
			}
			return toUserOut(u), nil
		},
	})

	type confirmIn struct {
		Token string `form:"token" binding:"required"`
	}
	httpez.RegisterAction(ezPublic, h.db, httpez.Action[confirmIn, gin.H]{
		Method: http.MethodGet,
		Path:   "/auth/confirm",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *confirmIn) (gin.H, error) {
			if err := h.svc.ConfirmEmail(c, in.Token); err != nil {
				return nil, err
			}
			return gin.H{"confirmed": true}, nil
		},
	})

	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	type loginOut struct {
		Token string  `json:"token"`
		User  userOut `json:"user"`
	}
	httpez.RegisterAction(ezPublic, h.db, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *loginIn) (loginOut, error) {
			tok, u, err := h.svc.Login(c, strings.TrimSpace(in.Email), in.Password)
			if err != nil {
				return loginOut{}, err
			}
			return loginOut{Token: tok, User: toUserOut(u)}, nil
		},
	})

	// /me 必须挂在带 AuthJWT 的分组上才能拿到 userId
	ezAuth := httpez.New(api.Group("", mdw.AuthJWT(h.jwt, "")))
	httpez.RegisterAction(ezAuth, h.db, httpez.Action[struct{}, userOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (userOut, error) {
			u, err := h.svc.Me(c, c.GetString("userId"))
			if err != nil {
				return userOut{}, err
			}
			return toUserOut(u), nil
		},
	})
}
