package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"note-board/internal/core/auth"
	"note-board/internal/domain"
	mdw "note-board/internal/transport/http/middleware"
)

// NewAdminEngine 管理端 v1，统一要求 Administrators 角色
func NewAdminEngine(l *zap.Logger, db *gorm.DB, jwter *auth.JWTer, mode string) *gin.Engine {
	r := newEngine("admin", mode, l, db)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, domain.RoleAdministrators))
	MountAllAdmin(admin)

	return r
}
