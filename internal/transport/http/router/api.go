package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewAPIEngine 挂载 /api/v1 下所有已 Register 的 API 模块
func NewAPIEngine(l *zap.Logger, db *gorm.DB, mode string) *gin.Engine {
	r := newEngine("api", mode, l, db)

	api := r.Group("/api/v1")
	MountAllAPI(api)

	return r
}
