package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"note-board/internal/core/database"
	"note-board/internal/core/server"
	mdw "note-board/internal/transport/http/middleware"
	resp "note-board/internal/transport/http/response"
)

// newEngine 两个入口共用的中间件链 + /health + /metrics
func newEngine(name, mode string, l *zap.Logger, db *gorm.DB) *gin.Engine {
	r := server.NewRouter(l, server.Options{Name: name, Mode: mode})

	r.Use(
		mdw.RequestID(),
		mdw.Recovery(l),
		mdw.AccessLog(l),
		mdw.Metrics(),
		mdw.RateLimit(200, 400),
		mdw.RateLimitPerIP(20, 40, 10*time.Minute),
		mdw.Timeout(10*time.Second),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
	)

	// 健康检查：连带数据库
	r.GET("/health", func(c *gin.Context) {
		if err := database.Ping(c, db); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, resp.Error(resp.CodeServerError, "database unavailable"))
			return
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1}))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
