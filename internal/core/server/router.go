package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"note-board/internal/core/logger"
)

type Options struct {
	Name string
	Mode string // gin 模式：debug / release / test
}

// NewRouter gin 自身输出（路由表、debug 警告）统一转到 zap
func NewRouter(l *zap.Logger, opt Options) *gin.Engine {
	if opt.Mode != "" {
		gin.SetMode(opt.Mode)
	}
	named := l.Named(opt.Name)
	gin.DefaultWriter = logger.ToWriter(named, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(named, zapcore.ErrorLevel)

	r := gin.New()
	r.Use(cors.Default())
	return r
}

// StartHTTP 阻塞直到 Shutdown；正常关闭返回 nil
func StartHTTP(srv *http.Server, l *zap.Logger) error {
	l.Info("http starting", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run 监听直到 ctx 结束或监听失败，然后在 grace 内优雅关闭
func Run(ctx context.Context, srv *http.Server, l *zap.Logger, grace time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return StartHTTP(srv, l) })
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func BuildServer(addr string, handler http.Handler, l *zap.Logger, rt, wt, it time.Duration) *http.Server {
	errLog, _ := logger.ToStdLogger(l, zapcore.WarnLevel) // 级别合法时不会出错
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20, // 1MB
		ErrorLog:       errLog,
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }

// BaseURL 启动日志用；监听全部网卡时给出本机地址
func BaseURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return "http://" + Addr(host, port)
}
