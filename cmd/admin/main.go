package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"note-board/internal/core/auth"
	"note-board/internal/core/config"
	"note-board/internal/core/database"
	"note-board/internal/core/logger"
	"note-board/internal/core/server"
	"note-board/internal/repo"
	"note-board/internal/transport/http/handler"
	"note-board/internal/transport/http/router"
)

// 后台端只读写身份数据；建表和内置账号由 note-board 主程序负责
func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))

	log, flush := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
		Service: "note-board-admin",
		File: logger.FileRotate{
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	defer flush()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	if err := run(cfg, log); err != nil {
		log.Error("admin api exited", zap.Error(err))
		flush()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             log,
	})
	if err != nil {
		return err
	}
	pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = database.Ping(pctx, db)
	cancel()
	if err != nil {
		return err
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.AccessTTL(),
	}
	router.Register(handler.NewAdminHandler(repo.NewUserRepo(db), repo.NewRoleRepo(db), db))
	r := router.NewAdminEngine(log, db, jwter, cfg.App.GinMode())

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, log, 5*time.Second, 10*time.Second, 60*time.Second)
	baseURL := server.BaseURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		return err
	}
	log.Info("admin api stopped gracefully")
	return nil
}
