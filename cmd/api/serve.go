package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"note-board/internal/core/auth"
	"note-board/internal/core/cache"
	"note-board/internal/core/server"
	"note-board/internal/mail"
	"note-board/internal/repo"
	"note-board/internal/service"
	"note-board/internal/transport/http/handler"
	"note-board/internal/transport/http/router"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, db := app.cfg, app.log, app.db

	if cfg.DB.AutoMigrate {
		if err := migrate(app); err != nil {
			return err
		}
	}
	// 内置角色/账号，必须在监听之前完成
	if cfg.Identity.SeedOnStartup && !skipSeed {
		if err := runSeed(cmd.Context(), app); err != nil {
			log.Error("startup seed failed", zap.Error(err))
			return err
		}
	}

	// JWT
	jwter := &auth.JWTer{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		TTL:        cfg.JWT.AccessTTL(),
		ConfirmTTL: cfg.JWT.ConfirmTTL(),
	}

	// 缓存可选；redis 不可用时 GetOrLoad 直接回源
	var rc *cache.Cache
	if cfg.Redis.Addr != "" {
		rc = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() { _ = rc.Close() }()
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unavailable, memo details served from db", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
	}

	mailer := mail.New(mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Timeout:  cfg.Mail.Timeout(),
		Insecure: cfg.Mail.Insecure,
	}, log)

	users := repo.NewUserRepo(db)
	accounts := service.NewAccountService(users, jwter, mailer, cfg.App.BaseURL, log)
	memos := service.NewMemoService(repo.NewMemoRepo(db), repo.NewCommentRepo(db), rc,
		cfg.Redis.TTL(), log)

	router.Register(handler.NewAccountHandler(accounts, db, jwter))
	router.Register(handler.NewMemoHandler(memos, db, jwter))

	// 路由（用户端）
	r := router.NewAPIEngine(log, db, cfg.App.GinMode())

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r, log,
		cfg.App.HTTP.ReadTimeout(),
		cfg.App.HTTP.WriteTimeout(),
		cfg.App.HTTP.IdleTimeout(),
	)

	baseURL := server.BaseURL(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	// 收到信号或监听失败时优雅关闭
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("user api stopped with error", zap.Error(err))
		return err
	}
	log.Info("user api stopped gracefully")
	return nil
}
