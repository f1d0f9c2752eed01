package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"note-board/internal/core/config"
	"note-board/internal/core/database"
	"note-board/internal/core/logger"
	"note-board/internal/feature/identity"
	"note-board/internal/feature/memo"
	"note-board/internal/repo"
	"note-board/internal/seed"
)

var (
	cfgFile  string
	skipSeed bool

	// 由 PersistentPreRunE 填充，所有子命令共用
	app *appContext
)

type appContext struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	cleanup func()
}

var rootCmd = &cobra.Command{
	Use:          "note-board",
	Short:        "note-board user API",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		a, err := buildApp(cfgFile)
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	RunE: runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and exit",
	RunE: func(*cobra.Command, []string) error {
		return migrate(app)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Ensure built-in roles and accounts exist and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if app.cfg.DB.AutoMigrate {
			if err := migrate(app); err != nil {
				return err
			}
		}
		return runSeed(cmd.Context(), app)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default $CONFIG_PATH or ./configs/config.local.yaml)")
	rootCmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "do not ensure built-in accounts before serving")
	rootCmd.AddCommand(migrateCmd, seedCmd)
}

func buildApp(path string) (*appContext, error) {
	cfg, err := config.Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, closeLog := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
		Service: "note-board",
		File: logger.FileRotate{
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	undoStd := logger.RedirectStdLog(log, zapcore.InfoLevel)

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
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = database.Ping(ctx, db)
		cancel()
	}
	if err != nil {
		log.Error("database unavailable", zap.String("driver", cfg.DB.Driver), zap.Error(err))
		undoStd()
		closeLog()
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	return &appContext{
		cfg: cfg,
		log: log,
		db:  db,
		cleanup: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			undoStd()
			closeLog()
		},
	}, nil
}

func migrate(a *appContext) error {
	if err := database.Migrate(a.db, append(identity.Models(), memo.Models()...)...); err != nil {
		return err
	}
	a.log.Info("automigrate done")
	return nil
}

// runSeed 失败时已写入的部分保留，下次启动补齐
func runSeed(ctx context.Context, a *appContext) error {
	s, err := seed.New(repo.NewRoleRepo(a.db), repo.NewUserRepo(a.db), seed.Options{
		Domain:   a.cfg.Identity.Domain,
		Password: a.cfg.Identity.BootstrapPassword,
	}, a.log)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Identity.SeedTimeout())
	defer cancel()
	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
