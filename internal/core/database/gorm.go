package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/glebarez/sqlite"
	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
)

type Opts struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
	Logger             *zap.Logger
}

var (
	ErrUnsupportedDriver = errors.New("database: unsupported driver")
	ErrMissingDSN        = errors.New("database: dsn is required")
)

func NewGorm(o Opts) (*gorm.DB, error) {
	if strings.TrimSpace(o.DSN) == "" {
		return nil, ErrMissingDSN
	}
	var dial gorm.Dialector
	switch o.Driver {
	case "postgres":
		dial = postgres.Open(o.DSN)
	case "mysql":
		dsn, err := mysqlDSN(o.DSN, o.Username, o.Password)
		if err != nil {
			return nil, err
		}
		if o.Logger != nil {
			o.Logger.Info("final mysql dsn", zap.String("dsn", maskDSN(dsn)))
		}
		dial = mysql.Open(dsn)
	case "sqlite":
		// 本地开发/测试用，":memory:" 需配合 MaxOpenConns=1
		dial = sqlite.Open(o.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}
	lvl := logger.Warn
	switch o.LogLevel {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}
	gl := logger.Default.LogMode(lvl)
	if o.Logger != nil {
		// SQL 日志统一走 zap
		gl = logger.New(zap.NewStdLog(o.Logger.Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
		})
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         gl,
		TranslateError: true, // 唯一冲突统一为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	db = db.
		Session(&gorm.Session{
			PrepareStmt:            true, // 预编译缓存，提高 QPS
			CreateBatchSize:        200,  // 批量写
			SkipDefaultTransaction: true, // 只在需要时手动开 Tx
		})
	return db, nil
}

// Ping 启动时探活
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate 建表；种子数据之前执行
func Migrate(db *gorm.DB, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func maskDSN(dsn string) string {
	if at := strings.Index(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon > 0 {
			return dsn[:colon+1] + "****" + dsn[at:]
		}
	}
	return dsn
}

// mysqlDSN 接受 go-sql-driver DSN 或 mysql:// / jdbc:mysql:// URL，
// 统一转成驱动格式；user/pass 非空时覆盖
func mysqlDSN(input, user, pass string) (string, error) {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	var cfg *mysqldrv.Config
	if strings.HasPrefix(in, "mysql://") {
		u, err := url.Parse(in)
		if err != nil {
			return "", fmt.Errorf("database: mysql url: %w", err)
		}
		cfg, err = configFromURL(u)
		if err != nil {
			return "", err
		}
	} else {
		var err error
		if cfg, err = mysqldrv.ParseDSN(in); err != nil {
			return "", fmt.Errorf("database: mysql dsn: %w", err)
		}
	}
	if user != "" {
		cfg.User = user
	}
	if pass != "" {
		cfg.Passwd = pass
	}
	cfg.ParseTime = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok && !strings.Contains(in, "charset=") {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}

// configFromURL 处理 Navicat/JDBC 风格的参数
func configFromURL(u *url.URL) (*mysqldrv.Config, error) {
	cfg := mysqldrv.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.Params = map[string]string{}
	for k, vs := range u.Query() {
		v := vs[0]
		switch k {
		case "user":
			cfg.User = v
		case "password":
			cfg.Passwd = v
		case "characterEncoding", "charset":
			cfg.Params["charset"] = v
		case "useSSL":
			switch strings.ToLower(v) {
			case "true", "1":
				cfg.TLSConfig = "true"
			case "skip-verify", "preferred":
				cfg.TLSConfig = strings.ToLower(v)
			default:
				cfg.TLSConfig = "false"
			}
		case "serverTimezone", "loc":
			loc, err := time.LoadLocation(v)
			if err != nil {
				return nil, fmt.Errorf("database: mysql timezone %q: %w", v, err)
			}
			cfg.Loc = loc
		case "useUnicode", "zeroDateTimeBehavior", "parseTime":
			// JDBC 专用或固定开启
		default:
			cfg.Params[k] = v
		}
	}
	return cfg, nil
}
