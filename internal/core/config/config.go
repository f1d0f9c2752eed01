package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

func (h HTTP) ReadTimeout() time.Duration  { return secs(h.ReadTimeoutSec) }
func (h HTTP) WriteTimeout() time.Duration { return secs(h.WriteTimeoutSec) }
func (h HTTP) IdleTimeout() time.Duration  { return secs(h.IdleTimeoutSec) }

type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name    string
	Env     string
	BaseURL string // 邮件里的确认链接前缀
	HTTP    HTTP
	Admin   AdminHTTP
}

// GinMode local/dev 用 debug，其余 release
func (a App) GinMode() string {
	switch strings.ToLower(a.Env) {
	case "local", "dev":
		return "debug"
	case "test":
		return "test"
	}
	return "release"
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

// LogFile 为空文件名时只写 stdout
type LogFile struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	ConfirmTokenTTLH  int
}

func (j JWT) AccessTTL() time.Duration  { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) ConfirmTTL() time.Duration { return time.Duration(j.ConfirmTokenTTLH) * time.Hour }

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSec   int    `mapstructure:"ttlSec"`
}

// TTL memo 详情缓存时间
func (r Redis) TTL() time.Duration { return secs(r.TTLSec) }

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Identity 内置账号初始化
type Identity struct {
	Domain            string // 内置账号邮箱后缀，必填
	BootstrapPassword string
	SeedOnStartup     bool
	SeedTimeoutSec    int
}

func (i Identity) SeedTimeout() time.Duration { return secs(i.SeedTimeoutSec) }

type Mail struct {
	Host       string // 为空时只记日志不发信
	Port       int
	Username   string
	Password   string
	From       string
	Insecure   bool
	TimeoutSec int
}

func (m Mail) Timeout() time.Duration { return secs(m.TimeoutSec) }

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

type Config struct {
	App      App
	Log      Log
	JWT      JWT
	DB       DB
	Redis    Redis `mapstructure:"redis"`
	Identity Identity
	Mail     Mail
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "note-board")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "note-board")
	v.SetDefault("jwt.accessTokenTTLMin", 120)
	v.SetDefault("jwt.confirmTokenTTLH", 48)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 5)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")
	v.SetDefault("redis.ttlSec", 60)
	v.SetDefault("identity.seedOnStartup", true)
	v.SetDefault("identity.seedTimeoutSec", 30)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.timeoutSec", 10)
}

// Read 读取 yaml + APP_ 前缀环境变量
func Read(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := c.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return c
}

// Validate 缺少必填项时启动失败
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Identity.Domain) == "" {
		errs = append(errs, errors.New("identity.domain is required"))
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		errs = append(errs, errors.New("db.dsn is required"))
	}
	switch c.DB.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("db.driver %q is not one of postgres, mysql, sqlite", c.DB.Driver))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		errs = append(errs, errors.New("jwt.accessTokenTTLMin must be positive"))
	}
	if c.Identity.SeedTimeoutSec <= 0 {
		errs = append(errs, errors.New("identity.seedTimeoutSec must be positive"))
	}
	return errors.Join(errs...)
}
