package config

import (
	"strings"
	"time"

	"SupportChat/tools/errs"
	"SupportChat/tools/security"

	"github.com/caarlos0/env/v11"
)

// AppConfig 进程级配置，启动时从环境变量加载一次
type AppConfig struct {
	Port   int    `env:"PORT" envDefault:"8000"`
	NodeId int64  `env:"NODE_ID" envDefault:"1"` // 雪花ID节点
	Name   string `env:"APP_NAME" envDefault:"support-chat"`

	JwtSecret string `env:"JWT_SECRET"`
	JwtAlg    string `env:"JWT_ALG" envDefault:"HS256"`

	MongoUri         string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase    string `env:"MONGO_DATABASE" envDefault:"dlnv-db"`
	MongoMaxPoolSize int    `env:"MONGO_MAX_POOL_SIZE" envDefault:"20"`

	RedisURL      string `env:"REDIS_URL" envDefault:"redis://127.0.0.1:6379/0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"0"`

	BatchKey        string `env:"BATCH_KEY" envDefault:"batchMessages"`
	FlushBatchSize  int    `env:"FLUSH_BATCH_SIZE" envDefault:"20"`
	FlushIntervalMs int    `env:"FLUSH_INTERVAL_MS" envDefault:"10000"`

	CorsOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	AdminDisplayName  string `env:"ADMIN_DISPLAY_NAME" envDefault:"Daily Trades Admin"`
	DefaultGroupTitle string `env:"DEFAULT_GROUP_TITLE" envDefault:"Support Group"`

	NatsURL       string `env:"NATS_URL"` // 为空则通知只在本进程内投递
	NotifySubject string `env:"NOTIFY_SUBJECT" envDefault:"dlnv.notify"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	ChatWsPath    string `env:"CHAT_WS_PATH" envDefault:"/dlnv-chat/support/ws"`
	NotifyWsPath  string `env:"NOTIFY_WS_PATH" envDefault:"/dlnv-chat/notify/ws"`
	HistoryPath   string `env:"HISTORY_PATH" envDefault:"/dlnv-chat/support/messages"`
	GroupInfoPath string `env:"GROUP_INFO_PATH" envDefault:"/dlnv-chat/support/groupInfo"`
}

var Global AppConfig

// Load 解析环境变量并校验，成功后写入 Global
func Load() (AppConfig, error) {
	cfg, err := Parse(env.Options{})
	if err != nil {
		return cfg, err
	}
	Global = cfg
	return cfg, nil
}

// Parse 允许注入 Environment，测试用
func Parse(opts env.Options) (AppConfig, error) {
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, errs.WrapMsg(err, "parse env")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	origins := c.CorsOrigins[:0]
	for _, o := range c.CorsOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CorsOrigins = origins
}

func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.JwtSecret) == "" {
		return errs.New("JWT_SECRET is required")
	}
	if err := security.ValidateAlg(c.JwtAlg); err != nil {
		return errs.WrapMsg(err, "JWT_ALG")
	}
	if c.FlushBatchSize <= 0 {
		return errs.New("FLUSH_BATCH_SIZE must be positive", "value", c.FlushBatchSize)
	}
	if c.FlushIntervalMs <= 0 {
		return errs.New("FLUSH_INTERVAL_MS must be positive", "value", c.FlushIntervalMs)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errs.New("PORT out of range", "value", c.Port)
	}
	if c.BatchKey == "" {
		return errs.New("BATCH_KEY is required")
	}
	return nil
}

func (c AppConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}

func (c AppConfig) JwtOptions() security.Options {
	opts := security.DefaultOptions([]byte(c.JwtSecret))
	opts.Alg = c.JwtAlg
	return opts
}
