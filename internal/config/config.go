package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀, 如 MAHJONG_NATS_URL 覆盖 nats.url
const EnvPrefix = "MAHJONG"

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Table      TableConfig      `mapstructure:"table"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	Recorder   RecorderConfig   `mapstructure:"recorder"`
	Analyzer   AnalyzerConfig   `mapstructure:"analyzer"`
	HTTP       HTTPConfig       `mapstructure:"http"`
}

type AppConfig struct {
	Name      string `mapstructure:"name"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // json | text
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type RedisConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	PoolSize   int           `mapstructure:"pool_size"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// Addr Redis 地址
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN PostgreSQL 连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

type TableConfig struct {
	ClaimTimeout  time.Duration `mapstructure:"claim_timeout"`
	MaxTables     int           `mapstructure:"max_tables"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	EvictInterval time.Duration `mapstructure:"evict_interval"`
}

type SchedulerConfig struct {
	Workers int           `mapstructure:"workers"`
	Tick    time.Duration `mapstructure:"tick"`
}

type SubscriberConfig struct {
	WorkerCount int `mapstructure:"worker_count"`
	BufferSize  int `mapstructure:"buffer_size"`
}

type RecorderConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type AnalyzerConfig struct {
	CacheMaxCost int64 `mapstructure:"cache_max_cost"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mahjong-engine")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 60)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.session_ttl", 24*time.Hour)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "mahjong")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("table.claim_timeout", 10*time.Second)
	v.SetDefault("table.max_tables", 5000)
	v.SetDefault("table.idle_timeout", 30*time.Minute)
	v.SetDefault("table.evict_interval", time.Minute)

	v.SetDefault("scheduler.workers", 8)
	v.SetDefault("scheduler.tick", 100*time.Millisecond)

	v.SetDefault("subscriber.worker_count", 32)
	v.SetDefault("subscriber.buffer_size", 4096)

	v.SetDefault("recorder.batch_size", 50)
	v.SetDefault("recorder.flush_interval", 2*time.Second)

	v.SetDefault("analyzer.cache_max_cost", 1<<16)

	v.SetDefault("http.addr", ":8081")
}

// Load 从指定路径加载配置. path 为空时只使用默认值和环境变量.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查明显错误的取值
func (c *Config) Validate() error {
	switch c.App.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("app.log_format must be json or text, got %q", c.App.LogFormat)
	}
	if c.Table.ClaimTimeout <= 0 {
		return fmt.Errorf("table.claim_timeout must be positive, got %s", c.Table.ClaimTimeout)
	}
	if c.Scheduler.Tick <= 0 || c.Scheduler.Tick > c.Table.ClaimTimeout {
		return fmt.Errorf("scheduler.tick must be in (0, claim_timeout], got %s", c.Scheduler.Tick)
	}
	return nil
}
