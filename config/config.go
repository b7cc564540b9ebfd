package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port   int    `mapstructure:"port"`
	Debug  bool   `mapstructure:"debug"`
	APIKey string `mapstructure:"api_key"` // empty leaves the API open
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type StorageConfig struct {
	Backend string        `mapstructure:"backend"` // sql | kv
	Key     string        `mapstructure:"key"`     // kv backend state key
	Timeout time.Duration `mapstructure:"timeout"`
}

type TrackerConfig struct {
	MaxPasses            int           `mapstructure:"max_passes"`
	DefaultRequiredLevel int           `mapstructure:"default_required_level"`
	Confirm              string        `mapstructure:"confirm"` // ask | yes | no
	XPCostPerLevel       int           `mapstructure:"xp_cost_per_level"`
	ReminderInterval     time.Duration `mapstructure:"reminder_interval"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// AllowedIPs restricts the API to these addresses or CIDRs. Empty allows all.
	AllowedIPs []string `mapstructure:"allowed_ips"`
}

const (
	BackendSQL = "sql"
	BackendKV  = "kv"

	ConfirmAsk = "ask"
	ConfirmYes = "yes"
	ConfirmNo  = "no"
)

// Load reads config from the given YAML file path. An empty path uses the
// defaults. GJT_-prefixed environment variables override both, e.g.
// GJT_STORAGE_BACKEND=kv.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GJT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.api_key", "")
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/gjtracker.db")
	v.SetDefault("database.mysql_dsn", "")
	v.SetDefault("database.mysql_max_open", 20)
	v.SetDefault("database.mysql_max_idle", 5)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("storage.backend", BackendSQL)
	v.SetDefault("storage.key", "GJTracker")
	v.SetDefault("storage.timeout", "5s")
	v.SetDefault("tracker.max_passes", 0)
	v.SetDefault("tracker.default_required_level", 5)
	v.SetDefault("tracker.confirm", ConfirmAsk)
	v.SetDefault("tracker.xp_cost_per_level", 100)
	v.SetDefault("tracker.reminder_interval", "1h")
	v.SetDefault("security.rate_limit_rps", 50)
	v.SetDefault("security.rate_limit_burst", 100)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and out-of-range tracker settings.
func (c *Config) Validate() error {
	switch c.Database.Mode {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("config: unknown database.mode %q", c.Database.Mode)
	}
	switch c.Storage.Backend {
	case BackendSQL, BackendKV:
	default:
		return fmt.Errorf("config: unknown storage.backend %q", c.Storage.Backend)
	}
	switch c.Tracker.Confirm {
	case ConfirmAsk, ConfirmYes, ConfirmNo:
	default:
		return fmt.Errorf("config: unknown tracker.confirm %q", c.Tracker.Confirm)
	}
	if c.Tracker.DefaultRequiredLevel < 0 || c.Tracker.DefaultRequiredLevel > 7 {
		return fmt.Errorf("config: tracker.default_required_level %d out of range 0..7", c.Tracker.DefaultRequiredLevel)
	}
	if c.Tracker.XPCostPerLevel < 0 {
		return fmt.Errorf("config: tracker.xp_cost_per_level must not be negative")
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("config: storage.key is empty")
	}
	return nil
}
