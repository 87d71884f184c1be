package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/storefront/internal/log"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	LogPath   string `mapstructure:"log_path"   json:"log_path"`
	SecretKey string `mapstructure:"secret_key" json:"-"`
	Port      int    `mapstructure:"port"       json:"port"`
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

type Profile struct {
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"  json:"timeout"`
}

type Breaker struct {
	MaxRequests  uint32        `mapstructure:"max_requests"  json:"max_requests"`
	MinRequests  uint32        `mapstructure:"min_requests"  json:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio" json:"failure_ratio"`
	Interval     time.Duration `mapstructure:"interval"      json:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"       json:"timeout"`
}

type Mirror struct {
	Driver    string        `mapstructure:"driver"     json:"driver"`
	KeyPrefix string        `mapstructure:"key_prefix" json:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"        json:"ttl"`
}

// Session bounds the in-process session registry. IdleTTL should not exceed
// Mirror.TTL or evicted sessions come back empty.
type Session struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"       json:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" json:"sweep_interval"`
	MaxQuantity   int           `mapstructure:"max_quantity"   json:"max_quantity"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Profile     `mapstructure:"profile"     json:"profile"`
	Breaker     `mapstructure:"breaker"     json:"breaker"`
	Mirror      `mapstructure:"mirror"      json:"mirror"`
	Session     `mapstructure:"session"     json:"session"`
}

const (
	MirrorDriverRedis  = "redis"
	MirrorDriverMemory = "memory"
)

var (
	once   sync.Once
	config *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.log_path", "/var/log/storefront.log")
	v.SetDefault("profile.timeout", 10*time.Second)
	v.SetDefault("breaker.max_requests", 5)
	v.SetDefault("breaker.min_requests", 5)
	v.SetDefault("breaker.failure_ratio", 0.5)
	v.SetDefault("breaker.interval", 10*time.Second)
	v.SetDefault("breaker.timeout", 30*time.Second)
	v.SetDefault("mirror.driver", MirrorDriverRedis)
	v.SetDefault("mirror.key_prefix", "storefront:session")
	v.SetDefault("mirror.ttl", 30*24*time.Hour)
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("session.max_quantity", 99)
}

// Load reads <dir>/<filename>.yaml; environment variables such as PROFILE_BASE_URL override it.
func Load(dir string, filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName(filename)
	v.AddConfigPath(dir)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed reading config with error=%w", err)
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed unmarshaling config with error=%w", err)
	}
	return &cfg, nil
}

func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		logger.Info().Msg("reading config")
		cfg, err := Load("./env", filename)
		if err != nil {
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = cfg
		logger = logger.With().Any(log.KeyConfig, cfg).Logger()
		logger.Info().Msg("read config")
	})
	return config
}
