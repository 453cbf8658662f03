package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=scanorder port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string        `mapstructure:"HTTP_PORT"`
	DatabaseDSN string        `mapstructure:"DATABASE_DSN"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	JWTTTL      time.Duration `mapstructure:"JWT_TTL"`
	CORSOrigins string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel    string        `mapstructure:"LOG_LEVEL"`
	LogFormat   string        `mapstructure:"LOG_FORMAT"` // console | json

	// Menu snapshot cache. Empty address disables caching.
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	MenuCacheTTL  time.Duration `mapstructure:"MENU_CACHE_TTL"`

	// Audit event stream. Empty broker list disables publishing.
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"` // comma separated
	KafkaAuditTopic string `mapstructure:"KAFKA_AUDIT_TOPIC"`

	// Reject order transitions outside the pending->confirmed->preparing->ready->completed flow.
	OrderStrictTransitions bool `mapstructure:"ORDER_STRICT_TRANSITIONS"`
	OrderNumberAttempts    int  `mapstructure:"ORDER_NUMBER_ATTEMPTS"`
}

func (c *Config) Brokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MENU_CACHE_TTL", 5*time.Minute)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_AUDIT_TOPIC", "scanorder.audit")
	v.SetDefault("ORDER_STRICT_TRANSITIONS", false)
	v.SetDefault("ORDER_NUMBER_ATTEMPTS", 5)
}

// Load reads the environment, and envFile when it is not empty.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.warn()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.OrderNumberAttempts < 1 {
		return errors.New("ORDER_NUMBER_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) warn() {
	if c.DatabaseDSN == defaultDSN {
		log.Warn().Msg("DATABASE_DSN uses the default value, set your own Postgres DSN in production")
	}
	if c.CORSOrigins == "http://localhost:5173" {
		log.Warn().Msg("CORS_ALLOWED_ORIGINS uses the default value, set your own domain in production")
	}
}
