package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Broker       BrokerConfig       `mapstructure:"broker"`
	Email        EmailConfig        `mapstructure:"email"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Notification NotificationConfig `mapstructure:"notification"`
	Audit        AuditConfig        `mapstructure:"audit"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	HealthPort      int           `mapstructure:"health_port"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

// BrokerConfig selects the realtime fan-out transport.
type BrokerConfig struct {
	// Driver is one of "redis", "rabbitmq" or "none".
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type EmailConfig struct {
	// Driver is one of "smtp", "ses" or "none".
	Driver      string        `mapstructure:"driver"`
	From        string        `mapstructure:"from"`
	SMTPHost    string        `mapstructure:"smtp_host"`
	SMTPPort    int           `mapstructure:"smtp_port"`
	SMTPUser    string        `mapstructure:"smtp_user"`
	SMTPPass    string        `mapstructure:"smtp_password"`
	SESRegion   string        `mapstructure:"ses_region"`
	MaxFailures int           `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type SchedulerConfig struct {
	Timezone       string `mapstructure:"timezone"`
	TimelineAt     string `mapstructure:"timeline_at"`
	ReminderAt     string `mapstructure:"reminder_at"`
	TimelineEnable bool   `mapstructure:"timeline_enabled"`
	ReminderEnable bool   `mapstructure:"reminder_enabled"`
}

// Location resolves Timezone, falling back to UTC when unset.
func (c SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type NotificationConfig struct {
	TemplateCacheTTL time.Duration `mapstructure:"template_cache_ttl"`
	SystemUserID     string        `mapstructure:"system_user_id"`
	SystemName       string        `mapstructure:"system_name"`
	SystemEmail      string        `mapstructure:"system_email"`
	SeedOnStartup    bool          `mapstructure:"seed_on_startup"`
}

type AuditConfig struct {
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// secrets are read from COMPLIANCE_* environment variables and take
// precedence over the file values.
type secrets struct {
	DBPassword   string `envconfig:"DB_PASSWORD"`
	JWTSecret    string `envconfig:"JWT_SECRET"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	RedisURL     string `envconfig:"REDIS_URL"`
}

const envPrefix = "compliance"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.health_port", 8081)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("broker.driver", "none")
	v.SetDefault("broker.exchange", "compliance.events")

	v.SetDefault("email.driver", "none")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.max_failures", 5)
	v.SetDefault("email.open_timeout", 30*time.Second)

	v.SetDefault("jwt.issuer", "compliance-api")

	v.SetDefault("scheduler.timezone", "America/Sao_Paulo")
	v.SetDefault("scheduler.timeline_at", "00:00")
	v.SetDefault("scheduler.reminder_at", "08:00")
	v.SetDefault("scheduler.timeline_enabled", true)
	v.SetDefault("scheduler.reminder_enabled", true)

	v.SetDefault("notification.template_cache_ttl", 5*time.Minute)
	v.SetDefault("notification.system_name", "Sistema")
	v.SetDefault("notification.seed_on_startup", true)

	v.SetDefault("audit.retention_days", 365)
	v.SetDefault("audit.cleanup_interval", 24*time.Hour)

	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yaml from path (or the default search paths when
// path is empty), then overlays environment variables.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.applySecrets(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applySecrets() error {
	var s secrets
	if err := envconfig.Process(envPrefix, &s); err != nil {
		return fmt.Errorf("failed to process environment secrets: %w", err)
	}
	if s.DBPassword != "" {
		c.Database.Password = s.DBPassword
	}
	if s.JWTSecret != "" {
		c.JWT.Secret = s.JWTSecret
	}
	if s.SMTPPassword != "" {
		c.Email.SMTPPass = s.SMTPPassword
	}
	if s.RedisURL != "" {
		c.Redis.URL = s.RedisURL
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	switch c.Broker.Driver {
	case "none", "redis", "rabbitmq":
	default:
		return fmt.Errorf("unknown broker driver %q", c.Broker.Driver)
	}
	if c.Broker.Driver == "redis" && c.Redis.URL == "" {
		return errors.New("redis url is required for the redis broker")
	}
	if c.Broker.Driver == "rabbitmq" && c.Broker.URL == "" {
		return errors.New("broker url is required for the rabbitmq broker")
	}
	switch c.Email.Driver {
	case "none", "smtp", "ses":
	default:
		return fmt.Errorf("unknown email driver %q", c.Email.Driver)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return err
	}
	return nil
}
