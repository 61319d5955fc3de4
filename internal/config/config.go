package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Submission scoping modes used by the attempt-count check.
const (
	SubmissionScopeSubmitter = "submitter"
	SubmissionScopeOwner     = "owner"
)

// Notifier backends.
const (
	NotifierNATS  = "nats"
	NotifierRedis = "redis"
	NotifierKafka = "kafka"
	NotifierLog   = "log"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	LogLevel               string
	DatabaseDriver         string
	DatabaseURL            string
	RedisURL               string
	NotifierDriver         string
	NotifierTopic          string
	NATSURL                string
	KafkaBrokers           []string
	UsersCSVPath           string
	RequestTimeout         time.Duration
	SubmissionScope        string
	SubmissionRateLimit    int
	SubmissionRateWindow   time.Duration
	SubmissionLockTTL      time.Duration
	EnforceUpdateOwnership bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("WEBAPP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Assignments API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("notifier.driver", NotifierLog)
	v.SetDefault("notifier.topic", "submissions")
	v.SetDefault("users.csv_path", "./user.csv")
	v.SetDefault("request.timeout", "5s")
	v.SetDefault("submission.scope", SubmissionScopeSubmitter)
	v.SetDefault("submission.rate_limit", 30)
	v.SetDefault("submission.rate_window", "1m")
	v.SetDefault("submission.lock_ttl", "5s")
	v.SetDefault("assignment.enforce_update_owner", true)

	requestTimeout, err := parseDuration(v, "request.timeout", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "submission.rate_window", time.Minute)
	if err != nil {
		return Config{}, err
	}
	lockTTL, err := parseDuration(v, "submission.lock_ttl", 5*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DatabaseDriver:         strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NotifierDriver:         strings.ToLower(v.GetString("notifier.driver")),
		NotifierTopic:          v.GetString("notifier.topic"),
		NATSURL:                v.GetString("nats.url"),
		KafkaBrokers:           splitList(v.GetString("kafka.brokers")),
		UsersCSVPath:           v.GetString("users.csv_path"),
		RequestTimeout:         requestTimeout,
		SubmissionScope:        strings.ToLower(v.GetString("submission.scope")),
		SubmissionRateLimit:    v.GetInt("submission.rate_limit"),
		SubmissionRateWindow:   rateWindow,
		SubmissionLockTTL:      lockTTL,
		EnforceUpdateOwnership: v.GetBool("assignment.enforce_update_owner"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	switch cfg.SubmissionScope {
	case SubmissionScopeSubmitter, SubmissionScopeOwner:
	default:
		return Config{}, fmt.Errorf("unsupported submission scope %q", cfg.SubmissionScope)
	}

	switch cfg.NotifierDriver {
	case NotifierNATS:
		if cfg.NATSURL == "" {
			return Config{}, fmt.Errorf("nats url must be provided for the nats notifier")
		}
	case NotifierRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis url must be provided for the redis notifier")
		}
	case NotifierKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return Config{}, fmt.Errorf("kafka brokers must be provided for the kafka notifier")
		}
	case NotifierLog:
	default:
		return Config{}, fmt.Errorf("unsupported notifier driver %q", cfg.NotifierDriver)
	}

	if cfg.NotifierTopic == "" {
		return Config{}, fmt.Errorf("notifier topic must be provided")
	}

	if cfg.SubmissionRateLimit <= 0 {
		cfg.SubmissionRateLimit = 30
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed <= 0 {
		return fallback, nil
	}

	return parsed, nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
