package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string
	AIRateLimit        int

	// Database
	DBDriver     string
	DatabaseURL  string
	SQLiteDBPath string

	// Auth
	JWTSecret   string
	JWTAudience string

	// OpenAI
	OpenAIAPIKey             string
	OpenAIBaseURL            string
	OpenAIChatModel          string
	OpenAITranscriptionModel string
	OpenAITemperature        float64
	OpenAITimeout            time.Duration
	ValidateSuggestedIDs     bool

	// App
	DefaultCurrency string
	Locale          string

	// AMQP
	AMQPURL      string
	AMQPExchange string

	// Logging
	LogLevel  string
	LogFormat string
}

// keys maps every config key to the environment variable that overrides it.
var keys = map[string]string{
	"port":                       "PORT",
	"cors.allowed_origins":       "CORS_ALLOWED_ORIGINS",
	"ratelimit.ai_per_minute":    "AI_RATE_LIMIT",
	"db.driver":                  "DB_DRIVER",
	"db.url":                     "DATABASE_URL",
	"db.sqlite_path":             "SQLITE_DB_PATH",
	"auth.jwt_secret":            "JWT_SECRET",
	"auth.audience":              "JWT_AUDIENCE",
	"openai.api_key":             "OPENAI_API_KEY",
	"openai.base_url":            "OPENAI_BASE_URL",
	"openai.chat_model":          "OPENAI_CHAT_MODEL",
	"openai.transcription_model": "OPENAI_TRANSCRIPTION_MODEL",
	"openai.temperature":         "OPENAI_TEMPERATURE",
	"openai.timeout":             "OPENAI_TIMEOUT",
	"ai.validate_suggested_ids":  "AI_VALIDATE_SUGGESTED_IDS",
	"app.default_currency":       "DEFAULT_CURRENCY",
	"app.locale":                 "APP_LOCALE",
	"amqp.url":                   "AMQP_URL",
	"amqp.exchange":              "AMQP_EXCHANGE",
	"log.level":                  "LOG_LEVEL",
	"log.format":                 "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8081")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("ratelimit.ai_per_minute", 20)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.sqlite_path", "./data/spendly.db")
	v.SetDefault("auth.audience", "authenticated")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.timeout", 30*time.Second)
	v.SetDefault("ai.validate_suggested_ids", true)
	v.SetDefault("app.default_currency", "GTQ")
	v.SetDefault("app.locale", "es")
	v.SetDefault("amqp.exchange", "spendly")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from the environment, the optional config file
// and the defaults, in that order of precedence. An empty configFile means
// no file is read.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range keys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:               v.GetString("port"),
		CORSAllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
		AIRateLimit:        v.GetInt("ratelimit.ai_per_minute"),

		DBDriver:     strings.ToLower(v.GetString("db.driver")),
		DatabaseURL:  v.GetString("db.url"),
		SQLiteDBPath: v.GetString("db.sqlite_path"),

		JWTSecret:   v.GetString("auth.jwt_secret"),
		JWTAudience: v.GetString("auth.audience"),

		OpenAIAPIKey:             v.GetString("openai.api_key"),
		OpenAIBaseURL:            v.GetString("openai.base_url"),
		OpenAIChatModel:          v.GetString("openai.chat_model"),
		OpenAITranscriptionModel: v.GetString("openai.transcription_model"),
		OpenAITemperature:        v.GetFloat64("openai.temperature"),
		OpenAITimeout:            v.GetDuration("openai.timeout"),
		ValidateSuggestedIDs:     v.GetBool("ai.validate_suggested_ids"),

		DefaultCurrency: strings.ToUpper(v.GetString("app.default_currency")),
		Locale:          v.GetString("app.locale"),

		AMQPURL:      v.GetString("amqp.url"),
		AMQPExchange: v.GetString("amqp.exchange"),

		LogLevel:  strings.ToLower(v.GetString("log.level")),
		LogFormat: strings.ToLower(v.GetString("log.format")),
	}
	return cfg, nil
}

// AIEnabled reports whether the model API is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBDriver {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite driver")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres driver")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [sqlite postgres]", c.DBDriver))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	}

	if c.AIEnabled() {
		if u, err := url.Parse(c.OpenAIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid OpenAI base URL '%s'", c.OpenAIBaseURL))
		}
		if c.OpenAITemperature < 0 || c.OpenAITemperature > 2 {
			errors = append(errors, fmt.Sprintf("invalid OpenAI temperature %v: must be between 0 and 2", c.OpenAITemperature))
		}
		if c.OpenAITimeout < time.Second {
			errors = append(errors, fmt.Sprintf("invalid OpenAI timeout %v: must be at least 1 second", c.OpenAITimeout))
		}
	}

	if len(c.DefaultCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s': must be a 3-letter code", c.DefaultCurrency))
	}

	if c.AIRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid AI rate limit %d: must be at least 1", c.AIRateLimit))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
