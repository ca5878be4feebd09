package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/specforge-backend/internal/platform/envutil"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		if strings.TrimSpace(u) == "" {
			d.Duration = 0
			return nil
		}
		dd, err := time.ParseDuration(u)
		if err != nil {
			return err
		}
		d.Duration = dd
		return nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func Default() *Config {
	return &Config{
		Env:     "development",
		Version: "1.0.0",
		HTTP: HTTPConfig{
			Addr:              ":8000",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   1 << 20,
			AllowedOrigins:    []string{"http://localhost:3000"},
			MaxPromptLength:   10000,
		},
		RateLimit: RateLimitConfig{
			Chat:      "10/minute;100/hour",
			Questions: "20/minute;200/hour",
		},
		Database: DatabaseConfig{
			Driver:         "sqlite",
			DSN:            "specforge.db",
			AutoMigrate:    true,
			SeedOnStart:    true,
			ConnectTimeout: Duration{Duration: 5 * time.Second},
			MaxOpenConns:   10,
		},
		Prompts: PromptsConfig{
			CacheTTL:            Duration{Duration: 300 * time.Second},
			CacheMaxEntries:     100,
			InvalidationChannel: "specforge:prompt-cache",
			QuestionSetVersion:  1,
		},
		Provider: ProviderConfig{
			Type:            "mock",
			Model:           "gpt-4o",
			Temperature:     0.7,
			MaxOutputTokens: 4096,
			PingInterval:    Duration{Duration: 10 * time.Second},
			Timeout:         Duration{Duration: 60 * time.Second},
		},
		Otel: OtelConfig{
			ServiceName: "specforge",
		},
	}
}

func Load() (*Config, error) {
	cfg := Default()

	cfgPath := strings.TrimSpace(os.Getenv("SPECFORGE_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.json")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}

	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, err
		}
		// Unmarshal over the defaults so a partial file only overrides what it names.
		if err := json.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg)

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.HTTP.Addr = envutil.String("SPECFORGE_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.MaxPromptLength = envutil.Int("MAX_PROMPT_LENGTH", cfg.HTTP.MaxPromptLength)
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}

	cfg.Auth.APISecretKey = envutil.String("API_SECRET_KEY", cfg.Auth.APISecretKey)

	cfg.RateLimit.Chat = envutil.String("RATE_LIMIT_CHAT", cfg.RateLimit.Chat)
	cfg.RateLimit.Questions = envutil.String("RATE_LIMIT_QUESTIONS", cfg.RateLimit.Questions)
	cfg.RateLimit.RedisAddr = envutil.String("REDIS_ADDR", cfg.RateLimit.RedisAddr)

	cfg.Database.Driver = envutil.String("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envutil.String("DATABASE_DSN", cfg.Database.DSN)
	cfg.Database.SeedOnStart = envutil.Bool("DATABASE_SEED_ON_START", cfg.Database.SeedOnStart)

	cfg.Prompts.CacheTTL.Duration = envutil.Seconds("PROMPT_CACHE_TTL_SECONDS", cfg.Prompts.CacheTTL.Duration)
	cfg.Prompts.CacheMaxEntries = envutil.Int("PROMPT_CACHE_MAX_ENTRIES", cfg.Prompts.CacheMaxEntries)

	cfg.Provider.Type = envutil.String("PROVIDER_TYPE", cfg.Provider.Type)
	cfg.Provider.BaseURL = envutil.String("PROVIDER_BASE_URL", cfg.Provider.BaseURL)
	cfg.Provider.Model = envutil.String("PROVIDER_MODEL", cfg.Provider.Model)
	if v := strings.TrimSpace(os.Getenv("PROVIDER_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
	}

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
}

func normalize(cfg *Config) error {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8000"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}
	if cfg.HTTP.MaxPromptLength <= 0 {
		cfg.HTTP.MaxPromptLength = 10000
	}

	cfg.Auth.APISecretKey = strings.TrimSpace(cfg.Auth.APISecretKey)
	if cfg.Auth.APISecretKey == "" && cfg.IsProduction() {
		return errors.New("auth.api_secret_key is required in production")
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case "postgres", "postgresql":
		cfg.Database.Driver = "postgres"
	case "sqlite", "sqlite3":
		cfg.Database.Driver = "sqlite"
	default:
		return fmt.Errorf("invalid database.driver=%q", cfg.Database.Driver)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}

	if cfg.Prompts.CacheTTL.Duration <= 0 {
		return errors.New("prompts.cache_ttl must be positive")
	}
	if cfg.Prompts.CacheMaxEntries <= 0 {
		return errors.New("prompts.cache_max_entries must be positive")
	}
	if cfg.Prompts.QuestionSetVersion <= 0 {
		cfg.Prompts.QuestionSetVersion = 1
	}

	p := &cfg.Provider
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	switch p.Type {
	case "mock":
	case "openai_http", "oai_http":
		p.Type = "oai_http"
		if p.BaseURL == "" {
			p.BaseURL = "https://api.openai.com"
		}
		if strings.TrimSpace(p.ChatCompletionsPath) == "" {
			p.ChatCompletionsPath = "/v1/chat/completions"
		}
	case "openai", "anthropic":
		if p.APIKey == "" {
			return fmt.Errorf("provider %q requires an api key", p.Type)
		}
	default:
		return fmt.Errorf("invalid provider.type=%q", p.Type)
	}
	if strings.TrimSpace(p.Model) == "" {
		return errors.New("provider.model is required")
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("invalid provider.temperature=%v", p.Temperature)
	}
	if p.MaxOutputTokens <= 0 {
		p.MaxOutputTokens = 4096
	}
	if p.PingInterval.Duration <= 0 {
		p.PingInterval = Duration{Duration: 10 * time.Second}
	}
	if p.Timeout.Duration <= 0 {
		p.Timeout = Duration{Duration: 60 * time.Second}
	}

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
