package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `json:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes"`

	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`

	// MaxPromptLength caps the free-form prompt a caller may send, in characters.
	MaxPromptLength int `json:"max_prompt_length,omitempty"`
}

type AuthConfig struct {
	// APISecretKey is the static shared secret expected in the X-API-Key header.
	APISecretKey string `json:"api_secret_key"`
}

type RateLimitConfig struct {
	Chat      string `json:"chat"`
	Questions string `json:"questions"`

	// RedisAddr switches the limiter to a shared Redis fixed-window backend.
	RedisAddr string `json:"redis_addr,omitempty"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`

	AutoMigrate bool `json:"auto_migrate,omitempty"`

	// SeedOnStart upserts the embedded (or SeedFile) prompt fragments at boot.
	SeedOnStart bool   `json:"seed_on_start,omitempty"`
	SeedFile    string `json:"seed_file,omitempty"`

	ConnectTimeout Duration `json:"connect_timeout,omitempty"`
	MaxOpenConns   int      `json:"max_open_conns,omitempty"`
}

type PromptsConfig struct {
	CacheTTL        Duration `json:"cache_ttl"`
	CacheMaxEntries int      `json:"cache_max_entries"`

	// InvalidationChannel is the Redis pub/sub channel used to fan out cache clears.
	InvalidationChannel string `json:"invalidation_channel,omitempty"`

	QuestionSetVersion int `json:"question_set_version,omitempty"`
}

type ProviderConfig struct {
	// Type is one of "oai_http", "openai", "anthropic", "mock".
	Type string `json:"type"`

	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"`

	// ChatCompletionsPath is only used by the oai_http engine.
	ChatCompletionsPath string `json:"chat_completions_path,omitempty"`

	Model           string   `json:"model"`
	Temperature     float64  `json:"temperature"`
	MaxOutputTokens int      `json:"max_output_tokens"`
	PingInterval    Duration `json:"ping_interval"`

	// Timeout bounds non-streaming calls. Streaming relies on client cancellation.
	Timeout Duration `json:"timeout,omitempty"`
}

type OtelConfig struct {
	Enabled     bool   `json:"enabled,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
}

type Config struct {
	Env       string          `json:"env"`
	Version   string          `json:"version,omitempty"`
	HTTP      HTTPConfig      `json:"http"`
	Auth      AuthConfig      `json:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Database  DatabaseConfig  `json:"database"`
	Prompts   PromptsConfig   `json:"prompts"`
	Provider  ProviderConfig  `json:"provider"`
	Otel      OtelConfig      `json:"otel"`
}

func (c *Config) IsProduction() bool {
	return c != nil && (c.Env == "production" || c.Env == "prod")
}
