package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGoogle     ProviderType = "google"
	ProviderOpenAI     ProviderType = "openai"
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOllama     ProviderType = "ollama"
	ProviderPerplexity ProviderType = "perplexity"
)

// Config is the top-level portail configuration, corresponding to .portail.yml.
type Config struct {
	Server        ServerConfig        `yaml:"server" koanf:"server"`
	Database      DatabaseConfig      `yaml:"database" koanf:"database"`
	Auth          AuthConfig          `yaml:"auth" koanf:"auth"`
	LLM           LLMConfig           `yaml:"llm" koanf:"llm"`
	Veille        VeilleConfig        `yaml:"veille" koanf:"veille"`
	Documents     DocumentsConfig     `yaml:"documents" koanf:"documents"`
	Notifications NotificationsConfig `yaml:"notifications" koanf:"notifications"`
	Log           LogConfig           `yaml:"log" koanf:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	AllowAll       bool     `yaml:"allow_all" koanf:"allow_all"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver" koanf:"driver"` // sqlite or postgres
	Path   string `yaml:"path" koanf:"path"`     // sqlite file
	DSN    string `yaml:"dsn" koanf:"dsn"`       // postgres URL
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" koanf:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl" koanf:"token_ttl"`
}

// ProviderSpec names a provider, its model and an optional endpoint override.
type ProviderSpec struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	BaseURL  string       `yaml:"base_url,omitempty" koanf:"base_url"`
}

// LLMConfig declares the providers used by the chat panels and the veille.
type LLMConfig struct {
	Primary          ProviderSpec `yaml:"primary" koanf:"primary"`
	Secondary        ProviderSpec `yaml:"secondary" koanf:"secondary"`
	Local            ProviderSpec `yaml:"local" koanf:"local"`
	Search           ProviderSpec `yaml:"search" koanf:"search"`
	RateLimitRPM     int          `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	MaxHistoryTokens int          `yaml:"max_history_tokens" koanf:"max_history_tokens"`
}

// VeilleConfig controls caching of news-watch results.
type VeilleConfig struct {
	Cache         string        `yaml:"cache" koanf:"cache"` // memory or redis
	RedisAddr     string        `yaml:"redis_addr" koanf:"redis_addr"`
	RedisPassword string        `yaml:"redis_password" koanf:"redis_password"`
	RedisDB       int           `yaml:"redis_db" koanf:"redis_db"`
	TTL           time.Duration `yaml:"ttl" koanf:"ttl"`
	Timezone      string        `yaml:"timezone" koanf:"timezone"`
}

// DocumentsConfig describes where downloadable documents come from.
type DocumentsConfig struct {
	Backend   string          `yaml:"backend" koanf:"backend"` // http or s3
	BaseURL   string          `yaml:"base_url" koanf:"base_url"`
	Endpoint  string          `yaml:"endpoint" koanf:"endpoint"`
	Bucket    string          `yaml:"bucket" koanf:"bucket"`
	AccessKey string          `yaml:"access_key" koanf:"access_key"`
	SecretKey string          `yaml:"secret_key" koanf:"secret_key"`
	Secure    bool            `yaml:"secure" koanf:"secure"`
	Catalog   []DocumentEntry `yaml:"catalog" koanf:"catalog"`
}

// DocumentEntry is one downloadable document.
type DocumentEntry struct {
	ID          string `yaml:"id" koanf:"id"`
	Title       string `yaml:"title" koanf:"title"`
	Description string `yaml:"description" koanf:"description"`
	Filename    string `yaml:"filename" koanf:"filename"`
	URL         string `yaml:"url,omitempty" koanf:"url"`
}

// NotificationsConfig lists the webhooks told about new recueil
// submissions and forum threads.
type NotificationsConfig struct {
	Webhooks []string `yaml:"webhooks,omitempty" koanf:"webhooks"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"` // text or json
}
