package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "PORTAIL_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PORTAIL_*). Nested keys are separated
// by a double underscore: PORTAIL_SERVER__PORT -> server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// Lists from the file replace the defaults rather than merging into them.
	if k.Exists("documents.catalog") {
		cfg.Documents.Catalog = nil
	}
	if k.Exists("server.allowed_origins") {
		cfg.Server.AllowedOrigins = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderGoogle:     true,
	ProviderOpenAI:     true,
	ProviderAnthropic:  true,
	ProviderOllama:     true,
	ProviderPerplexity: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("invalid database.driver %q: must be sqlite or postgres", c.Database.Driver)
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	if c.LLM.Primary.Provider == "" {
		return fmt.Errorf("llm.primary.provider is required")
	}
	specs := map[string]ProviderSpec{
		"primary":   c.LLM.Primary,
		"secondary": c.LLM.Secondary,
		"local":     c.LLM.Local,
		"search":    c.LLM.Search,
	}
	for name, spec := range specs {
		if spec.Provider == "" {
			continue
		}
		if !validProviders[spec.Provider] {
			return fmt.Errorf("invalid llm.%s.provider %q", name, spec.Provider)
		}
	}
	if c.LLM.RateLimitRPM < 0 {
		return fmt.Errorf("llm.rate_limit_rpm must be non-negative")
	}
	if c.LLM.MaxHistoryTokens < 0 {
		return fmt.Errorf("llm.max_history_tokens must be non-negative")
	}

	switch c.Veille.Cache {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid veille.cache %q: must be memory or redis", c.Veille.Cache)
	}

	switch c.Documents.Backend {
	case "http", "s3":
	default:
		return fmt.Errorf("invalid documents.backend %q: must be http or s3", c.Documents.Backend)
	}
	if c.Documents.Backend == "s3" && (c.Documents.Endpoint == "" || c.Documents.Bucket == "") {
		return fmt.Errorf("documents.endpoint and documents.bucket are required for s3")
	}
	seen := map[string]bool{}
	for _, d := range c.Documents.Catalog {
		if d.ID == "" {
			return fmt.Errorf("documents.catalog entries need an id")
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate document id %q", d.ID)
		}
		seen[d.ID] = true
	}

	for _, u := range c.Notifications.Webhooks {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("invalid notifications webhook %q: must be an http(s) URL", u)
		}
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	case ProviderPerplexity:
		return "PERPLEXITY_API_KEY"
	default:
		return ""
	}
}
