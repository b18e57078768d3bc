package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LLM.Primary.Provider != ProviderGoogle {
		t.Errorf("expected default primary provider %q, got %q", ProviderGoogle, cfg.LLM.Primary.Provider)
	}
	if cfg.LLM.Secondary.Provider != ProviderPerplexity {
		t.Errorf("expected default secondary provider %q, got %q", ProviderPerplexity, cfg.LLM.Secondary.Provider)
	}
	if cfg.LLM.Local.Provider != ProviderOllama {
		t.Errorf("expected local provider ollama, got %q", cfg.LLM.Local.Provider)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if len(cfg.Documents.Catalog) == 0 {
		t.Error("expected a default document catalog")
	}
}

func TestDefaultConfigCatalogIsCopied(t *testing.T) {
	a := DefaultConfig()
	a.Documents.Catalog[0].Title = "changed"
	b := DefaultConfig()
	if b.Documents.Catalog[0].Title == "changed" {
		t.Error("DefaultConfig shares catalog backing array between calls")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.portail.yml")

	original := DefaultConfig()
	original.LLM.Primary = ProviderSpec{Provider: ProviderOpenAI, Model: "gpt-4o"}
	original.Server.Port = 9191
	original.Auth.TokenTTL = 12 * time.Hour
	original.Documents.Catalog = []DocumentEntry{
		{ID: "charte", Title: "Charte", Filename: "charte.pdf", URL: "https://example.org/charte.pdf"},
	}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.LLM.Primary != original.LLM.Primary {
		t.Errorf("primary: got %+v, want %+v", loaded.LLM.Primary, original.LLM.Primary)
	}
	if loaded.Server.Port != 9191 {
		t.Errorf("port: got %d, want 9191", loaded.Server.Port)
	}
	if loaded.Auth.TokenTTL != 12*time.Hour {
		t.Errorf("token_ttl: got %s, want 12h", loaded.Auth.TokenTTL)
	}
	if len(loaded.Documents.Catalog) != 1 || loaded.Documents.Catalog[0].URL != "https://example.org/charte.pdf" {
		t.Errorf("catalog: got %+v", loaded.Documents.Catalog)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.LLM.Primary.Provider != ProviderGoogle {
		t.Errorf("expected default provider, got %q", cfg.LLM.Primary.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("PORTAIL_LLM__PRIMARY__PROVIDER", "anthropic")
	t.Setenv("PORTAIL_SERVER__PORT", "9090")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LLM.Primary.Provider != ProviderAnthropic {
		t.Errorf("env override failed: got %q, want %q", loaded.LLM.Primary.Provider, ProviderAnthropic)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("env override failed: got port %d, want 9090", loaded.Server.Port)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"PORTAIL_SERVER__PORT":           "server.port",
		"PORTAIL_AUTH__JWT_SECRET":       "auth.jwt_secret",
		"PORTAIL_LLM__LOCAL__BASE_URL":   "llm.local.base_url",
		"PORTAIL_VEILLE__REDIS_PASSWORD": "veille.redis_password",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PORTAIL_TEST_DOTENV=bonjour\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORTAIL_TEST_DOTENV", "")
	os.Unsetenv("PORTAIL_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("PORTAIL_TEST_DOTENV"); got != "bonjour" {
		t.Errorf("expected bonjour, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing .env should not fail: %v", err)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty primary", func(c *Config) { c.LLM.Primary.Provider = "" }},
		{"unknown primary", func(c *Config) { c.LLM.Primary.Provider = "mistral-x" }},
		{"unknown secondary", func(c *Config) { c.LLM.Secondary.Provider = "invalid" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"negative rpm", func(c *Config) { c.LLM.RateLimitRPM = -1 }},
		{"unknown cache", func(c *Config) { c.Veille.Cache = "memcached" }},
		{"unknown documents backend", func(c *Config) { c.Documents.Backend = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Documents.Backend = "s3" }},
		{"duplicate document", func(c *Config) {
			c.Documents.Catalog = []DocumentEntry{{ID: "a"}, {ID: "a"}}
		}},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad webhook", func(c *Config) { c.Notifications.Webhooks = []string{"ftp://hooks.local"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestValidateSecondaryOptional(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Secondary = ProviderSpec{}
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty secondary should be valid: %v", err)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderPerplexity, "PERPLEXITY_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestDefaultModel(t *testing.T) {
	if DefaultModel(ProviderPerplexity) != "sonar" {
		t.Errorf("unexpected perplexity default %q", DefaultModel(ProviderPerplexity))
	}
	if DefaultModel("unknown") != "" {
		t.Error("expected empty model for unknown provider")
	}
}
