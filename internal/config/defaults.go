package config

import "time"

// defaultModels maps each provider to the model used when none is configured.
var defaultModels = map[ProviderType]string{
	ProviderGoogle:     "gemini-2.5-flash",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderAnthropic:  "claude-sonnet-4-5-20250929",
	ProviderOllama:     "llama3.1",
	ProviderPerplexity: "sonar",
}

// DefaultModel returns the default model for a provider, or "" if unknown.
func DefaultModel(p ProviderType) string {
	return defaultModels[p]
}

// defaultCatalog lists the documents every portal ships with. Files are
// resolved against Documents.BaseURL (http backend) or the bucket (s3 backend).
var defaultCatalog = []DocumentEntry{
	{
		ID:          "guide-referent",
		Title:       "Guide du Référent IA",
		Description: "Rôle, missions et premiers pas du Référent IA.",
		Filename:    "guide-referent-ia.pdf",
	},
	{
		ID:          "fiche-missions",
		Title:       "Fiche missions",
		Description: "Synthèse des missions confiées au Référent IA.",
		Filename:    "fiche-missions-referent-ia.pdf",
	},
	{
		ID:          "modele-recueil",
		Title:       "Modèle de recueil de besoin",
		Description: "Trame vierge pour conduire un entretien de recueil de besoin.",
		Filename:    "modele-recueil-de-besoin.docx",
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	catalog := make([]DocumentEntry, len(defaultCatalog))
	copy(catalog, defaultCatalog)

	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "data/portail.db",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		LLM: LLMConfig{
			Primary:          ProviderSpec{Provider: ProviderGoogle, Model: DefaultModel(ProviderGoogle)},
			Secondary:        ProviderSpec{Provider: ProviderPerplexity, Model: DefaultModel(ProviderPerplexity)},
			Local:            ProviderSpec{Provider: ProviderOllama, Model: DefaultModel(ProviderOllama), BaseURL: "http://localhost:11434"},
			Search:           ProviderSpec{Provider: ProviderPerplexity, Model: DefaultModel(ProviderPerplexity)},
			RateLimitRPM:     60,
			MaxHistoryTokens: 8000,
		},
		Veille: VeilleConfig{
			Cache:     "memory",
			RedisAddr: "localhost:6379",
			TTL:       6 * time.Hour,
			Timezone:  "Europe/Paris",
		},
		Documents: DocumentsConfig{
			Backend: "http",
			BaseURL: "http://localhost:8081/documents/",
			Catalog: catalog,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
