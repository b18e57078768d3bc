package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/referents-ia/portail/internal/cache"
	"github.com/referents-ia/portail/internal/chat"
	"github.com/referents-ia/portail/internal/config"
	"github.com/referents-ia/portail/internal/db"
	"github.com/referents-ia/portail/internal/documents"
	"github.com/referents-ia/portail/internal/llm"
	"github.com/referents-ia/portail/internal/logging"
)

// loadConfig loads the dotenv file and the config, validates it and sets
// up logging.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `portail init` to create a config file", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := logging.Setup(cfg.Log); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	dsn := cfg.Database.Path
	if cfg.Database.Driver == db.DriverPostgres {
		dsn = cfg.Database.DSN
	}
	database, err := db.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// openConfiguredDatabase loads the config and opens its database.
func openConfiguredDatabase() (*db.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openDatabase(cfg)
}

// providers holds the configured LLM providers. A provider that could
// not be created (usually a missing API key) is nil.
type providers struct {
	primary, secondary, local, search llm.Provider
}

func createProvider(ctx context.Context, role string, spec config.ProviderSpec, rpm int) llm.Provider {
	if spec.Provider == "" {
		return nil
	}
	p, err := llm.NewProvider(ctx, string(spec.Provider), spec.Model, spec.BaseURL)
	if err != nil {
		log.WithError(err).Warnf("llm: %s provider %s disabled", role, spec.Provider)
		return nil
	}
	// The local model is not billed, so it is not rate limited.
	if spec.Provider != config.ProviderOllama {
		p = llm.NewRateLimitedProvider(p, rpm)
	}
	log.Debugf("llm: %s provider %s (%s)", role, p.Name(), spec.Model)
	return p
}

func createProviders(ctx context.Context, cfg config.LLMConfig) providers {
	return providers{
		primary:   createProvider(ctx, "primary", cfg.Primary, cfg.RateLimitRPM),
		secondary: createProvider(ctx, "secondary", cfg.Secondary, cfg.RateLimitRPM),
		local:     createProvider(ctx, "local", cfg.Local, cfg.RateLimitRPM),
		search:    createProvider(ctx, "search", cfg.Search, cfg.RateLimitRPM),
	}
}

// chains builds the fallback chain of every chat panel. The assistant
// uses the generative API backed by the second API, the veille panel
// searches the web first, and the sovereign panel runs on the local
// model with the generative API as fallback. A panel without a primary
// provider is left out.
func (p providers) chains() map[chat.Panel]chat.Chain {
	out := map[chat.Panel]chat.Chain{}
	add := func(panel chat.Panel, primary, secondary llm.Provider) {
		if primary == nil {
			primary, secondary = secondary, nil
		}
		if primary == nil {
			log.Warnf("chat: panel %s has no provider and is disabled", panel)
			return
		}
		out[panel] = chat.Chain{Primary: llm.AsStreamer(primary), Secondary: llm.AsStreamer(secondary)}
	}
	add(chat.PanelAssistant, p.primary, p.secondary)
	add(chat.PanelVeille, p.search, p.primary)
	add(chat.PanelSouverain, p.local, p.primary)
	return out
}

func createCache(ctx context.Context, cfg config.VeilleConfig) (cache.Cache, func(), error) {
	if cfg.Cache != "redis" {
		return cache.NewMemory(), func() {}, nil
	}
	r, err := cache.NewRedis(ctx, cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   "portail:",
	})
	if err != nil {
		return nil, nil, err
	}
	return r, func() { r.Close() }, nil
}

func createFetcher(cfg config.DocumentsConfig) (documents.Fetcher, error) {
	if cfg.Backend == "s3" {
		return documents.NewObjectFetcher(documents.ObjectStoreOptions{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Secure:    cfg.Secure,
		})
	}
	return documents.NewHTTPFetcher(cfg.BaseURL), nil
}
