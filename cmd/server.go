package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/referents-ia/portail/internal/audit"
	"github.com/referents-ia/portail/internal/auth"
	"github.com/referents-ia/portail/internal/charters"
	"github.com/referents-ia/portail/internal/chat"
	"github.com/referents-ia/portail/internal/contacts"
	"github.com/referents-ia/portail/internal/documents"
	"github.com/referents-ia/portail/internal/forum"
	"github.com/referents-ia/portail/internal/notifications"
	"github.com/referents-ia/portail/internal/pages"
	"github.com/referents-ia/portail/internal/profiles"
	"github.com/referents-ia/portail/internal/recueil"
	"github.com/referents-ia/portail/internal/server"
	"github.com/referents-ia/portail/internal/tools"
	"github.com/referents-ia/portail/internal/training"
	"github.com/referents-ia/portail/internal/veille"
)

var (
	serverPort     int
	serverAllowAll bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the portal HTTP API",
	Long:  `Starts the portal REST API with the streaming chat endpoints (SSE and websocket), the veille endpoints and the document downloads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}
		if serverAllowAll {
			cfg.Server.AllowAll = true
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		library, err := pages.Load()
		if err != nil {
			return fmt.Errorf("loading pages: %w", err)
		}

		profileStore := profiles.NewStore(database)
		notifier := notifications.NewDispatcher(cfg.Notifications.Webhooks)
		defer notifier.Wait()
		forumStore := forum.NewStore(database)
		forumStore.SetNotifier(notifier)
		recueilStore := recueil.NewStore(database)
		recueilStore.SetNotifier(notifier)
		llms := createProviders(ctx, cfg.LLM)

		chatService := chat.NewService(chat.NewStore(database), llms.chains(), profileStore, cfg.LLM.MaxHistoryTokens)

		var veilleService *veille.Service
		veilleProvider := llms.search
		if veilleProvider == nil {
			veilleProvider = llms.primary
		}
		if veilleProvider != nil {
			c, closeCache, err := createCache(ctx, cfg.Veille)
			if err != nil {
				return fmt.Errorf("veille cache: %w", err)
			}
			defer closeCache()
			veilleService, err = veille.NewService(veilleProvider, c, cfg.Veille.TTL, cfg.Veille.Timezone)
			if err != nil {
				return fmt.Errorf("veille: %w", err)
			}
		} else {
			log.Warn("veille: no search provider configured, veille endpoints are disabled")
		}

		fetcher, err := createFetcher(cfg.Documents)
		if err != nil {
			return fmt.Errorf("documents: %w", err)
		}

		srv := server.New(server.Config{
			Port:           cfg.Server.Port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowAll:       cfg.Server.AllowAll,
		}, database, server.Deps{
			Auth:      auth.NewService(auth.NewStore(database), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
			Audit:     audit.NewStore(database),
			Profiles:  profileStore,
			Contacts:  contacts.NewStore(database),
			Tools:     tools.NewStore(database),
			Charters:  charters.NewStore(database),
			Training:  training.NewStore(database),
			Forum:     forumStore,
			Recueil:   recueilStore,
			Pages:     library,
			Veille:    veilleService,
			Chat:      chatService,
			Catalog:   documents.NewCatalog(cfg.Documents.Catalog),
			Documents: fetcher,
		})

		go func() {
			<-ctx.Done()
			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("server shutdown")
			}
		}()

		log.WithFields(log.Fields{
			"version":   Version,
			"database":  cfg.Database.Driver,
			"pages":     len(library.List()),
			"documents": len(cfg.Documents.Catalog),
			"panels":    len(chatService.Panels()),
		}).Info("portail server starting")

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "port to listen on (overrides server.port)")
	serverCmd.Flags().BoolVar(&serverAllowAll, "allow-all-origins", false, "accept every CORS origin (development)")
	rootCmd.AddCommand(serverCmd)
}
