package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"spendly/internal/auth"
	"spendly/internal/cache"
	"spendly/internal/cli"
	apphttp "spendly/internal/http"
	applog "spendly/internal/log"
	"spendly/internal/services"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	store, err := cli.OpenStore(cmd.Context(), appCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	verifier, err := auth.NewVerifier(appCfg.JWTSecret, appCfg.JWTAudience)
	if err != nil {
		return err
	}

	taxStore := cache.NewTaxonomy(store, cache.DefaultTaxonomyConfig())
	caches := cache.NewManager()
	caches.Register(taxStore)
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	assistant, err := newAssistant(appCfg, taxStore, store)
	if err != nil {
		return err
	}
	events, closeEvents := newEventPublisher(appCfg)
	defer closeEvents()

	taxonomy := services.NewTaxonomyService(taxStore)
	srv := apphttp.NewServer(apphttp.Config{
		Addr:                ":" + appCfg.Port,
		Verifier:            verifier,
		AllowedOrigins:      appCfg.CORSAllowedOrigins,
		AIRequestsPerMinute: appCfg.AIRateLimit,
		DefaultLocale:       appCfg.Locale,
		Logger:              logger,
		Ready:               store,
	}, apphttp.Services{
		Expenses:   services.NewExpenseService(store, events),
		Taxonomy:   taxonomy,
		Onboarding: services.NewOnboardingService(taxonomy, store),
		Dashboard:  services.NewDashboardService(store),
		Profiles:   services.NewProfileService(store, store),
		Assistant:  assistant,
	})

	_, done := cli.GracefulShutdown(cmd.Context(), logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting spendly server", applog.FieldOperation, applog.OpStartup,
		"port", appCfg.Port, "db_driver", appCfg.DBDriver, "ai_enabled", appCfg.AIEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	logger.Info("Server stopped gracefully")
	return nil
}
