package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	oauthadapter "github.com/ericfisherdev/dynabridge/internal/adapter/driven/oauth"
	odataadapter "github.com/ericfisherdev/dynabridge/internal/adapter/driven/odata"
	httphandler "github.com/ericfisherdev/dynabridge/internal/adapter/driving/http"
	"github.com/ericfisherdev/dynabridge/internal/application"
	"github.com/ericfisherdev/dynabridge/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"resource_url", cfg.ResourceURL,
		"refresh_margin", cfg.RefreshMargin,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire driven adapters: token exchange and the OData client.
	exchanger := oauthadapter.NewExchanger(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, cfg.ResourceURL)
	credentials := application.NewCredentialCache(exchanger, cfg.RefreshMargin)
	dataService := odataadapter.NewClient(cfg.ResourceURL, credentials, cfg.HTTPTimeout)

	// 4. Create the application-layer caches and query pipeline.
	catalog := application.NewEntityCatalog(dataService, slog.Default())
	schemas := application.NewSchemaRegistry(dataService, slog.Default())
	querySvc := application.NewQueryService(catalog, schemas, dataService, slog.Default(), cfg.QueryTop)

	// 5. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(catalog, schemas, querySvc, slog.Default())
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Serve until the context is canceled, then shut down gracefully.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
