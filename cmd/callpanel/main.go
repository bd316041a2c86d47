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

	"github.com/ericfisherdev/callpanel/internal/adapter/driven/callapi"
	sqliteadapter "github.com/ericfisherdev/callpanel/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/callpanel/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/callpanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/callpanel/internal/application"
	"github.com/ericfisherdev/callpanel/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"backend_url", cfg.BackendURL,
		"call_timeout", cfg.CallTimeout,
		"key_store_enabled", cfg.HasSecretKey(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and apply migrations.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", db.Path())

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 4. Wire adapters.
	encKey, err := sqliteadapter.DeriveKey(cfg.SecretKey)
	if err != nil {
		return err
	}
	if encKey == nil {
		slog.Warn("CALLPANEL_SECRET_KEY not set, api key storage disabled")
	}
	keyStore := sqliteadapter.NewAPIKeyRepo(db, encKey)

	backend, err := callapi.NewClient(cfg.BackendURL, cfg.CallTimeout, slog.Default())
	if err != nil {
		return err
	}

	// 5. Create services and load credentials once. A failed load is not
	// fatal: the panel stays usable and shows the error.
	callSvc := application.NewCallService(
		backend,
		application.NewCredentialLoader(keyStore),
		cfg.DefaultPrompt,
		cfg.TestNumber,
		slog.Default(),
	)
	_ = callSvc.LoadCredentials(ctx)
	keySvc := application.NewKeyService(keyStore, callSvc)

	// 6. Register API and GUI routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(callSvc, keySvc, slog.Default()))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(callSvc, keySvc, slog.Default()))
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Call requests block on the backend with no timeout of their own.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr, "backend", backend.Endpoint())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
