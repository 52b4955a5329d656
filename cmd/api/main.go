package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/vaultline/ledger/internal/api"
	"github.com/vaultline/ledger/internal/auth"
	"github.com/vaultline/ledger/internal/config"
	"github.com/vaultline/ledger/internal/metrics"
	"github.com/vaultline/ledger/internal/service"
	"github.com/vaultline/ledger/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	// Select the account store
	var accountStore store.Store
	switch cfg.Store.Backend {
	case "postgres":
		log.Info("connecting to PostgreSQL...")
		pg, err := store.NewPostgresStore(cfg.Store.Postgres)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to PostgreSQL")
		}
		defer pg.Close()

		log.Info("creating the schema...")
		if err := pg.InitSchema(ctx); err != nil {
			log.WithError(err).Fatal("failed to create schema")
		}
		accountStore = pg
	default:
		accountStore = store.NewMemoryStore()
	}

	// Create services
	m := metrics.New()
	tokens := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.TTL)
	authenticator := auth.NewAuthenticator(cfg.Auth.Username, cfg.Auth.Password, tokens)
	ledger := service.NewLedgerService(accountStore, nil, log, m)

	// Create router and set up routes
	router := mux.NewRouter()
	api.SetupRoutes(router, api.NewHandler(authenticator, ledger), tokens, log, m)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("starting server...")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server shutdown failed")
	}

	log.Info("server shut down successfully")
}
