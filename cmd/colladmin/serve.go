package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/colladmin/internal/config"
	"github.com/kailas-cloud/colladmin/internal/db"
	"github.com/kailas-cloud/colladmin/internal/db/memory"
	dbRedis "github.com/kailas-cloud/colladmin/internal/db/redis"
	logpkg "github.com/kailas-cloud/colladmin/internal/logger"
	"github.com/kailas-cloud/colladmin/internal/metrics"
	recordrepo "github.com/kailas-cloud/colladmin/internal/repository/record"
	chiTransport "github.com/kailas-cloud/colladmin/internal/transport/chi"
	"github.com/kailas-cloud/colladmin/internal/usecase/health"
	"github.com/kailas-cloud/colladmin/internal/usecase/records"
	"github.com/kailas-cloud/colladmin/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the development backend for the /items contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) openStore() (db.Store, error) {
	switch a.cfg.Database.Driver {
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    a.cfg.Database.Addrs,
			Password: a.cfg.Database.Password,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return memory.NewStore(), nil
	}
}

func seedCollections(cols []config.CollectionConfig) []records.Collection {
	out := make([]records.Collection, len(cols))
	for i, c := range cols {
		out[i] = records.Collection{Name: c.Name, ID: c.ID, Fields: c.Fields}
	}
	return out
}

// handler assembles the router of the development backend.
func (a *app) handler(svc *records.Service, store db.Store) http.Handler {
	server := chiTransport.NewServer(svc, health.New(store), a.logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(a.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(a.logger))
	r.Use(metrics.Middleware())
	r.Get("/debug/logs", logsHandler(a.sink))

	return chiTransport.HandlerWithOptions(server, chiTransport.ServerOptions{
		BaseRouter:  r,
		Middlewares: []func(http.Handler) http.Handler{chiTransport.BearerAuthMiddleware(a.cfg.Auth.Tokens)},
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			logpkg.FromContext(r.Context()).Debug("bind parameters", zap.Error(err))
			writeJSONError(w, http.StatusBadRequest, chiTransport.CodeBadRequest, "invalid request: "+err.Error())
		},
	})
}

func (a *app) serve(ctx context.Context) error {
	a.logger.Info("Starting colladmin dev backend",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", a.cfg.HTTP.Port),
		zap.String("db_driver", a.cfg.Database.Driver),
		zap.Strings("db_addrs", a.cfg.Database.Addrs),
	)

	store, err := a.openStore()
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(a.cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	a.logger.Info("Connected to database")

	metrics.RegisterCoreMetrics()

	svc := records.New(recordrepo.New(store))
	if err := svc.Seed(ctx, seedCollections(a.cfg.Collections)); err != nil {
		return fmt.Errorf("seed collections: %w", err)
	}
	a.logger.Info("Seeded collections", zap.Int("count", len(a.cfg.Collections)))

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.handler(svc, store),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}
