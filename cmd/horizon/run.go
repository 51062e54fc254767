package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/umar/horizon-chat/internal/app"
	"github.com/umar/horizon-chat/internal/auth"
	"github.com/umar/horizon-chat/internal/backend"
	"github.com/umar/horizon-chat/internal/config"
	"github.com/umar/horizon-chat/internal/database"
	"github.com/umar/horizon-chat/internal/drafts"
	"github.com/umar/horizon-chat/internal/handlers"
	"github.com/umar/horizon-chat/internal/hub"
	natsbus "github.com/umar/horizon-chat/internal/nats"
	redisc "github.com/umar/horizon-chat/internal/redis"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the session service and the local API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return run(cfg)
	},
}

func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := database.InitDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func openBus(ctx context.Context, cfg config.Config) (backend.Bus, error) {
	if cfg.Bus == config.BusNATS {
		return natsbus.Connect(cfg.NATSURL)
	}
	client, err := redisc.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return redisc.NewBus(client), nil
}

func run(cfg config.Config) error {
	slog.Info("starting horizon", "version", version, "bus", cfg.Bus)

	viewer, err := auth.ResolveViewer(cfg.Token, cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("failed to establish session: %w", err)
	}
	slog.Info("session established", "viewer_id", viewer.ID, "anonymous", viewer.Anonymous)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("connected to PostgreSQL")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus, err := openBus(ctx, cfg)
	if err != nil {
		return err
	}
	defer bus.Close()
	slog.Info("connected to event bus", "bus", cfg.Bus)

	store, err := drafts.Open(cfg.DataDir, slog.Default())
	if err != nil {
		return err
	}
	defer store.Close()

	be := backend.New(database.NewStore(db), bus, slog.Default())
	session := app.New(viewer, be, store, app.Options{
		SnapshotLimit:   cfg.SnapshotLimit,
		ReceiptInterval: cfg.ReceiptInterval,
	})

	router := handlers.NewRouter(session, handlers.RouterConfig{
		Viewer:     viewer,
		JWTSecret:  cfg.JWTSecret,
		CORSOrigin: cfg.CORSOrigin,
		Bus:        cfg.Bus,
		WS:         hub.ServeWS(session.Hub, cfg.CORSOrigin),
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- session.Run(ctx)
	}()

	go func() {
		slog.Info("api listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	var sessionErr error
	select {
	case <-ctx.Done():
	case sessionErr = <-runErr:
		runErr = nil
		stop()
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	if runErr != nil {
		sessionErr = <-runErr
	}
	if sessionErr != nil {
		return fmt.Errorf("session stopped: %w", sessionErr)
	}

	slog.Info("stopped gracefully")
	return nil
}
