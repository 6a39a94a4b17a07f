package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taskflowhq/taskflow-cli/internal/config"
	"github.com/taskflowhq/taskflow-cli/internal/server"
	"github.com/taskflowhq/taskflow-cli/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local development API server",
	Long: `Run the local development API server.

The server speaks the same protocol as the hosted backend, storing
everything in a local SQLite database. Point the CLI at it with
TASKFLOW_API_BASE_URL=http://localhost:8000.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		log := newLogger(cfg.Log.Level)

		store, err := storage.Open(cfg.Server.Database)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		secret, err := signingSecret()
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: server.New(store, secret, log).Handler(),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info().Str("addr", addr).Str("database", cfg.Server.Database).Msg("taskflow dev server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

// signingSecret returns the JWT secret: TASKFLOW_JWT_SECRET when set, a
// random one otherwise. A random secret invalidates tokens across restarts,
// which is acceptable for local development.
func signingSecret() ([]byte, error) {
	if s := os.Getenv("TASKFLOW_JWT_SECRET"); s != "" {
		return []byte(s), nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating signing secret: %w", err)
	}
	printWarning("TASKFLOW_JWT_SECRET not set; using a random secret, sessions reset on restart")
	return buf, nil
}
