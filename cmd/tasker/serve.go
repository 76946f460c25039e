package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chepyr/task-scheduler/internal/config"
	"github.com/chepyr/task-scheduler/internal/handlers"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				current.cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), current.cfg, current.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	validateEnv(cfg, log)

	a, st, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	limiter := handlers.NewRateLimiter(cfg.Server.LoginAttempts, cfg.Server.LoginWindow)
	defer limiter.Stop()

	h := handlers.New(a, limiter, handlers.NewWSHub(log.Named("ws")), cfg.Server.AllowedOrigins, log.Named("http"))
	server := initServer(cfg.Server.Addr, handlers.NewRouter(h))
	return startServer(ctx, server, log)
}

// validateEnv reports settings that are allowed but unwise.
func validateEnv(cfg *config.Config, log *zap.Logger) {
	if cfg.Environment == config.EnvProduction && cfg.PasswordScheme == "legacy" {
		log.Warn("password_scheme legacy uses a fixed salt; prefer bcrypt for new deployments")
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		log.Info("server.allowed_origins is empty, websocket connections are accepted from any origin")
	}
}

func initServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// startServer serves until SIGINT, SIGTERM or ctx is done, then shuts down
// gracefully.
func startServer(ctx context.Context, server *http.Server, log *zap.Logger) error {
	log.Info("starting server", zap.String("addr", server.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
