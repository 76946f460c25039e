package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/chepyr/task-scheduler/internal/app"
	"github.com/chepyr/task-scheduler/internal/auth"
	"github.com/chepyr/task-scheduler/internal/config"
	"github.com/chepyr/task-scheduler/internal/db"
	"github.com/chepyr/task-scheduler/internal/session"
	"github.com/chepyr/task-scheduler/internal/tasks"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type stores struct {
	users db.CredentialStore
	tasks db.TaskStore
	conn  *sql.DB
}

func (s *stores) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func initStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Storage.Driver == config.DriverFile {
		return &stores{
			users: db.NewFileCredentialStore(cfg.DataDir),
			tasks: db.NewFileTaskStore(cfg.DataDir),
		}, nil
	}

	if cfg.Storage.Driver == config.DriverSQLite {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating data dir: %w", err)
		}
	}
	conn, err := db.Connect(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &stores{
		users: db.NewSQLCredentialStore(conn),
		tasks: db.NewSQLTaskStore(conn),
		conn:  conn,
	}, nil
}

// buildApp wires stores, services and the session manager. The returned
// stores must be closed by the caller.
func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app.App, *stores, error) {
	st, err := initStores(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	hasher, err := auth.NewHasher(cfg.PasswordScheme)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if cfg.InsecureSecret() {
		log.Warn("SECRET_KEY is not set, signing tokens with the built-in placeholder")
	}

	authSvc := auth.NewService(st.users, hasher, auth.NewTokenService(cfg.SecretKey), log.Named("auth"))
	taskSvc := tasks.NewService(st.tasks, log.Named("tasks"))
	return app.New(authSvc, taskSvc, session.NewManager(), log), st, nil
}
