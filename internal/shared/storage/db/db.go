package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"tool-advisor/internal/shared/telemetry"
)

// ErrNoDatabaseURL is returned by Connect when no DATABASE_URL is configured.
var ErrNoDatabaseURL = errors.New("DATABASE_URL is empty")

// Pool sizes the handle. Postgres only serves the rule table load at startup,
// publishes from rulesctl and health pings, so at most one connection is kept idle.
type Pool struct {
	MaxConns    int
	IdleTimeout time.Duration
	PingTimeout time.Duration
}

// ServerPool lets a health ping run while the startup load holds a connection.
func ServerPool() Pool {
	return Pool{MaxConns: 2, IdleTimeout: 5 * time.Minute, PingTimeout: 5 * time.Second}
}

// LambdaPool keeps one connection per execution environment.
func LambdaPool() Pool {
	return Pool{MaxConns: 1, IdleTimeout: 30 * time.Second, PingTimeout: 3 * time.Second}
}

// MigratePool serves goose, which applies one statement at a time.
func MigratePool() Pool {
	return Pool{MaxConns: 1, PingTimeout: 10 * time.Second}
}

// WithEnv applies DB_PING_TIMEOUT when it parses as a duration.
func (p Pool) WithEnv() Pool {
	raw := strings.TrimSpace(os.Getenv("DB_PING_TIMEOUT"))
	if raw == "" {
		return p
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		telemetry.Warn("db.env.invalid", map[string]any{"key": "DB_PING_TIMEOUT", "value": raw})
		return p
	}
	p.PingTimeout = d
	return p
}

func (p Pool) apply(handle *sql.DB) {
	maxConns := p.MaxConns
	if maxConns <= 0 {
		maxConns = 1
	}
	handle.SetMaxOpenConns(maxConns)
	handle.SetMaxIdleConns(1)
	if p.IdleTimeout > 0 {
		handle.SetConnMaxIdleTime(p.IdleTimeout)
	}
}

var (
	openDB   = sql.Open
	sharedMu sync.Mutex
	sharedDB *sql.DB
)

// IsLambdaRuntime reports whether the current process is running in AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// Connect opens a pgx-backed handle sized by pool and pings it before returning.
func Connect(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoDatabaseURL
	}
	handle, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool.apply(handle)

	timeout := pool.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := handle.PingContext(pingCtx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	telemetry.Info("db.connected", map[string]any{
		"max_conns": handle.Stats().MaxOpenConnections,
		"lambda":    IsLambdaRuntime(),
	})
	return handle, nil
}

// Shared returns the handle for this execution environment, connecting on first use.
// A failed connect is not cached, so the next invocation retries.
func Shared(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedDB != nil {
		return sharedDB, nil
	}
	handle, err := Connect(ctx, databaseURL, pool)
	if err != nil {
		return nil, err
	}
	sharedDB = handle
	return sharedDB, nil
}
