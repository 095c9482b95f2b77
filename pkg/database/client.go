// Package database provides the Postgres-backed persistence layer: a
// pooled connection client, embedded schema migrations, and repositories
// mirroring the contract and ledger stores for queryable access.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/proofmesh/govcore/pkg/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// pingAttempts bounds how many times NewClient retries the initial
// connectivity check before giving up; the mirror write path treats a
// slow-starting Postgres the same as a transient network blip.
const pingAttempts = 3

// Client wraps a pooled *sql.DB with the connection settings, migration
// runner, and logger the governance core's mirror layer needs.
type Client struct {
	db  *sql.DB
	cfg *config.Config
	log *log.Logger
}

// ClientOption customizes a Client at construction time.
type ClientOption func(*Client)

// WithLogger overrides the client's default logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.log = logger }
}

// NewClient opens a pooled connection to cfg.DatabaseURL, applies the
// pool-size settings from cfg, and confirms the database answers before
// returning. Connection is retried a handful of times with a short
// backoff, since the Postgres mirror is typically brought up alongside
// this process rather than ahead of it.
func NewClient(cfg *config.Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database: config is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database: DatabaseURL is empty")
	}

	c := &Client{
		cfg: cfg,
		log: log.New(log.Writer(), "[postgres] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: opening connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxConns)
	db.SetMaxIdleConns(cfg.DatabaseMinConns)
	db.SetConnMaxIdleTime(time.Duration(cfg.DatabaseMaxIdleTime) * time.Second)
	db.SetConnMaxLifetime(time.Duration(cfg.DatabaseMaxLifetime) * time.Second)
	c.db = db

	var pingErr error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pingErr = db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		if attempt < pingAttempts {
			c.log.Printf("ping attempt %d/%d failed: %v, retrying", attempt, pingAttempts, pingErr)
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}
	if pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("database: connection unreachable after %d attempts: %w", pingAttempts, pingErr)
	}

	c.log.Printf("connected (max_conns=%d, min_conns=%d)", cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	return c, nil
}

// DB exposes the underlying pool for callers needing direct access.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	c.log.Println("closing connection")
	return c.db.Close()
}

// Ping checks that the database is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// HealthStatus snapshots the pool's connectivity and utilization at a
// point in time, as reported by Client.Health.
type HealthStatus struct {
	Healthy            bool          `json:"healthy"`
	Error              string        `json:"error,omitempty"`
	Version            string        `json:"version,omitempty"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
	MaxOpenConnections int           `json:"max_open_connections"`
	CheckedAt          time.Time     `json:"checked_at"`
}

// Health reports pool stats and, on success, the server's reported
// Postgres version.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{CheckedAt: time.Now()}

	if err := c.db.PingContext(ctx); err != nil {
		status.Error = err.Error()
		return status, nil
	}

	stats := c.db.Stats()
	status.Healthy = true
	status.OpenConnections = stats.OpenConnections
	status.InUse = stats.InUse
	status.Idle = stats.Idle
	status.WaitCount = stats.WaitCount
	status.WaitDuration = stats.WaitDuration
	status.MaxOpenConnections = stats.MaxOpenConnections

	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err == nil {
		status.Version = version
	}

	return status, nil
}

// Migration is one embedded schema file, ordered by its filename prefix.
type Migration struct {
	Version  string
	Filename string
	SQL      string
}

// MigrationInfo reports whether a migration has already been recorded
// in schema_migrations.
type MigrationInfo struct {
	Version string `json:"version"`
	Applied bool   `json:"applied"`
}

// MigrateUp applies every embedded migration not yet recorded in
// schema_migrations, in filename order.
func (c *Client) MigrateUp(ctx context.Context) error {
	c.log.Println("running migrations")

	migrations, err := c.loadMigrations()
	if err != nil {
		return fmt.Errorf("database: loading migrations: %w", err)
	}

	applied, err := c.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("database: reading schema_migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			c.log.Printf("skip %s (already applied)", m.Version)
			continue
		}
		c.log.Printf("apply %s", m.Version)
		if err := c.runMigration(ctx, m); err != nil {
			return fmt.Errorf("database: applying %s: %w", m.Version, err)
		}
	}

	c.log.Println("migrations up to date")
	return nil
}

// MigrationStatus reports every embedded migration and whether it has
// been applied, for an operational status endpoint or CLI.
func (c *Client) MigrationStatus(ctx context.Context) ([]MigrationInfo, error) {
	migrations, err := c.loadMigrations()
	if err != nil {
		return nil, fmt.Errorf("database: loading migrations: %w", err)
	}
	applied, err := c.appliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("database: reading schema_migrations: %w", err)
	}

	status := make([]MigrationInfo, 0, len(migrations))
	for _, m := range migrations {
		status = append(status, MigrationInfo{Version: m.Version, Applied: applied[m.Version]})
	}
	return status, nil
}

func (c *Client) loadMigrations() ([]Migration, error) {
	var migrations []Migration

	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		migrations = append(migrations, Migration{
			Version:  strings.TrimSuffix(d.Name(), ".sql"),
			Filename: d.Name(),
			SQL:      string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// appliedMigrations returns the set of recorded versions. A missing
// schema_migrations table (first run, before any migration has
// created it) is treated as "nothing applied yet" rather than an error.
func (c *Client) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// runMigration executes one migration's SQL in a transaction. The SQL
// itself is responsible for recording its own version via an
// INSERT ... ON CONFLICT DO NOTHING into schema_migrations.
func (c *Client) runMigration(ctx context.Context, m Migration) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return tx.Commit()
}

// Tx wraps a *sql.Tx so callers don't need to import database/sql
// directly just to pass a transaction handle around.
type Tx struct {
	tx *sql.Tx
}

// BeginTx starts a new transaction on the pool.
func (c *Client) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("database: beginning transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// Tx returns the wrapped *sql.Tx.
func (t *Tx) Tx() *sql.Tx { return t.tx }

// ExecContext runs a statement that returns no rows.
func (c *Client) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a statement that returns rows.
func (c *Client) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a statement expected to return at most one row.
func (c *Client) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}
