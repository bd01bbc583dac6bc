// Package store implements the data store on database/sql. SQLite
// (modernc.org/sqlite) and PostgreSQL (lib/pq) are supported; schemas are
// applied with golang-migrate from embedded migrations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	corestore "github.com/kilianp07/spos/core/store"
	"github.com/kilianp07/spos/infra/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config selects and configures the backing database.
type Config struct {
	Driver string `json:"driver" yaml:"driver" koanf:"driver"`
	// DSN is a file path for sqlite and a connection URL for postgres.
	DSN            string `json:"dsn" yaml:"dsn" koanf:"dsn"`
	SkipMigrations bool   `json:"skip_migrations" yaml:"skip_migrations" koanf:"skip_migrations"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.Driver == DriverSQLite && c.DSN == "" {
		c.DSN = "spos.db"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("store: postgres requires a dsn")
		}
	default:
		return fmt.Errorf("store: unsupported driver %q", c.Driver)
	}
	return nil
}

// New opens the configured store.
func New(ctx context.Context, cfg Config) (corestore.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Driver == DriverMemory {
		return corestore.NewMemoryStore(corestore.Dataset{}), nil
	}
	return Open(ctx, cfg)
}

// SQLStore implements store.Store on a SQL database.
type SQLStore struct {
	db     *sql.DB
	driver string
	log    logger.Logger
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*SQLStore, error) {
	cfg.SetDefaults()
	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	s := &SQLStore{db: db, driver: cfg.Driver, log: logger.New("store")}
	if !cfg.SkipMigrations {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// sqliteDSN enables foreign keys and a busy timeout unless set already.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ corestore.Store = (*SQLStore)(nil)
