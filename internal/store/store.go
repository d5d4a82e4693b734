// Package store persists per-session company shortlists.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/where2work/internal/model"
	"github.com/sells-group/where2work/internal/resilience"
)

// Store defines the persistence interface for shortlists.
type Store interface {
	// Shortlists
	AddShortlist(ctx context.Context, sessionID, companyName string) error
	RemoveShortlist(ctx context.Context, sessionID, companyName string) error
	ListShortlist(ctx context.Context, sessionID string) ([]model.ShortlistEntry, error)
	ClearShortlist(ctx context.Context, sessionID string) (int, error)
	PruneShortlists(ctx context.Context, before time.Time) (int, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Validation errors returned before any backend is touched.
var (
	ErrMissingSession = eris.New("store: session id is required")
	ErrMissingName    = eris.New("store: company name is required")
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures a store backend.
type Config struct {
	Driver      string      `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string      `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string      `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Pool        *PoolConfig `yaml:"pool,omitempty" mapstructure:"pool"`
}

var migrateBackoff = resilience.Backoff{
	Attempts: 3,
	Initial:  100 * time.Millisecond,
	Max:      time.Second,
}

// Open creates the configured store and runs its migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case DriverMemory, "":
		st = NewMemory()
	case DriverSQLite:
		dsn := cfg.SQLitePath
		if dsn == "" {
			dsn = "where2work.db"
		}
		st, err = NewSQLite(dsn)
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: database_url is required for postgres (WHERE2WORK_STORE_DATABASE_URL)")
		}
		st, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.Pool)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	// Migrations retry on transient errors such as a locked sqlite file.
	if err := resilience.Do(ctx, migrateBackoff, "migrate "+cfg.Driver, st.Migrate); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func validateEntry(sessionID, companyName string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	if strings.TrimSpace(companyName) == "" {
		return ErrMissingName
	}
	return nil
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrMissingSession
	}
	return nil
}
