package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/where2work/internal/model"
	"github.com/sells-group/where2work/internal/resilience"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := resilience.Do(ctx, resilience.ConnectBackoff(), "postgres ping", pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS shortlist_entries (
	session_id   TEXT NOT NULL,
	company_name TEXT NOT NULL,
	added_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (session_id, company_name)
);

CREATE INDEX IF NOT EXISTS idx_shortlist_entries_added_at ON shortlist_entries(added_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return eris.Wrap(err, "postgres: ping")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AddShortlist(ctx context.Context, sessionID, companyName string) error {
	if err := validateEntry(sessionID, companyName); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO shortlist_entries (session_id, company_name, added_at) VALUES ($1, $2, $3)
		 ON CONFLICT (session_id, company_name) DO NOTHING`,
		sessionID, companyName, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: add shortlist %s", companyName)
	}
	return nil
}

func (s *PostgresStore) RemoveShortlist(ctx context.Context, sessionID, companyName string) error {
	if err := validateEntry(sessionID, companyName); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM shortlist_entries WHERE session_id = $1 AND company_name = $2`,
		sessionID, companyName,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: remove shortlist %s", companyName)
	}
	return nil
}

func (s *PostgresStore) ListShortlist(ctx context.Context, sessionID string) ([]model.ShortlistEntry, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT session_id, company_name, added_at FROM shortlist_entries
		 WHERE session_id = $1 ORDER BY added_at, company_name`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list shortlist")
	}
	defer rows.Close()

	entries := make([]model.ShortlistEntry, 0)
	for rows.Next() {
		var e model.ShortlistEntry
		if err := rows.Scan(&e.SessionID, &e.CompanyName, &e.AddedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan shortlist entry")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate shortlist")
	}
	return entries, nil
}

func (s *PostgresStore) ClearShortlist(ctx context.Context, sessionID string) (int, error) {
	if err := validateSession(sessionID); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM shortlist_entries WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: clear shortlist")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) PruneShortlists(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM shortlist_entries WHERE added_at < $1`, before.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune shortlists")
	}
	return int(tag.RowsAffected()), nil
}
