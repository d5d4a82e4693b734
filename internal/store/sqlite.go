package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/where2work/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS shortlist_entries (
	session_id   TEXT NOT NULL,
	company_name TEXT NOT NULL,
	added_at     INTEGER NOT NULL,
	PRIMARY KEY (session_id, company_name)
);

CREATE INDEX IF NOT EXISTS idx_shortlist_entries_added_at ON shortlist_entries(added_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// added_at is stored as unix nanoseconds so ordering survives equal-second inserts.
func (s *SQLiteStore) AddShortlist(ctx context.Context, sessionID, companyName string) error {
	if err := validateEntry(sessionID, companyName); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO shortlist_entries (session_id, company_name, added_at) VALUES (?, ?, ?)`,
		sessionID, companyName, s.now().UnixNano(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: add shortlist %s", companyName)
	}
	return nil
}

func (s *SQLiteStore) RemoveShortlist(ctx context.Context, sessionID, companyName string) error {
	if err := validateEntry(sessionID, companyName); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM shortlist_entries WHERE session_id = ? AND company_name = ?`,
		sessionID, companyName,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: remove shortlist %s", companyName)
	}
	return nil
}

func (s *SQLiteStore) ListShortlist(ctx context.Context, sessionID string) ([]model.ShortlistEntry, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, company_name, added_at FROM shortlist_entries
		 WHERE session_id = ? ORDER BY added_at, company_name`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list shortlist")
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]model.ShortlistEntry, 0)
	for rows.Next() {
		var (
			e  model.ShortlistEntry
			ns int64
		)
		if err := rows.Scan(&e.SessionID, &e.CompanyName, &ns); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan shortlist entry")
		}
		e.AddedAt = time.Unix(0, ns).UTC()
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate shortlist")
}

func (s *SQLiteStore) ClearShortlist(ctx context.Context, sessionID string) (int, error) {
	if err := validateSession(sessionID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM shortlist_entries WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: clear shortlist")
	}
	return rowsAffected(res)
}

func (s *SQLiteStore) PruneShortlists(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shortlist_entries WHERE added_at < ?`, before.UTC().UnixNano())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune shortlists")
	}
	return rowsAffected(res)
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "rows affected")
	}
	return int(n), nil
}
