package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTestMemory(t *testing.T) Store {
	t.Helper()
	return NewMemory()
}

func names(t *testing.T, s Store, session string) []string {
	t.Helper()
	entries, err := s.ListShortlist(context.Background(), session)
	require.NoError(t, err)
	out := make([]string, len(entries))
	for i, e := range entries {
		assert.Equal(t, session, e.SessionID)
		out[i] = e.CompanyName
	}
	return out
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("AddAndList", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Acme Pty Ltd"))
		time.Sleep(2 * time.Millisecond)
		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Brisbane Bakers"))

		assert.Equal(t, []string{"Acme Pty Ltd", "Brisbane Bakers"}, names(t, s, "sess-1"))
	})

	t.Run("AddIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Acme Pty Ltd"))
		first, err := s.ListShortlist(ctx, "sess-1")
		require.NoError(t, err)
		require.Len(t, first, 1)

		time.Sleep(2 * time.Millisecond)
		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Acme Pty Ltd"))
		second, err := s.ListShortlist(ctx, "sess-1")
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.True(t, first[0].AddedAt.Equal(second[0].AddedAt))
	})

	t.Run("SessionsAreIsolated", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Acme Pty Ltd"))
		require.NoError(t, s.AddShortlist(ctx, "sess-2", "Brisbane Bakers"))

		assert.Equal(t, []string{"Acme Pty Ltd"}, names(t, s, "sess-1"))
		assert.Equal(t, []string{"Brisbane Bakers"}, names(t, s, "sess-2"))
		assert.Empty(t, names(t, s, "sess-3"))
	})

	t.Run("Remove", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Acme Pty Ltd"))
		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Brisbane Bakers"))
		require.NoError(t, s.RemoveShortlist(ctx, "sess-1", "Acme Pty Ltd"))
		assert.Equal(t, []string{"Brisbane Bakers"}, names(t, s, "sess-1"))

		// Removing something absent is a no-op.
		require.NoError(t, s.RemoveShortlist(ctx, "sess-1", "Nobody Inc"))
		assert.Equal(t, []string{"Brisbane Bakers"}, names(t, s, "sess-1"))
	})

	t.Run("Clear", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Acme Pty Ltd"))
		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Brisbane Bakers"))
		require.NoError(t, s.AddShortlist(ctx, "sess-2", "Cairns Coffee"))

		n, err := s.ClearShortlist(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Empty(t, names(t, s, "sess-1"))
		assert.Equal(t, []string{"Cairns Coffee"}, names(t, s, "sess-2"))

		n, err = s.ClearShortlist(ctx, "sess-1")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Prune", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Acme Pty Ltd"))
		require.NoError(t, s.AddShortlist(ctx, "sess-2", "Brisbane Bakers"))

		n, err := s.PruneShortlists(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = s.PruneShortlists(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Empty(t, names(t, s, "sess-1"))
		assert.Empty(t, names(t, s, "sess-2"))
	})

	t.Run("Validation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		assert.ErrorIs(t, s.AddShortlist(ctx, "", "Acme Pty Ltd"), ErrMissingSession)
		assert.ErrorIs(t, s.AddShortlist(ctx, "sess-1", "  "), ErrMissingName)
		assert.Error(t, s.RemoveShortlist(ctx, "", "Acme Pty Ltd"))
		_, err := s.ListShortlist(ctx, "")
		assert.Error(t, err)
		_, err = s.ClearShortlist(ctx, " ")
		assert.Error(t, err)
	})

	t.Run("PingAndMigrate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Ping(ctx))
		require.NoError(t, s.Migrate(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	storeTestSuite(t, newTestMemory)
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "persist.db")

	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.AddShortlist(ctx, "sess-1", "Acme Pty Ltd"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	require.NoError(t, reopened.Migrate(ctx))
	assert.Equal(t, []string{"Acme Pty Ltd"}, names(t, reopened, "sess-1"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory by default", func(t *testing.T) {
		s, err := Open(ctx, Config{})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(ctx, Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "open.db")})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLiteStore{}, s)
		require.NoError(t, s.AddShortlist(ctx, "sess-1", "Acme Pty Ltd"))
	})

	t.Run("postgres requires url", func(t *testing.T) {
		_, err := Open(ctx, Config{Driver: DriverPostgres})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database_url is required")
	})

	t.Run("unsupported driver", func(t *testing.T) {
		_, err := Open(ctx, Config{Driver: "mongo"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported driver "mongo"`)
	})
}
