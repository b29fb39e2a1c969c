package state

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Running migrations again is a no-op.
	require.NoError(t, store.Migrate())
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.RecordExport(ctx, &ExportRecord{Exporter: "ansic", Source: "hh.hcl", Target: "out/hh.c", Digest: "d1", Size: 10}))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer reopened.Close()

	digest, err := reopened.LastDigest(ctx, "out/hh.c")
	require.NoError(t, err)
	assert.Equal(t, "d1", digest)
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := &ExportRecord{Exporter: "ansic", Source: "hh.hcl", Target: "out/hh.c", Digest: "aaa", Size: 120}
	require.NoError(t, store.RecordExport(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	second := &ExportRecord{ID: "fixed", Exporter: "python", Source: "hh.hcl", Target: "out/hh.py", Digest: "bbb", Size: 80, CreatedAt: at}
	require.NoError(t, store.RecordExport(ctx, second))
	third := &ExportRecord{Exporter: "ansic", Source: "hh.hcl", Target: "out/hh.c", Digest: "ccc", Size: 121}
	require.NoError(t, store.RecordExport(ctx, third))

	all, err := store.ListExports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"ccc", "bbb", "aaa"}, []string{all[0].Digest, all[1].Digest, all[2].Digest})

	assert.Equal(t, "fixed", all[1].ID)
	assert.Equal(t, "python", all[1].Exporter)
	assert.Equal(t, "out/hh.py", all[1].Target)
	assert.Equal(t, int64(80), all[1].Size)
	assert.True(t, at.Equal(all[1].CreatedAt))

	limited, err := store.ListExports(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLiteStore_LastDigest(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	digest, err := store.LastDigest(ctx, "out/none.c")
	require.NoError(t, err)
	assert.Empty(t, digest)

	for _, d := range []string{"one", "two"} {
		require.NoError(t, store.RecordExport(ctx, &ExportRecord{Exporter: "ansic", Target: "out/m.c", Digest: d}))
	}
	require.NoError(t, store.RecordExport(ctx, &ExportRecord{Exporter: "ansic", Target: "out/other.c", Digest: "three"}))

	digest, err = store.LastDigest(ctx, "out/m.c")
	require.NoError(t, err)
	assert.Equal(t, "two", digest)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.RecordExport(ctx, &ExportRecord{}), errNotOpened)
	_, err := store.LastDigest(ctx, "x")
	assert.ErrorIs(t, err, errNotOpened)
	_, err = store.ListExports(ctx, 0)
	assert.ErrorIs(t, err, errNotOpened)
	assert.ErrorIs(t, store.Migrate(), errNotOpened)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_DatabaseErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		run       func(s *SQLiteStore) error
		errMsg    string
		cause     error
	}{
		{
			name: "insert fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exports")).WillReturnError(assert.AnError)
			},
			run: func(s *SQLiteStore) error {
				return s.RecordExport(context.Background(), &ExportRecord{Target: "out/m.c"})
			},
			errMsg: "failed to record export of out/m.c",
			cause:  assert.AnError,
		},
		{
			name: "digest query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT digest FROM exports")).WillReturnError(assert.AnError)
			},
			run: func(s *SQLiteStore) error {
				_, err := s.LastDigest(context.Background(), "out/m.c")
				return err
			},
			errMsg: "failed to get last digest of out/m.c",
			cause:  assert.AnError,
		},
		{
			name: "list query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, exporter")).WillReturnError(assert.AnError)
			},
			run: func(s *SQLiteStore) error {
				_, err := s.ListExports(context.Background(), 5)
				return err
			},
			errMsg: "failed to list exports",
			cause:  assert.AnError,
		},
		{
			name: "list scan fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "exporter", "source", "target", "digest", "size", "created_at"}).
					AddRow("id", "ansic", "m.hcl", "out/m.c", "d", "not-a-number", 0)
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, exporter")).WillReturnRows(rows)
			},
			run: func(s *SQLiteStore) error {
				_, err := s.ListExports(context.Background(), 0)
				return err
			},
			errMsg: "failed to scan export",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setupMock(mock)
			err = tt.run(NewWithDB(db, nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDigest(t *testing.T) {
	d := Digest([]byte("hello"))
	assert.Len(t, d, 64)
	assert.Equal(t, d, Digest([]byte("hello")))
	assert.NotEqual(t, d, Digest([]byte("hello\n")))
}
