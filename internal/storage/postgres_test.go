package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store, err := NewPostgresStore(context.Background(), db)
	require.NoError(t, err)
	return store, mock
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	defer store.Close()

	rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"days":[]}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM blobs WHERE key = $1")).
		WithArgs(StateKey).
		WillReturnRows(rows)

	got, err := store.Get(context.Background(), StateKey)
	require.NoError(t, err)
	assert.Equal(t, `{"days":[]}`, string(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	defer store.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM blobs WHERE key = $1")).
		WithArgs(ConfigKey).
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), ConfigKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_GetFailure(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	defer store.Close()

	mock.ExpectQuery("SELECT value FROM blobs").
		WillReturnError(errors.New("connection reset"))

	_, err := store.Get(context.Background(), ConfigKey)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresStore_PutUpserts(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	defer store.Close()

	mock.ExpectExec("INSERT INTO blobs .* ON CONFLICT \\(key\\) DO UPDATE").
		WithArgs(StateKey, []byte(`{}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Put(context.Background(), StateKey, []byte(`{}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	defer store.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blobs WHERE key = $1")).
		WithArgs(StateKey).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), StateKey))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, DriverPostgres, store.Driver())
}

func TestNewPostgresStore_RequiresDB(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewPostgresStoreFromPool(context.Background(), nil)
	assert.Error(t, err)
}

// TestPostgresStore_Live runs the store contract against a real database.
// Skip test if TEST_DATABASE_URL is not set.
func TestPostgresStore_Live(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL tests")
	}

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	require.NoError(t, err)
	_, err = db.Exec("DELETE FROM blobs")
	require.NoError(t, err)

	store, err := NewPostgresStore(context.Background(), db)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}
