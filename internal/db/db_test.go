package db

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/election.report/internal/testutil"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "elections.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestPragmasApplied verifies that essential PRAGMAs are set on all databases
func TestPragmasApplied(t *testing.T) {
	db := setupTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var synchronous int
	require.NoError(t, db.QueryRow("PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 1, synchronous, "1 = NORMAL")

	var tempStore int
	require.NoError(t, db.QueryRow("PRAGMA temp_store").Scan(&tempStore))
	assert.Equal(t, 2, tempStore, "2 = MEMORY")
}

func TestNewDBIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elections.db")
	first, err := NewDB(path)
	require.NoError(t, err)
	first.Close()

	second, err := NewDB(path)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, path, second.Path())
}

func TestImportAndLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	want := testutil.NewFixtureSnapshot(t)

	rec, err := db.ImportSnapshot(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, 40, rec.ResultRows)
	assert.Equal(t, 10, rec.ElectoralRows)
	assert.Equal(t, 2016, rec.FirstYear)
	assert.Equal(t, 2020, rec.LastYear)
	assert.NotEmpty(t, rec.ID)

	got, err := db.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Years(), got.Years())
	assert.ElementsMatch(t, want.AllRows(), got.AllRows())
	assert.ElementsMatch(t, want.Allocations(), got.Allocations())

	counts, err := db.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"results": 40, "electoral": 10}, counts)

	last, err := db.LastImport(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, rec.ID, last.ID)
}

func TestImportReplacesDataset(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	snap := testutil.NewFixtureSnapshot(t)

	_, err := db.ImportSnapshot(ctx, snap)
	require.NoError(t, err)
	_, err = db.ImportSnapshot(ctx, snap)
	require.NoError(t, err)

	counts, err := db.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, counts["results"])
}

func TestLoadSnapshotEmpty(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.LoadSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrEmptyDataset)

	last, err := db.LastImport(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestAdminRoutes(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.ImportSnapshot(context.Background(), testutil.NewFixtureSnapshot(t))
	require.NoError(t, err)

	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/debug/backup", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "SQLite format 3\x00", string(body[:16]))
}
