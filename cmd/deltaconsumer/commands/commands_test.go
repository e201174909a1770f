package commands

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/deltaconsumer/am"
	"github.com/teranos/deltaconsumer/pulse"
	"github.com/teranos/deltaconsumer/store"
)

func testConfig(t *testing.T) *am.Config {
	t.Helper()
	v := viper.New()
	am.SetDefaults(v)
	cfg, err := am.LoadWithViper(v)
	require.NoError(t, err)
	cfg.Database.Path = filepath.Join(t.TempDir(), "deltaconsumer.db")
	cfg.Ingest.TmpDir = t.TempDir()
	return cfg
}

func TestOpenPipeline_SQLiteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = am.BackendSQLite

	p, err := openPipeline(cfg)
	require.NoError(t, err)
	defer p.Close()

	assert.NotNil(t, p.coord)
	assert.NotNil(t, p.history)
}

func TestOpenStore(t *testing.T) {
	cfg := testConfig(t)
	database, err := openDatabase(cfg)
	require.NoError(t, err)
	defer database.Close()

	s, err := openStore(cfg, database, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.SPARQLStore{}, s)

	cfg.Store.Backend = am.BackendSQLite
	s, err = openStore(cfg, database, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, s)

	cfg.Store.Backend = "neptune"
	_, err = openStore(cfg, database, nil)
	require.Error(t, err)
}

func TestIngestionTable(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	duration := int64(42)
	rows := ingestionTable([]*pulse.Ingestion{
		{FileName: "a.json", FileCreated: created, Status: pulse.IngestionStatusCompleted,
			Inserts: 3, Deletes: 1, StartedAt: created, DurationMs: &duration},
		{FileName: "b.json", FileCreated: created, Status: pulse.IngestionStatusRunning, StartedAt: created},
	})

	require.Len(t, rows, 3)
	assert.Equal(t, "File", rows[0][1])
	assert.Equal(t, "a.json", rows[1][1])
	assert.Equal(t, "2024-03-01T10:00:00.000Z", rows[1][2])
	assert.Equal(t, "3", rows[1][4])
	assert.Equal(t, "42ms", rows[1][6])
	assert.Equal(t, "-", rows[2][6])
	assert.Equal(t, "", rows[2][7])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "ëëëë…", truncate("ëëëëëëëë", 5))
}

func TestNewSyncClient_BlockPrivateIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := newSyncClient(cfg).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	cfg.Sync.BlockPrivateIP = true
	req, err = http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, err = newSyncClient(cfg).Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private IP address blocked")
}

func TestNewSyncClient_MaxRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/again", http.StatusFound)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Sync.MaxRedirects = 2
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, err = newSyncClient(cfg).Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 2 redirects")
}

func TestSetWatermark_ThroughCoordinator(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = am.BackendSQLite
	p, err := openPipeline(cfg)
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, setWatermark(ctx, p.coord, since))

	got, ok, err := pulse.NewSQLiteWatermarkStore(p.db).Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, since.Equal(got))

	got, err = p.coord.Watermark(ctx)
	require.NoError(t, err)
	assert.True(t, since.Equal(got))
}
