package am

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ingest]
batch_size = 10
batchsize = 20

[sync]
base_url = "https://example.org"

[graph]
public = "http://example.org/g"
`), DefaultFilePermissions))

	keys, err := UnknownKeys(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"graph", "graph.public", "ingest.batchsize"}, keys)
}

func TestUnknownKeys_RoutingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[routing.owned]]
type = "http://example.org/B"
path = ["http://example.org/p"]
`), DefaultFilePermissions))

	keys, err := UnknownKeys(path)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestUnknownKeys_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ingest\n"), DefaultFilePermissions))

	_, err := UnknownKeys(path)
	require.Error(t, err)
}

func TestLoadedFiles(t *testing.T) {
	_, project := isolate(t)
	assert.Empty(t, LoadedFiles())

	path := filepath.Join(project, ProjectConfigName)
	require.NoError(t, os.WriteFile(path, []byte("[ingest]\n"), DefaultFilePermissions))

	files := LoadedFiles()
	require.Len(t, files, 1)
	assert.Equal(t, SourceProject, files[0].Source)
}

func TestWatchFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	other := filepath.Join(dir, "other.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ingest]\n"), DefaultFilePermissions))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 16)
	require.NoError(t, WatchFiles(ctx, []string{path}, func(p string) { changed <- p }))

	require.NoError(t, os.WriteFile(other, []byte("x"), DefaultFilePermissions))
	require.NoError(t, os.WriteFile(path, []byte("[ingest]\nbatch_size = 5\n"), DefaultFilePermissions))

	select {
	case p := <-changed:
		assert.Equal(t, path, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event for the watched file")
	}
}
