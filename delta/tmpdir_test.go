package delta

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTmpDirUsage(t *testing.T) {
	usage, err := TmpDirUsage(t.TempDir())
	require.NoError(t, err)
	assert.NotZero(t, usage.Total)
	assert.LessOrEqual(t, usage.Free, usage.Total)
}

func TestTmpDirUsage_Missing(t *testing.T) {
	_, err := TmpDirUsage(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestTmpUsageLow(t *testing.T) {
	assert.True(t, TmpUsage{Free: 1 << 20}.Low())
	assert.False(t, TmpUsage{Free: 1 << 30}.Low())
}
