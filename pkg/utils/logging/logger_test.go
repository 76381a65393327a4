package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_WritesJSONFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := InitLogger("test", Options{LogsDir: dir})
	require.NoError(t, err)

	logger.Debug("debug goes to file only")
	_ = logger.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "test_"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"debug goes to file only"`)
	assert.Contains(t, string(data), `"env":"test"`)
}
