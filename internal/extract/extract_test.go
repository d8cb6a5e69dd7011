package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

func TestFileExtractor_ReadsRelativeRef(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "rfps"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rfps", "network.txt"), []byte("rfp body text"), 0o644))

	e := NewFileExtractor(dir)
	text, err := e.Extract(context.Background(), "rfps/network.txt")
	require.NoError(t, err)
	assert.Equal(t, "rfp body text", text)
}

func TestFileExtractor_AbsolutePathBypassesBaseDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bid.txt")
	require.NoError(t, os.WriteFile(path, []byte("bid text"), 0o644))

	e := NewFileExtractor("/nonexistent")
	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "bid text", text)
}

func TestFileExtractor_MissingFileIsEmptyNotError(t *testing.T) {
	e := NewFileExtractor(t.TempDir())
	text, err := e.Extract(context.Background(), "rfps/missing.txt")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestFileExtractor_EmptyRef(t *testing.T) {
	e := NewFileExtractor(t.TempDir())
	text, err := e.Extract(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestFileExtractor_UnsupportedFormat(t *testing.T) {
	e := NewFileExtractor(t.TempDir())
	_, err := e.Extract(context.Background(), "bids/proposal.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported document format")
}
