package imagestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smitebuilds/backend/internal/imagestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestArchiver_SaveOriginal(t *testing.T) {
	dir := t.TempDir()
	a := imagestore.NewArchiver(dir, zap.NewNop())

	a.SaveOriginal(42, "rod-of-tahuti.jpg", []byte("original bytes"))

	data, err := os.ReadFile(filepath.Join(dir, "00042-rod-of-tahuti.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "original bytes", string(data))
}

func TestArchiver_Disabled(t *testing.T) {
	a := imagestore.NewArchiver("", zap.NewNop())
	// No directory configured: a no-op, not an error.
	a.SaveOriginal(1, "x.jpg", []byte("data"))
}
