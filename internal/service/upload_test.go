package service

import (
	"os"
	"path/filepath"
	"testing"

	"snapfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Smallest valid PNG header is enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.bin")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "photo.bin", img.Filename)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, int64(len(pngHeader)), img.Size)
	assert.NoError(t, img.Validate())
}

func TestReadImage_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.True(t, models.HasCode(img.Validate(), models.CodeValidation))
}

func TestReadImage_Missing(t *testing.T) {
	_, err := ReadImage(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
