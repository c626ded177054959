package storage

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append(
	[]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A},
	make([]byte, 64)...,
)

var jpegBytes = append(
	[]byte{0xFF, 0xD8, 0xFF, 0xE0},
	make([]byte, 64)...,
)

func upload(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestSaveAcceptsRealImages(t *testing.T) {
	store := NewFileStore(t.TempDir())

	name, err := store.Save(upload(t, "photo.png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(name))
	assert.NotEqual(t, "photo.png", name) // client name never reaches disk

	_, err = os.Stat(filepath.Join(store.Dir, name))
	assert.NoError(t, err)

	name, err = store.Save(upload(t, "photo.jpg", jpegBytes))
	require.NoError(t, err)
	assert.Equal(t, ".jpg", filepath.Ext(name))
}

func TestSaveRejectsBadExtension(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Save(upload(t, "payload.exe", pngBytes))
	assert.ErrorIs(t, err, ErrBadType)
}

func TestSaveRejectsMismatchedContent(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	// an executable renamed to .png must be rejected and cleaned up
	_, err := store.Save(upload(t, "sneaky.png", []byte("MZ\x90\x00 definitely not an image")))
	assert.ErrorIs(t, err, ErrBadType)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveMissingFileIsQuiet(t *testing.T) {
	store := NewFileStore(t.TempDir())
	store.Remove("does-not-exist.png") // must not panic
}
