package upload

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a parsed multipart part the way net/http hands it to handlers.
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func newStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "uploads"), maxBytes)
	require.NoError(t, err)
	return store
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestStore_Save(t *testing.T) {
	store := newStore(t, 1024)

	f, err := store.Save(fileHeader(t, "Notes.TXT", "text/plain; charset=utf-8", []byte("hello")))

	require.NoError(t, err)
	assert.Equal(t, "Notes.TXT", f.OriginalName)
	assert.Equal(t, "text/plain", f.MimeType)
	assert.Equal(t, int64(5), f.Size)
	assert.Equal(t, ".txt", filepath.Ext(f.Path))
	assert.Equal(t, store.Dir(), filepath.Dir(f.Path))

	data, err := f.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestStore_Save_RejectsUnsupportedType(t *testing.T) {
	store := newStore(t, 1024)

	_, err := store.Save(fileHeader(t, "run.sh", "application/x-sh", []byte("#!/bin/sh")))

	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Empty(t, dirEntries(t, store.Dir()))
}

func TestStore_Save_RejectsOversized(t *testing.T) {
	store := newStore(t, 4)

	_, err := store.Save(fileHeader(t, "big.txt", "text/plain", []byte("too big")))

	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, dirEntries(t, store.Dir()))
}

func TestStore_Save_SniffsUndeclaredType(t *testing.T) {
	store := newStore(t, 1024)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	f, err := store.Save(fileHeader(t, "snap", "application/octet-stream", png))

	require.NoError(t, err)
	assert.Equal(t, "image/png", f.MimeType)
}

func TestStore_CreateTemp_UniqueNames(t *testing.T) {
	store := newStore(t, 0)

	a, err := store.CreateTemp("temp_audio_", ".webm", []byte("a"))
	require.NoError(t, err)
	b, err := store.CreateTemp("temp_audio_", ".webm", []byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Path, b.Path)
	assert.Contains(t, filepath.Base(a.Path), "temp_audio_")
	assert.Len(t, dirEntries(t, store.Dir()), 2)
}

func TestFile_RemoveIsIdempotent(t *testing.T) {
	store := newStore(t, 0)
	f, err := store.CreateTemp("tmp_", ".bin", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, f.Remove())
	require.NoError(t, f.Remove())

	_, statErr := os.Stat(f.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_Accepts(t *testing.T) {
	store := newStore(t, 0)

	assert.True(t, store.Accepts("audio/webm;codecs=opus"))
	assert.True(t, store.Accepts("IMAGE/JPEG"))
	assert.False(t, store.Accepts("video/mp4"))
	assert.False(t, store.Accepts(""))
}
