package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"file-storage-server/config"
	"file-storage-server/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *storage.ContentStore {
	t.Helper()

	root := t.TempDir()
	store, err := storage.NewContentStore(&config.StorageConfig{
		UploadDir: filepath.Join(root, "uploads"),
		TempDir:   filepath.Join(root, "tmp"),
	})
	require.NoError(t, err)
	return store
}

func TestStage(t *testing.T) {
	store := newStore(t)

	staged, err := store.Stage(strings.NewReader("hello world"), "report.pdf", "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, int64(11), staged.SizeBytes)
	assert.Equal(t, "application/pdf", staged.MimeType)
	assert.Equal(t, "pdf", staged.Extension)
	assert.Equal(t, "report.pdf", staged.OriginalName)

	data, err := os.ReadFile(staged.TempPath)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestStageDefaultMime(t *testing.T) {
	store := newStore(t)

	staged, err := store.Stage(strings.NewReader("x"), "noext", "")
	require.NoError(t, err)

	assert.Equal(t, "application/octet-stream", staged.MimeType)
	assert.Equal(t, "", staged.Extension)
}

func TestFingerprintStable(t *testing.T) {
	store := newStore(t)

	first, err := store.Stage(strings.NewReader("same content"), "a.txt", "text/plain")
	require.NoError(t, err)
	second, err := store.Stage(strings.NewReader("same content"), "b.txt", "text/plain")
	require.NoError(t, err)

	hashFirst, err := store.Fingerprint(first.TempPath)
	require.NoError(t, err)
	hashSecond, err := store.Fingerprint(second.TempPath)
	require.NoError(t, err)

	assert.Equal(t, hashFirst, hashSecond)
	assert.Len(t, hashFirst, 64)
}

func TestCommitIdempotent(t *testing.T) {
	store := newStore(t)

	first, err := store.Stage(strings.NewReader("payload"), "a.bin", "")
	require.NoError(t, err)
	hash, err := store.Fingerprint(first.TempPath)
	require.NoError(t, err)

	dest := store.BlobPath(hash)
	require.NoError(t, store.Commit(first.TempPath, dest))

	// временный файл убран, блоб на месте
	_, err = os.Stat(first.TempPath)
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// повторный коммит того же контента не трогает существующий блоб
	second, err := store.Stage(strings.NewReader("payload"), "b.bin", "")
	require.NoError(t, err)
	require.NoError(t, store.Commit(second.TempPath, dest))

	_, err = os.Stat(second.TempPath)
	assert.True(t, os.IsNotExist(err))
}

func TestDiscardMissingFile(t *testing.T) {
	store := newStore(t)

	// удаление несуществующего файла не паникует и не ломает поток
	store.Discard(filepath.Join(t.TempDir(), "nope"))
}

func TestOpen(t *testing.T) {
	store := newStore(t)

	staged, err := store.Stage(strings.NewReader("content"), "a.txt", "")
	require.NoError(t, err)
	hash, err := store.Fingerprint(staged.TempPath)
	require.NoError(t, err)

	dest := store.BlobPath(hash)
	require.NoError(t, store.Commit(staged.TempPath, dest))

	reader, err := store.Open(dest)
	require.NoError(t, err)
	defer reader.Close()

	buf := make([]byte, 7)
	_, err = reader.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "content", string(buf))
}
