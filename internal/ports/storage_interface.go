package ports

import (
	"io"

	"file-storage-server/internal/model"
)

// ContentStore : файловый слой. Все операции трогают только файловую
// систему, без доступа к БД.
type ContentStore interface {
	Stage(reader io.Reader, originalName string, mimeType string) (*model.StagedUpload, error)
	Fingerprint(path string) (string, error)
	BlobPath(hash string) string
	Commit(tempPath string, destPath string) error
	Discard(tempPath string)
	Open(storagePath string) (io.ReadCloser, error)
}
