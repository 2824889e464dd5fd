package ports

import (
	"context"

	"file-storage-server/internal/model"
)

// CacheRepository : Redis слой
type CacheRepository interface {
	SetFileEntry(ctx context.Context, entry *model.FileMapView) error
	GetFileEntry(ctx context.Context, uuid string) (*model.FileMapView, error)
	DeleteFileEntry(ctx context.Context, uuid string) error
}
