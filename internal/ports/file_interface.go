package ports

import (
	"context"
	"io"

	"file-storage-server/internal/model"

	"github.com/jmoiron/sqlx"
)

// FileRepository : каталог уникальных блобов контента (SQL слой)
type FileRepository interface {
	FindByHash(ctx context.Context, exec sqlx.ExtContext, hash string) (*model.File, error)
	Create(ctx context.Context, exec sqlx.ExtContext, file *model.File) error
}

// FileMapRepository : SQL слой логических файлов
type FileMapRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, fileMap *model.FileMap) error
	GetByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.FileMapView, error)
	Exists(ctx context.Context, exec sqlx.ExtContext, fileUUID string, directoryUUID *string) (bool, error)
	NameExists(ctx context.Context, exec sqlx.ExtContext, name string, directoryUUID *string, creatorUUID string, excludeUUID string) (bool, error)
	UpdateMetaData(ctx context.Context, exec sqlx.ExtContext, uuid, name, description string) error
	UpdateContent(ctx context.Context, exec sqlx.ExtContext, uuid, fileUUID, name, description string) error
	UpdateAccessType(ctx context.Context, exec sqlx.ExtContext, uuid, accessType string) error
	Delete(ctx context.Context, exec sqlx.ExtContext, uuid string) error
	Search(ctx context.Context, exec sqlx.ExtContext, creatorUUID, query string, limit, offset int) (int, []model.FileMapView, error)
	ListByDirectory(ctx context.Context, exec sqlx.ExtContext, directoryUUID *string, creatorUUID string) ([]model.FileMapView, error)
	ListShared(ctx context.Context, exec sqlx.ExtContext, userUUID string) ([]model.FileMapView, error)
	BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error)
}

type FileMapService interface {
	Upload(ctx context.Context, staged *model.StagedUpload, name, description string, directoryUUID *string, creatorUUID string) (string, error)
	GetByID(ctx context.Context, fileMapUUID, userUUID string) (*model.FileMapView, error)
	Download(ctx context.Context, fileMapUUID, userUUID string) (io.ReadCloser, *model.FileMapView, error)
	UpdateMetaData(ctx context.Context, fileMapUUID, creatorUUID, name, description string) error
	Delete(ctx context.Context, fileMapUUID, creatorUUID string) error
	Search(ctx context.Context, creatorUUID, query string, page, limit int) (int, []model.FileMapView, error)
	ListByDirectory(ctx context.Context, directoryUUID *string, creatorUUID string) ([]model.FileMapView, error)
	ListShared(ctx context.Context, userUUID string) ([]model.FileMapView, error)
}
