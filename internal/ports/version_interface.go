package ports

import (
	"context"

	"file-storage-server/internal/model"

	"github.com/jmoiron/sqlx"
)

// VersionRepository : SQL слой истории версий
type VersionRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, version *model.FileVersion) (int64, error)
	HashExists(ctx context.Context, exec sqlx.ExtContext, fileMapUUID, hash string) (bool, error)
	GetByID(ctx context.Context, exec sqlx.ExtContext, versionID int64, fileMapUUID string) (*model.FileVersion, error)
	ListByFileMap(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) ([]model.FileVersionView, error)
	DeleteFrom(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string, versionID int64) error
	DeleteByFileMap(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) error
}

type VersionService interface {
	Upload(ctx context.Context, fileMapUUID, creatorUUID string, staged *model.StagedUpload, name, description string) error
	List(ctx context.Context, fileMapUUID, userUUID string) ([]model.FileVersionView, error)
	Restore(ctx context.Context, fileMapUUID string, versionID int64, creatorUUID string) error
}
