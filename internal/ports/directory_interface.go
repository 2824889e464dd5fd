package ports

import (
	"context"

	"file-storage-server/internal/model"

	"github.com/jmoiron/sqlx"
)

// DirectoryRepository : SQL слой иерархии директорий
type DirectoryRepository interface {
	FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid, creatorUUID string) (*model.Directory, error)
	NameExists(ctx context.Context, exec sqlx.ExtContext, name string, parentUUID *string, creatorUUID string, excludeUUID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, directory *model.Directory) error
	Rename(ctx context.Context, exec sqlx.ExtContext, uuid, name string) error
	DeleteSubtree(ctx context.Context, exec sqlx.ExtContext, uuid, creatorUUID string) ([]string, error)
	ListChildren(ctx context.Context, exec sqlx.ExtContext, parentUUID *string, creatorUUID string) ([]model.Directory, error)
	BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error)
}

type DirectoryService interface {
	Create(ctx context.Context, name string, parentUUID *string, creatorUUID string) (string, error)
	Rename(ctx context.Context, directoryUUID, creatorUUID, newName string) error
	Delete(ctx context.Context, directoryUUID, creatorUUID string) error
	ListChildren(ctx context.Context, parentUUID *string, creatorUUID string) ([]model.Directory, error)
}
