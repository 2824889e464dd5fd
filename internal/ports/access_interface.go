package ports

import (
	"context"

	"file-storage-server/internal/model"

	"github.com/jmoiron/sqlx"
)

// AccessRepository : SQL слой грантов доступа к файлам
type AccessRepository interface {
	HasGrant(ctx context.Context, exec sqlx.ExtContext, fileMapUUID, userUUID string) (bool, error)
	ListUserUUIDs(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) ([]string, error)
	AddGrants(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string, userUUIDs []string) error
	RemoveGrants(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string, userUUIDs []string) error
	RemoveGrant(ctx context.Context, exec sqlx.ExtContext, fileMapUUID, userUUID string) error
	ListGrantedUsers(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) ([]model.GrantedUser, error)
	DeleteByFileMap(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) error
}

type AccessService interface {
	SetAccess(ctx context.Context, fileMapUUID, ownerUUID, accessType string, allowedUserIDs []string) error
	RemoveAccess(ctx context.Context, fileMapUUID, ownerUUID, targetUserUUID string) error
	ListGrantedUsers(ctx context.Context, fileMapUUID, ownerUUID string) ([]model.GrantedUser, error)
}
