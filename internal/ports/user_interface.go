package ports

import (
	"context"

	"file-storage-server/internal/model"

	"github.com/jmoiron/sqlx"
)

type UserRepository interface {
	CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error)
	FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error)
	FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error)
	Exists(ctx context.Context, exec sqlx.ExtContext, uuid string) (bool, error)
	FilterMissing(ctx context.Context, exec sqlx.ExtContext, uuids []string) ([]string, error)
	ListUsers(ctx context.Context, exec sqlx.ExtContext, cursor string, limit int) ([]*model.User, string, error)
}

type UserService interface {
	Register(ctx context.Context, name, email, password, userAgent, ipAddress string) (*model.User, *model.TokensPair, error)
	GetUser(ctx context.Context, uuid string) (*model.User, error)
	ListUsers(ctx context.Context, cursor string, limit int) ([]*model.User, string, error)
}
