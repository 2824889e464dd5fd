package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// CreateUser : сохраняет нового пользователя
func (r *UserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (uuid, name, email, password_hash)
	VALUES ($1, $2, $3, $4)
	RETURNING uuid, name, email, created_at
	`

	createdUser := &model.User{}
	err := exec.QueryRowxContext(ctx, query, user.UUID, user.Name, user.Email, user.PasswordHash).
		Scan(&createdUser.UUID, &createdUser.Name, &createdUser.Email, &createdUser.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}

// FindByUUID : ищет пользователя по UUID
func (r *UserRepository) FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error) {
	query := `SELECT uuid, name, email, password_hash, created_at FROM users WHERE uuid = $1 AND deleted_at IS NULL`
	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, uuid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}

// FindByEmail : ищет пользователя по email
func (r *UserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	query := `SELECT uuid, name, email, password_hash, created_at FROM users WHERE email = $1 AND deleted_at IS NULL`
	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось найти пользователя по email", err)
	}
	return &user, nil
}

// Exists : проверяет, существует ли пользователь по UUID
func (r *UserRepository) Exists(ctx context.Context, exec sqlx.ExtContext, uuid string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE uuid = $1 AND deleted_at IS NULL)`
	err := sqlx.GetContext(ctx, exec, &exists, query, uuid)
	if err != nil {
		return false, util.LogError("[UserRepo] ошибка проверки существования пользователя", err)
	}
	return exists, nil
}

// FilterMissing : возвращает те из переданных UUID, которых нет среди
// активных пользователей
func (r *UserRepository) FilterMissing(ctx context.Context, exec sqlx.ExtContext, uuids []string) ([]string, error) {
	if len(uuids) == 0 {
		return nil, nil
	}

	query := `
		SELECT candidate.uuid
		FROM unnest($1::text[]) AS candidate(uuid)
		LEFT JOIN users AS u ON u.uuid = candidate.uuid AND u.deleted_at IS NULL
		WHERE u.uuid IS NULL
	`

	var missing []string
	err := sqlx.SelectContext(ctx, exec, &missing, query, pq.Array(uuids))
	if err != nil {
		return nil, util.LogError("[UserRepo] ошибка проверки списка пользователей", err)
	}
	return missing, nil
}

// ListUsers : вывод списка пользователей с cursor-based пагинацией
func (r *UserRepository) ListUsers(ctx context.Context, exec sqlx.ExtContext, cursor string, limit int) ([]*model.User, string, error) {
	query := `
        SELECT uuid, name, email, created_at
        FROM users
        WHERE created_at > $1 AND deleted_at IS NULL
        ORDER BY created_at ASC, uuid ASC
        LIMIT $2
    `

	var cursorTime time.Time
	var err error

	if cursor == "" {
		cursorTime = time.Time{}
	} else {
		cursorTime, err = time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor format: %w", err)
		}
	}

	var users []*model.User
	err = sqlx.SelectContext(ctx, exec, &users, query, cursorTime, limit+1) // +1 для проверки наличия следующей страницы
	if err != nil {
		return nil, "", util.LogError("[UserRepo] не удалось получить список пользователей", err)
	}

	var nextCursor string
	if len(users) > limit {
		users = users[:limit]
		nextCursor = users[len(users)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	return users, nextCursor, nil
}
