package repository

import (
	"context"
	"strconv"
	"strings"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type AccessRepository struct {
	*config.Database
}

func NewAccessRepository(database *config.Database) *AccessRepository {
	return &AccessRepository{database}
}

// HasGrant : есть ли у пользователя явный грант на файл
func (r *AccessRepository) HasGrant(ctx context.Context, exec sqlx.ExtContext, fileMapUUID, userUUID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM file_access WHERE file_map_uuid = $1 AND user_uuid = $2
		)
	`

	var exists bool
	err := sqlx.GetContext(ctx, exec, &exists, query, fileMapUUID, userUUID)
	if err != nil {
		return false, util.LogError("[AccessRepo] ошибка проверки гранта", err)
	}
	return exists, nil
}

// ListUserUUIDs : текущие держатели грантов файла
func (r *AccessRepository) ListUserUUIDs(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) ([]string, error) {
	var uuids []string
	query := `SELECT user_uuid FROM file_access WHERE file_map_uuid = $1`
	if err := sqlx.SelectContext(ctx, exec, &uuids, query, fileMapUUID); err != nil {
		return nil, util.LogError("[AccessRepo] ошибка получения списка грантов", err)
	}
	return uuids, nil
}

// AddGrants : массовая вставка новых грантов. Гонка на уже существующем
// гранте не ошибка — ON CONFLICT DO NOTHING.
func (r *AccessRepository) AddGrants(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string, userUUIDs []string) error {
	if len(userUUIDs) == 0 {
		return nil
	}

	values := make([]string, 0, len(userUUIDs))
	args := make([]interface{}, 0, len(userUUIDs)+1)
	args = append(args, fileMapUUID)
	for i, userUUID := range userUUIDs {
		values = append(values, "($1, $"+strconv.Itoa(i+2)+")")
		args = append(args, userUUID)
	}

	query := `
		INSERT INTO file_access (file_map_uuid, user_uuid)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (file_map_uuid, user_uuid) DO NOTHING
	`

	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return util.LogError("[AccessRepo] ошибка выдачи грантов", err)
	}
	return nil
}

// RemoveGrants : удаляет гранты пачки пользователей
func (r *AccessRepository) RemoveGrants(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string, userUUIDs []string) error {
	if len(userUUIDs) == 0 {
		return nil
	}

	query := `DELETE FROM file_access WHERE file_map_uuid = $1 AND user_uuid = ANY($2)`
	if _, err := exec.ExecContext(ctx, query, fileMapUUID, pq.Array(userUUIDs)); err != nil {
		return util.LogError("[AccessRepo] ошибка отзыва грантов", err)
	}
	return nil
}

// RemoveGrant : идемпотентный отзыв одного гранта
func (r *AccessRepository) RemoveGrant(ctx context.Context, exec sqlx.ExtContext, fileMapUUID, userUUID string) error {
	query := `DELETE FROM file_access WHERE file_map_uuid = $1 AND user_uuid = $2`
	if _, err := exec.ExecContext(ctx, query, fileMapUUID, userUUID); err != nil {
		return util.LogError("[AccessRepo] ошибка отзыва гранта", err)
	}
	return nil
}

// ListGrantedUsers : пользователи с доступом к файлу
func (r *AccessRepository) ListGrantedUsers(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) ([]model.GrantedUser, error) {
	query := `
		SELECT u.uuid AS user_uuid, u.name, u.email, fa.created_at AS granted_at
		FROM file_access AS fa
		INNER JOIN users AS u ON u.uuid = fa.user_uuid
		WHERE fa.file_map_uuid = $1 AND u.deleted_at IS NULL
		ORDER BY fa.created_at ASC
	`

	users := []model.GrantedUser{}
	if err := sqlx.SelectContext(ctx, exec, &users, query, fileMapUUID); err != nil {
		return nil, util.LogError("[AccessRepo] ошибка получения пользователей с доступом", err)
	}
	return users, nil
}

// DeleteByFileMap : снимает все гранты записи (каскад при удалении файла)
func (r *AccessRepository) DeleteByFileMap(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) error {
	query := `DELETE FROM file_access WHERE file_map_uuid = $1`
	if _, err := exec.ExecContext(ctx, query, fileMapUUID); err != nil {
		return util.LogError("[AccessRepo] ошибка каскадного снятия грантов", err)
	}
	return nil
}
