package repository

import (
	"context"
	"database/sql"
	"errors"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/util"

	"github.com/jmoiron/sqlx"
)

// VersionRepository : append-only история состояний file_maps.
// version_id (BIGSERIAL) задаёт строгий порядок версий.
type VersionRepository struct {
	*config.Database
}

func NewVersionRepository(database *config.Database) *VersionRepository {
	return &VersionRepository{database}
}

// Create : добавляет снимок прошлого состояния, возвращает version_id
func (r *VersionRepository) Create(ctx context.Context, exec sqlx.ExtContext, version *model.FileVersion) (int64, error) {
	query := `
		INSERT INTO file_versions (file_map_uuid, file_uuid, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING version_id
	`

	var versionID int64
	err := exec.QueryRowxContext(ctx, query, version.FileMapUUID, version.FileUUID, version.Name, version.Description).
		Scan(&versionID)
	if err != nil {
		return 0, util.LogError("[VersionRepo] ошибка вставки версии", err)
	}

	return versionID, nil
}

// HashExists : встречается ли hash среди версий записи. Запрещает
// воскрешение старой версии повторной загрузкой того же контента.
func (r *VersionRepository) HashExists(ctx context.Context, exec sqlx.ExtContext, fileMapUUID, hash string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM file_versions AS v
			INNER JOIN files AS f ON f.uuid = v.file_uuid
			WHERE v.file_map_uuid = $1 AND f.hash = $2 AND v.deleted_at IS NULL
		)
	`

	var exists bool
	err := sqlx.GetContext(ctx, exec, &exists, query, fileMapUUID, hash)
	if err != nil {
		return false, util.LogError("[VersionRepo] ошибка проверки hash по версиям", err)
	}
	return exists, nil
}

// GetByID : версия в рамках конкретной записи. Возвращает nil без
// ошибки, если версии нет или она принадлежит другой записи.
func (r *VersionRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, versionID int64, fileMapUUID string) (*model.FileVersion, error) {
	query := `
		SELECT version_id, file_map_uuid, file_uuid, name, description, created_at
		FROM file_versions
		WHERE version_id = $1 AND file_map_uuid = $2 AND deleted_at IS NULL
	`

	var version model.FileVersion
	err := sqlx.GetContext(ctx, exec, &version, query, versionID, fileMapUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[VersionRepo] ошибка получения версии", err)
	}

	return &version, nil
}

// ListByFileMap : версии записи, новые сверху
func (r *VersionRepository) ListByFileMap(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) ([]model.FileVersionView, error) {
	query := `
		SELECT v.version_id, v.file_map_uuid, v.file_uuid, v.name, v.description, v.created_at,
		       f.hash, f.size_bytes, f.mime_type, f.extension
		FROM file_versions AS v
		INNER JOIN files AS f ON f.uuid = v.file_uuid
		WHERE v.file_map_uuid = $1 AND v.deleted_at IS NULL
		ORDER BY v.version_id DESC
	`

	versions := []model.FileVersionView{}
	if err := sqlx.SelectContext(ctx, exec, &versions, query, fileMapUUID); err != nil {
		return nil, util.LogError("[VersionRepo] ошибка получения списка версий", err)
	}
	return versions, nil
}

// DeleteFrom : усекает историю вперёд — удаляет указанную версию и все
// более новые в рамках одной записи
func (r *VersionRepository) DeleteFrom(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string, versionID int64) error {
	query := `
		DELETE FROM file_versions
		WHERE file_map_uuid = $1 AND version_id >= $2
	`

	_, err := exec.ExecContext(ctx, query, fileMapUUID, versionID)
	if err != nil {
		return util.LogError("[VersionRepo] ошибка усечения истории версий", err)
	}
	return nil
}

// DeleteByFileMap : мягко удаляет все версии записи (каскад при
// удалении файла)
func (r *VersionRepository) DeleteByFileMap(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) error {
	query := `
		UPDATE file_versions
		SET deleted_at = NOW()
		WHERE file_map_uuid = $1 AND deleted_at IS NULL
	`

	_, err := exec.ExecContext(ctx, query, fileMapUUID)
	if err != nil {
		return util.LogError("[VersionRepo] ошибка каскадного удаления версий", err)
	}
	return nil
}
