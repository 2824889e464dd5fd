package repository

import (
	"context"
	"database/sql"
	"errors"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type FileMapRepository struct {
	*config.Database
}

func NewFileMapRepository(database *config.Database) *FileMapRepository {
	return &FileMapRepository{database}
}

const fileMapViewColumns = `
	fm.uuid, fm.file_uuid, fm.directory_uuid, fm.name, fm.description,
	fm.access_type, fm.creator_uuid, fm.created_at, fm.updated_at,
	f.hash, f.storage_path, f.size_bytes, f.mime_type, f.extension,
	u.name AS creator_name
`

// Create : сохраняет новую запись логического файла
func (r *FileMapRepository) Create(ctx context.Context, exec sqlx.ExtContext, fileMap *model.FileMap) error {
	query := `
		INSERT INTO file_maps (uuid, file_uuid, directory_uuid, name, description, access_type, creator_uuid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := exec.ExecContext(
		ctx,
		query,
		fileMap.UUID,
		fileMap.FileUUID,
		fileMap.DirectoryUUID,
		fileMap.Name,
		fileMap.Description,
		fileMap.AccessType,
		fileMap.CreatorUUID,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "file_maps_file_directory_idx" {
				return ErrDuplicateFileMap
			}
			return ErrDuplicateFileName
		}
		return util.LogError("[FileMapRepo] ошибка вставки записи файла", err)
	}

	return nil
}

// GetByUUID : возвращает запись с атрибутами блоба и именем создателя.
// Возвращает nil без ошибки, если записи нет или она удалена.
func (r *FileMapRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.FileMapView, error) {
	query := `
		SELECT ` + fileMapViewColumns + `
		FROM file_maps AS fm
		INNER JOIN files AS f ON f.uuid = fm.file_uuid
		INNER JOIN users AS u ON u.uuid = fm.creator_uuid
		WHERE fm.uuid = $1 AND fm.deleted_at IS NULL
	`

	var view model.FileMapView
	err := sqlx.GetContext(ctx, exec, &view, query, uuid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[FileMapRepo] ошибка получения записи файла", err)
	}

	return &view, nil
}

// Exists : проверяет, что блоб уже отображён в эту директорию.
// IS NOT DISTINCT FROM нужен для сравнения NULL (корень) как значения.
func (r *FileMapRepository) Exists(ctx context.Context, exec sqlx.ExtContext, fileUUID string, directoryUUID *string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM file_maps
			WHERE file_uuid = $1
			  AND directory_uuid IS NOT DISTINCT FROM $2
			  AND deleted_at IS NULL
		)
	`

	var exists bool
	err := sqlx.GetContext(ctx, exec, &exists, query, fileUUID, directoryUUID)
	if err != nil {
		return false, util.LogError("[FileMapRepo] ошибка проверки дубликата файла", err)
	}
	return exists, nil
}

// NameExists : проверяет занятость имени в директории у пользователя,
// с исключением самой записи при переименовании
func (r *FileMapRepository) NameExists(ctx context.Context, exec sqlx.ExtContext, name string, directoryUUID *string, creatorUUID string, excludeUUID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM file_maps
			WHERE name = $1
			  AND directory_uuid IS NOT DISTINCT FROM $2
			  AND creator_uuid = $3
			  AND uuid <> $4
			  AND deleted_at IS NULL
		)
	`

	var exists bool
	err := sqlx.GetContext(ctx, exec, &exists, query, name, directoryUUID, creatorUUID, excludeUUID)
	if err != nil {
		return false, util.LogError("[FileMapRepo] ошибка проверки имени файла", err)
	}
	return exists, nil
}

// UpdateMetaData : обновляет имя и описание, не трогая версии
func (r *FileMapRepository) UpdateMetaData(ctx context.Context, exec sqlx.ExtContext, uuid, name, description string) error {
	query := `
		UPDATE file_maps
		SET name = $2, description = $3, updated_at = NOW()
		WHERE uuid = $1 AND deleted_at IS NULL
	`

	_, err := exec.ExecContext(ctx, query, uuid, name, description)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateFileName
		}
		return util.LogError("[FileMapRepo] ошибка обновления мета-данных", err)
	}
	return nil
}

// UpdateContent : переводит запись на новый блоб вместе с именем и
// описанием (загрузка новой версии и restore)
func (r *FileMapRepository) UpdateContent(ctx context.Context, exec sqlx.ExtContext, uuid, fileUUID, name, description string) error {
	query := `
		UPDATE file_maps
		SET file_uuid = $2, name = $3, description = $4, updated_at = NOW()
		WHERE uuid = $1 AND deleted_at IS NULL
	`

	_, err := exec.ExecContext(ctx, query, uuid, fileUUID, name, description)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "file_maps_file_directory_idx" {
				return ErrDuplicateFileMap
			}
			return ErrDuplicateFileName
		}
		return util.LogError("[FileMapRepo] ошибка смены контента записи", err)
	}
	return nil
}

// UpdateAccessType : обновляет политику доступа
func (r *FileMapRepository) UpdateAccessType(ctx context.Context, exec sqlx.ExtContext, uuid, accessType string) error {
	query := `
		UPDATE file_maps
		SET access_type = $2, updated_at = NOW()
		WHERE uuid = $1 AND deleted_at IS NULL
	`

	_, err := exec.ExecContext(ctx, query, uuid, accessType)
	if err != nil {
		return util.LogError("[FileMapRepo] ошибка обновления политики доступа", err)
	}
	return nil
}

// Delete : мягкое удаление записи
func (r *FileMapRepository) Delete(ctx context.Context, exec sqlx.ExtContext, uuid string) error {
	query := `UPDATE file_maps SET deleted_at = NOW() WHERE uuid = $1 AND deleted_at IS NULL`

	_, err := exec.ExecContext(ctx, query, uuid)
	if err != nil {
		return util.LogError("[FileMapRepo] ошибка удаления записи файла", err)
	}
	return nil
}

// Search : регистронезависимый поиск по имени или описанию файлов
// пользователя с OFFSET/LIMIT пагинацией
func (r *FileMapRepository) Search(ctx context.Context, exec sqlx.ExtContext, creatorUUID, query string, limit, offset int) (int, []model.FileMapView, error) {
	where := `
		FROM file_maps AS fm
		INNER JOIN files AS f ON f.uuid = fm.file_uuid
		INNER JOIN users AS u ON u.uuid = fm.creator_uuid
		WHERE fm.creator_uuid = $1
		  AND fm.deleted_at IS NULL
		  AND (fm.name ILIKE '%' || $2 || '%' OR fm.description ILIKE '%' || $2 || '%')
	`

	var total int
	if err := sqlx.GetContext(ctx, exec, &total, `SELECT COUNT(*) `+where, creatorUUID, query); err != nil {
		return 0, nil, util.LogError("[FileMapRepo] ошибка подсчёта результатов поиска", err)
	}

	views := []model.FileMapView{}
	listQuery := `SELECT ` + fileMapViewColumns + where + `
		ORDER BY fm.created_at DESC
		LIMIT $3 OFFSET $4
	`
	if err := sqlx.SelectContext(ctx, exec, &views, listQuery, creatorUUID, query, limit, offset); err != nil {
		return 0, nil, util.LogError("[FileMapRepo] ошибка поиска файлов", err)
	}

	return total, views, nil
}

// ListByDirectory : файлы пользователя в директории (NULL — корень)
func (r *FileMapRepository) ListByDirectory(ctx context.Context, exec sqlx.ExtContext, directoryUUID *string, creatorUUID string) ([]model.FileMapView, error) {
	query := `
		SELECT ` + fileMapViewColumns + `
		FROM file_maps AS fm
		INNER JOIN files AS f ON f.uuid = fm.file_uuid
		INNER JOIN users AS u ON u.uuid = fm.creator_uuid
		WHERE fm.directory_uuid IS NOT DISTINCT FROM $1
		  AND fm.creator_uuid = $2
		  AND fm.deleted_at IS NULL
		ORDER BY fm.created_at DESC
	`

	views := []model.FileMapView{}
	if err := sqlx.SelectContext(ctx, exec, &views, query, directoryUUID, creatorUUID); err != nil {
		return nil, util.LogError("[FileMapRepo] ошибка получения файлов директории", err)
	}
	return views, nil
}

// ListShared : записи, к которым пользователю выдан активный грант
func (r *FileMapRepository) ListShared(ctx context.Context, exec sqlx.ExtContext, userUUID string) ([]model.FileMapView, error) {
	query := `
		SELECT ` + fileMapViewColumns + `
		FROM file_maps AS fm
		INNER JOIN files AS f ON f.uuid = fm.file_uuid
		INNER JOIN users AS u ON u.uuid = fm.creator_uuid
		INNER JOIN file_access AS fa ON fa.file_map_uuid = fm.uuid
		WHERE fa.user_uuid = $1 AND fm.deleted_at IS NULL
		ORDER BY fa.created_at DESC
	`

	views := []model.FileMapView{}
	if err := sqlx.SelectContext(ctx, exec, &views, query, userUUID); err != nil {
		return nil, util.LogError("[FileMapRepo] ошибка получения расшаренных файлов", err)
	}
	return views, nil
}

func (r *FileMapRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, func() error { return tx.Rollback() }, func() error { return tx.Commit() }, nil
}
