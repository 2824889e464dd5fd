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

type DirectoryRepository struct {
	*config.Database
}

func NewDirectoryRepository(database *config.Database) *DirectoryRepository {
	return &DirectoryRepository{database}
}

// FindByUUID : существование + владение одной проверкой. Возвращает nil
// без ошибки, если директории нет, она чужая или удалена.
func (r *DirectoryRepository) FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid, creatorUUID string) (*model.Directory, error) {
	query := `
		SELECT uuid, name, parent_uuid, creator_uuid, created_at, updated_at
		FROM directories
		WHERE uuid = $1 AND creator_uuid = $2 AND deleted_at IS NULL
	`

	var directory model.Directory
	err := sqlx.GetContext(ctx, exec, &directory, query, uuid, creatorUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[DirectoryRepo] ошибка поиска директории", err)
	}

	return &directory, nil
}

// NameExists : занято ли имя среди живых соседей по родителю
func (r *DirectoryRepository) NameExists(ctx context.Context, exec sqlx.ExtContext, name string, parentUUID *string, creatorUUID string, excludeUUID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM directories
			WHERE name = $1
			  AND parent_uuid IS NOT DISTINCT FROM $2
			  AND creator_uuid = $3
			  AND uuid <> $4
			  AND deleted_at IS NULL
		)
	`

	var exists bool
	err := sqlx.GetContext(ctx, exec, &exists, query, name, parentUUID, creatorUUID, excludeUUID)
	if err != nil {
		return false, util.LogError("[DirectoryRepo] ошибка проверки имени директории", err)
	}
	return exists, nil
}

// Create : вставляет новую директорию
func (r *DirectoryRepository) Create(ctx context.Context, exec sqlx.ExtContext, directory *model.Directory) error {
	query := `
		INSERT INTO directories (uuid, name, parent_uuid, creator_uuid)
		VALUES ($1, $2, $3, $4)
	`

	_, err := exec.ExecContext(ctx, query, directory.UUID, directory.Name, directory.ParentUUID, directory.CreatorUUID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateDirectoryName
		}
		return util.LogError("[DirectoryRepo] ошибка создания директории", err)
	}
	return nil
}

// Rename : обновляет имя директории
func (r *DirectoryRepository) Rename(ctx context.Context, exec sqlx.ExtContext, uuid, name string) error {
	query := `
		UPDATE directories
		SET name = $2, updated_at = NOW()
		WHERE uuid = $1 AND deleted_at IS NULL
	`

	_, err := exec.ExecContext(ctx, query, uuid, name)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateDirectoryName
		}
		return util.LogError("[DirectoryRepo] ошибка переименования директории", err)
	}
	return nil
}

// DeleteSubtree : мягко удаляет директорию вместе со всем поддеревом и
// файлами в нём. Возвращает uuid удалённых записей файлов, чтобы
// вызывающий инвалидировал их в кэше.
func (r *DirectoryRepository) DeleteSubtree(ctx context.Context, exec sqlx.ExtContext, uuid, creatorUUID string) ([]string, error) {
	subtreeQuery := `
		WITH RECURSIVE subtree AS (
			SELECT uuid
			FROM directories
			WHERE uuid = $1 AND creator_uuid = $2 AND deleted_at IS NULL
			UNION ALL
			SELECT d.uuid
			FROM directories AS d
			INNER JOIN subtree AS s ON d.parent_uuid = s.uuid
			WHERE d.deleted_at IS NULL
		)
		UPDATE directories
		SET deleted_at = NOW()
		WHERE uuid IN (SELECT uuid FROM subtree)
		RETURNING uuid
	`

	var deletedDirs []string
	if err := sqlx.SelectContext(ctx, exec, &deletedDirs, subtreeQuery, uuid, creatorUUID); err != nil {
		return nil, util.LogError("[DirectoryRepo] ошибка удаления поддерева директорий", err)
	}

	if len(deletedDirs) == 0 {
		return nil, nil
	}

	filesQuery := `
		UPDATE file_maps
		SET deleted_at = NOW()
		WHERE directory_uuid = ANY($1) AND deleted_at IS NULL
		RETURNING uuid
	`

	var deletedFiles []string
	if err := sqlx.SelectContext(ctx, exec, &deletedFiles, filesQuery, pq.Array(deletedDirs)); err != nil {
		return nil, util.LogError("[DirectoryRepo] ошибка удаления файлов поддерева", err)
	}

	return deletedFiles, nil
}

// ListChildren : плоский список директорий одного уровня (NULL — корень)
func (r *DirectoryRepository) ListChildren(ctx context.Context, exec sqlx.ExtContext, parentUUID *string, creatorUUID string) ([]model.Directory, error) {
	query := `
		SELECT uuid, name, parent_uuid, creator_uuid, created_at, updated_at
		FROM directories
		WHERE parent_uuid IS NOT DISTINCT FROM $1
		  AND creator_uuid = $2
		  AND deleted_at IS NULL
		ORDER BY name ASC
	`

	directories := []model.Directory{}
	if err := sqlx.SelectContext(ctx, exec, &directories, query, parentUUID, creatorUUID); err != nil {
		return nil, util.LogError("[DirectoryRepo] ошибка получения списка директорий", err)
	}
	return directories, nil
}

func (r *DirectoryRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, func() error { return tx.Rollback() }, func() error { return tx.Commit() }, nil
}
