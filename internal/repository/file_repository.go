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

// FileRepository : каталог уникальных блобов. Одна строка на hash,
// независимо от числа ссылающихся записей file_maps.
type FileRepository struct {
	*config.Database
}

func NewFileRepository(database *config.Database) *FileRepository {
	return &FileRepository{database}
}

// FindByHash : ищет блоб по отпечатку контента. Возвращает nil без
// ошибки, если блоба с таким hash нет.
func (r *FileRepository) FindByHash(ctx context.Context, exec sqlx.ExtContext, hash string) (*model.File, error) {
	query := `
		SELECT uuid, hash, storage_path, size_bytes, mime_type, extension, creator_uuid, created_at
		FROM files
		WHERE hash = $1 AND deleted_at IS NULL
	`

	var file model.File
	err := sqlx.GetContext(ctx, exec, &file, query, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[FileRepo] ошибка поиска блоба по hash", err)
	}

	return &file, nil
}

// Create : вставляет новую строку каталога. При гонке двух одинаковых
// загрузок проигравший получает ErrDuplicateHash по уникальному
// ограничению и должен перечитать строку победителя.
func (r *FileRepository) Create(ctx context.Context, exec sqlx.ExtContext, file *model.File) error {
	query := `
		INSERT INTO files (uuid, hash, storage_path, size_bytes, mime_type, extension, creator_uuid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := exec.ExecContext(
		ctx,
		query,
		file.UUID,
		file.Hash,
		file.StoragePath,
		file.SizeBytes,
		file.MimeType,
		file.Extension,
		file.CreatorUUID,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateHash
		}
		return util.LogError("[FileRepo] ошибка вставки блоба в каталог", err)
	}

	return nil
}
