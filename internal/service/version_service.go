package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/ports"
	"file-storage-server/internal/repository"
	"file-storage-server/internal/util"

	"github.com/google/uuid"
)

type VersionService struct {
	fileMapRepository ports.FileMapRepository
	fileRepository    ports.FileRepository
	versionRepository ports.VersionRepository
	accessRepository  ports.AccessRepository
	cacheRepository   ports.CacheRepository
	contentStore      ports.ContentStore
}

func NewVersionService(
	fileMapRepository ports.FileMapRepository,
	fileRepository ports.FileRepository,
	versionRepository ports.VersionRepository,
	accessRepository ports.AccessRepository,
	cacheRepository ports.CacheRepository,
	contentStore ports.ContentStore,
) *VersionService {
	return &VersionService{
		fileMapRepository: fileMapRepository,
		fileRepository:    fileRepository,
		versionRepository: versionRepository,
		accessRepository:  accessRepository,
		cacheRepository:   cacheRepository,
		contentStore:      contentStore,
	}
}

// Upload : загружает новую версию файла. Текущее состояние записи
// снимается в историю до перевода на новый блоб, так что история хранит
// только вытесненные состояния.
func (s *VersionService) Upload(ctx context.Context, fileMapUUID, creatorUUID string, staged *model.StagedUpload, name, description string) error {
	defer s.contentStore.Discard(staged.TempPath)

	hash, err := s.contentStore.Fingerprint(staged.TempPath)
	if err != nil {
		return util.LogError("[VersionService] не удалось вычислить отпечаток контента", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		err = s.uploadTx(ctx, fileMapUUID, creatorUUID, staged, hash, name, description)
		if errors.Is(err, repository.ErrDuplicateHash) {
			log.Printf("[VersionService] гонка вставки блоба %s, повтор", hash)
			continue
		}
		break
	}
	if err != nil {
		return err
	}

	if err := s.cacheRepository.DeleteFileEntry(ctx, fileMapUUID); err != nil {
		log.Printf("[VersionService] ошибка удаления записи из кэша: %v", err)
	}

	log.Printf("[VersionService] новая версия файла %s успешно загружена", fileMapUUID)
	return nil
}

func (s *VersionService) uploadTx(ctx context.Context, fileMapUUID, creatorUUID string, staged *model.StagedUpload, hash, name, description string) error {
	exec, rollback, commit, err := s.fileMapRepository.BeginTX(ctx)
	if err != nil {
		return util.LogError("[VersionService] не удалось начать транзакцию", err)
	}
	defer rollback()

	view, err := s.fileMapRepository.GetByUUID(ctx, exec, fileMapUUID)
	if err != nil {
		return util.LogError("[VersionService] ошибка получения записи файла", err)
	}
	if view == nil {
		return ErrFileNotFound
	}
	if view.CreatorUUID != creatorUUID {
		return ErrAccessDenied
	}

	if view.Hash == hash {
		return ErrDuplicateFile
	}

	seen, err := s.versionRepository.HashExists(ctx, exec, fileMapUUID, hash)
	if err != nil {
		return util.LogError("[VersionService] ошибка проверки истории версий", err)
	}
	if seen {
		return ErrDuplicateVersion
	}

	blob, err := s.fileRepository.FindByHash(ctx, exec, hash)
	if err != nil {
		return util.LogError("[VersionService] ошибка поиска блоба", err)
	}

	newBlob := false
	if blob == nil {
		blob = &model.File{
			UUID:        uuid.NewString(),
			Hash:        hash,
			StoragePath: s.contentStore.BlobPath(hash),
			SizeBytes:   staged.SizeBytes,
			MimeType:    staged.MimeType,
			Extension:   staged.Extension,
			CreatorUUID: creatorUUID,
		}
		if err := s.fileRepository.Create(ctx, exec, blob); err != nil {
			return err
		}
		newBlob = true
	}

	// снимок вытесняемого состояния
	snapshot := &model.FileVersion{
		FileMapUUID: fileMapUUID,
		FileUUID:    view.FileUUID,
		Name:        view.Name,
		Description: view.Description,
	}
	if _, err := s.versionRepository.Create(ctx, exec, snapshot); err != nil {
		return util.LogError("[VersionService] не удалось сохранить версию в историю", err)
	}

	if err := s.fileMapRepository.UpdateContent(ctx, exec, fileMapUUID, blob.UUID, name, description); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateFileMap):
			return ErrDuplicateVersion
		case errors.Is(err, repository.ErrDuplicateFileName):
			return ErrDuplicateName
		}
		return err
	}

	if newBlob {
		if err := s.contentStore.Commit(staged.TempPath, blob.StoragePath); err != nil {
			return util.LogError("[VersionService] не удалось сохранить контент на диск", err)
		}
	}

	if err := commit(); err != nil {
		return util.LogError("[VersionService] ошибка коммита транзакции", err)
	}

	return nil
}

// List : история версий записи, от новых к старым. Права на чтение —
// те же, что на сам файл.
func (s *VersionService) List(ctx context.Context, fileMapUUID, userUUID string) ([]model.FileVersionView, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[VersionService] database connection не найден в context")
	}

	view, err := s.fileMapRepository.GetByUUID(ctx, db, fileMapUUID)
	if err != nil {
		return nil, util.LogError("[VersionService] ошибка получения записи файла", err)
	}
	if view == nil {
		return nil, ErrFileNotFound
	}

	if view.CreatorUUID != userUUID && view.AccessType != model.AccessPublic {
		hasGrant := false
		if view.AccessType == model.AccessPartial {
			hasGrant, err = s.accessRepository.HasGrant(ctx, db, fileMapUUID, userUUID)
			if err != nil {
				return nil, util.LogError("[VersionService] ошибка проверки доступа", err)
			}
		}
		if !hasGrant {
			return nil, ErrAccessDenied
		}
	}

	versions, err := s.versionRepository.ListByFileMap(ctx, db, fileMapUUID)
	if err != nil {
		return nil, util.LogError("[VersionService] ошибка получения истории версий", err)
	}
	return versions, nil
}

// Restore : откатывает запись на сохранённую версию. Сама версия и все
// более поздние удаляются из истории без возможности redo.
func (s *VersionService) Restore(ctx context.Context, fileMapUUID string, versionID int64, creatorUUID string) error {
	exec, rollback, commit, err := s.fileMapRepository.BeginTX(ctx)
	if err != nil {
		return util.LogError("[VersionService] не удалось начать транзакцию", err)
	}
	defer rollback()

	view, err := s.fileMapRepository.GetByUUID(ctx, exec, fileMapUUID)
	if err != nil {
		return util.LogError("[VersionService] ошибка получения записи файла", err)
	}
	if view == nil {
		return ErrFileNotFound
	}
	if view.CreatorUUID != creatorUUID {
		return ErrAccessDenied
	}

	version, err := s.versionRepository.GetByID(ctx, exec, versionID, fileMapUUID)
	if err != nil {
		return util.LogError("[VersionService] ошибка поиска версии", err)
	}
	if version == nil {
		return ErrVersionNotFound
	}

	if err := s.fileMapRepository.UpdateContent(ctx, exec, fileMapUUID, version.FileUUID, version.Name, version.Description); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateFileMap):
			return ErrDuplicateVersion
		case errors.Is(err, repository.ErrDuplicateFileName):
			return ErrDuplicateName
		}
		return err
	}

	if err := s.versionRepository.DeleteFrom(ctx, exec, fileMapUUID, versionID); err != nil {
		return util.LogError("[VersionService] ошибка усечения истории версий", err)
	}

	if err := commit(); err != nil {
		return util.LogError("[VersionService] ошибка коммита транзакции", err)
	}

	if err := s.cacheRepository.DeleteFileEntry(ctx, fileMapUUID); err != nil {
		log.Printf("[VersionService] ошибка удаления записи из кэша: %v", err)
	}

	log.Printf("[VersionService] файл %s откатан на версию %d", fileMapUUID, versionID)
	return nil
}
