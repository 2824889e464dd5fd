package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/ports"
	"file-storage-server/internal/repository"
	"file-storage-server/internal/util"

	"github.com/google/uuid"
)

type FileMapService struct {
	fileMapRepository   ports.FileMapRepository
	fileRepository      ports.FileRepository
	directoryRepository ports.DirectoryRepository
	versionRepository   ports.VersionRepository
	accessRepository    ports.AccessRepository
	cacheRepository     ports.CacheRepository
	contentStore        ports.ContentStore
}

func NewFileMapService(
	fileMapRepository ports.FileMapRepository,
	fileRepository ports.FileRepository,
	directoryRepository ports.DirectoryRepository,
	versionRepository ports.VersionRepository,
	accessRepository ports.AccessRepository,
	cacheRepository ports.CacheRepository,
	contentStore ports.ContentStore,
) *FileMapService {
	return &FileMapService{
		fileMapRepository:   fileMapRepository,
		fileRepository:      fileRepository,
		directoryRepository: directoryRepository,
		versionRepository:   versionRepository,
		accessRepository:    accessRepository,
		cacheRepository:     cacheRepository,
		contentStore:        contentStore,
	}
}

// Upload : принимает подготовленный временный файл, дедуплицирует контент
// по отпечатку и создаёт запись в директории. Временный файл убирается
// на любом исходе.
func (s *FileMapService) Upload(ctx context.Context, staged *model.StagedUpload, name, description string, directoryUUID *string, creatorUUID string) (string, error) {
	defer s.contentStore.Discard(staged.TempPath)

	hash, err := s.contentStore.Fingerprint(staged.TempPath)
	if err != nil {
		return "", util.LogError("[FileMapService] не удалось вычислить отпечаток контента", err)
	}

	// При гонке двух одинаковых загрузок проигравшая транзакция
	// откатывается целиком, перечитать строку победителя можно
	// только в новой.
	var fileMapUUID string
	for attempt := 0; attempt < 2; attempt++ {
		fileMapUUID, err = s.uploadTx(ctx, staged, hash, name, description, directoryUUID, creatorUUID)
		if errors.Is(err, repository.ErrDuplicateHash) {
			log.Printf("[FileMapService] гонка вставки блоба %s, повтор", hash)
			continue
		}
		break
	}
	if err != nil {
		return "", err
	}

	log.Printf("[FileMapService] файл %s успешно загружен", name)
	return fileMapUUID, nil
}

func (s *FileMapService) uploadTx(ctx context.Context, staged *model.StagedUpload, hash, name, description string, directoryUUID *string, creatorUUID string) (string, error) {
	exec, rollback, commit, err := s.fileMapRepository.BeginTX(ctx)
	if err != nil {
		return "", util.LogError("[FileMapService] не удалось начать транзакцию", err)
	}
	defer rollback()

	if directoryUUID != nil {
		directory, err := s.directoryRepository.FindByUUID(ctx, exec, *directoryUUID, creatorUUID)
		if err != nil {
			return "", util.LogError("[FileMapService] ошибка поиска директории", err)
		}
		if directory == nil {
			return "", ErrDirectoryNotFound
		}
	}

	blob, err := s.fileRepository.FindByHash(ctx, exec, hash)
	if err != nil {
		return "", util.LogError("[FileMapService] ошибка поиска блоба", err)
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
			return "", err
		}
		newBlob = true
	}

	exists, err := s.fileMapRepository.Exists(ctx, exec, blob.UUID, directoryUUID)
	if err != nil {
		return "", util.LogError("[FileMapService] ошибка проверки дубликата", err)
	}
	if exists {
		return "", ErrDuplicateFile
	}

	taken, err := s.fileMapRepository.NameExists(ctx, exec, name, directoryUUID, creatorUUID, "")
	if err != nil {
		return "", util.LogError("[FileMapService] ошибка проверки имени", err)
	}
	if taken {
		return "", ErrDuplicateName
	}

	fileMap := &model.FileMap{
		UUID:          uuid.NewString(),
		FileUUID:      blob.UUID,
		DirectoryUUID: directoryUUID,
		Name:          name,
		Description:   description,
		AccessType:    model.AccessPrivate,
		CreatorUUID:   creatorUUID,
	}
	if err := s.fileMapRepository.Create(ctx, exec, fileMap); err != nil {
		// проверки выше не видят параллельную вставку, дубликаты имени
		// и содержимого директории добивают уникальные индексы
		switch {
		case errors.Is(err, repository.ErrDuplicateFileMap):
			return "", ErrDuplicateFile
		case errors.Is(err, repository.ErrDuplicateFileName):
			return "", ErrDuplicateName
		}
		return "", err
	}

	if newBlob {
		if err := s.contentStore.Commit(staged.TempPath, blob.StoragePath); err != nil {
			return "", util.LogError("[FileMapService] не удалось сохранить контент на диск", err)
		}
	}

	if err := commit(); err != nil {
		return "", util.LogError("[FileMapService] ошибка коммита транзакции", err)
	}

	return fileMap.UUID, nil
}

// GetByID : возвращает запись файла с учётом политики доступа.
// Метаданные берутся из кэша Redis, при промахе — из БД с прогревом кэша.
func (s *FileMapService) GetByID(ctx context.Context, fileMapUUID, userUUID string) (*model.FileMapView, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[FileMapService] database connection не найден в context")
	}

	view, err := s.cacheRepository.GetFileEntry(ctx, fileMapUUID)
	if err != nil {
		log.Printf("[FileMapService] ошибка кэширования: %v", err)
	}

	if view == nil {
		view, err = s.fileMapRepository.GetByUUID(ctx, db, fileMapUUID)
		if err != nil {
			return nil, util.LogError("[FileMapService] ошибка получения записи файла", err)
		}
		if view == nil {
			return nil, ErrFileNotFound
		}

		if err := s.cacheRepository.SetFileEntry(ctx, view); err != nil {
			log.Printf("[FileMapService] ошибка кэширования записи файла: %v", err)
		}
	} else {
		log.Printf("[FileMapService] запись файла %s взята из кэша Redis", fileMapUUID)
	}

	if err := s.checkReadAccess(ctx, db, view, userUUID); err != nil {
		return nil, err
	}

	return view, nil
}

// Download : открывает контент файла на чтение. Права проверяются так же,
// как при чтении метаданных.
func (s *FileMapService) Download(ctx context.Context, fileMapUUID, userUUID string) (io.ReadCloser, *model.FileMapView, error) {
	view, err := s.GetByID(ctx, fileMapUUID, userUUID)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.contentStore.Open(view.StoragePath)
	if err != nil {
		return nil, nil, util.LogError("[FileMapService] не удалось открыть контент файла", err)
	}

	return reader, view, nil
}

// UpdateMetaData : переименование и смена описания, только владельцем
func (s *FileMapService) UpdateMetaData(ctx context.Context, fileMapUUID, creatorUUID, name, description string) error {
	exec, rollback, commit, err := s.fileMapRepository.BeginTX(ctx)
	if err != nil {
		return util.LogError("[FileMapService] не удалось начать транзакцию", err)
	}
	defer rollback()

	view, err := s.fileMapRepository.GetByUUID(ctx, exec, fileMapUUID)
	if err != nil {
		return util.LogError("[FileMapService] ошибка получения записи файла", err)
	}
	if view == nil {
		return ErrFileNotFound
	}
	if view.CreatorUUID != creatorUUID {
		return ErrAccessDenied
	}

	taken, err := s.fileMapRepository.NameExists(ctx, exec, name, view.DirectoryUUID, creatorUUID, fileMapUUID)
	if err != nil {
		return util.LogError("[FileMapService] ошибка проверки имени", err)
	}
	if taken {
		return ErrDuplicateName
	}

	if err := s.fileMapRepository.UpdateMetaData(ctx, exec, fileMapUUID, name, description); err != nil {
		if errors.Is(err, repository.ErrDuplicateFileName) {
			return ErrDuplicateName
		}
		return err
	}

	if err := commit(); err != nil {
		return util.LogError("[FileMapService] ошибка коммита транзакции", err)
	}

	if err := s.cacheRepository.DeleteFileEntry(ctx, fileMapUUID); err != nil {
		log.Printf("[FileMapService] ошибка удаления записи из кэша: %v", err)
	}

	return nil
}

// Delete : мягко удаляет запись вместе с её историей версий и грантами.
// Блоб остаётся в каталоге, на него могут ссылаться другие записи.
func (s *FileMapService) Delete(ctx context.Context, fileMapUUID, creatorUUID string) error {
	exec, rollback, commit, err := s.fileMapRepository.BeginTX(ctx)
	if err != nil {
		return util.LogError("[FileMapService] не удалось начать транзакцию", err)
	}
	defer rollback()

	view, err := s.fileMapRepository.GetByUUID(ctx, exec, fileMapUUID)
	if err != nil {
		return util.LogError("[FileMapService] ошибка получения записи файла", err)
	}
	if view == nil {
		return ErrFileNotFound
	}
	if view.CreatorUUID != creatorUUID {
		return ErrAccessDenied
	}

	if err := s.fileMapRepository.Delete(ctx, exec, fileMapUUID); err != nil {
		return err
	}
	if err := s.versionRepository.DeleteByFileMap(ctx, exec, fileMapUUID); err != nil {
		return err
	}
	if err := s.accessRepository.DeleteByFileMap(ctx, exec, fileMapUUID); err != nil {
		return err
	}

	if err := commit(); err != nil {
		return util.LogError("[FileMapService] ошибка коммита транзакции", err)
	}

	if err := s.cacheRepository.DeleteFileEntry(ctx, fileMapUUID); err != nil {
		log.Printf("[FileMapService] ошибка удаления записи из кэша: %v", err)
	}

	log.Printf("[FileMapService] файл %s успешно удалён", view.Name)
	return nil
}

// Search : поиск по имени и описанию среди файлов пользователя
func (s *FileMapService) Search(ctx context.Context, creatorUUID, query string, page, limit int) (int, []model.FileMapView, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return 0, nil, fmt.Errorf("[FileMapService] database connection не найден в context")
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, views, err := s.fileMapRepository.Search(ctx, db, creatorUUID, query, limit, (page-1)*limit)
	if err != nil {
		return 0, nil, util.LogError("[FileMapService] ошибка поиска файлов", err)
	}

	return total, views, nil
}

// ListByDirectory : содержимое директории пользователя, nil — корень
func (s *FileMapService) ListByDirectory(ctx context.Context, directoryUUID *string, creatorUUID string) ([]model.FileMapView, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[FileMapService] database connection не найден в context")
	}

	if directoryUUID != nil {
		directory, err := s.directoryRepository.FindByUUID(ctx, db, *directoryUUID, creatorUUID)
		if err != nil {
			return nil, util.LogError("[FileMapService] ошибка поиска директории", err)
		}
		if directory == nil {
			return nil, ErrDirectoryNotFound
		}
	}

	views, err := s.fileMapRepository.ListByDirectory(ctx, db, directoryUUID, creatorUUID)
	if err != nil {
		return nil, util.LogError("[FileMapService] ошибка получения файлов директории", err)
	}
	return views, nil
}

// ListShared : файлы других пользователей, доступные по грантам
func (s *FileMapService) ListShared(ctx context.Context, userUUID string) ([]model.FileMapView, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[FileMapService] database connection не найден в context")
	}

	views, err := s.fileMapRepository.ListShared(ctx, db, userUUID)
	if err != nil {
		return nil, util.LogError("[FileMapService] ошибка получения расшаренных файлов", err)
	}
	return views, nil
}

// checkReadAccess : владелец видит всегда, public — все, partial — по гранту
func (s *FileMapService) checkReadAccess(ctx context.Context, db *config.Database, view *model.FileMapView, userUUID string) error {
	if view.CreatorUUID == userUUID || view.AccessType == model.AccessPublic {
		return nil
	}
	if view.AccessType == model.AccessPartial {
		hasGrant, err := s.accessRepository.HasGrant(ctx, db, view.UUID, userUUID)
		if err != nil {
			return util.LogError("[FileMapService] ошибка проверки доступа", err)
		}
		if hasGrant {
			return nil
		}
	}
	return ErrAccessDenied
}
