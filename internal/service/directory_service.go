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

type DirectoryService struct {
	directoryRepository ports.DirectoryRepository
	cacheRepository     ports.CacheRepository
}

func NewDirectoryService(directoryRepository ports.DirectoryRepository, cacheRepository ports.CacheRepository) *DirectoryService {
	return &DirectoryService{
		directoryRepository: directoryRepository,
		cacheRepository:     cacheRepository,
	}
}

// Create : создаёт директорию, при parentUUID == nil — в корне.
// Имя должно быть уникально среди директорий того же родителя.
func (s *DirectoryService) Create(ctx context.Context, name string, parentUUID *string, creatorUUID string) (string, error) {
	exec, rollback, commit, err := s.directoryRepository.BeginTX(ctx)
	if err != nil {
		return "", util.LogError("[DirectoryService] не удалось начать транзакцию", err)
	}
	defer rollback()

	if parentUUID != nil {
		parent, err := s.directoryRepository.FindByUUID(ctx, exec, *parentUUID, creatorUUID)
		if err != nil {
			return "", util.LogError("[DirectoryService] ошибка поиска родительской директории", err)
		}
		if parent == nil {
			return "", ErrDirectoryNotFound
		}
	}

	taken, err := s.directoryRepository.NameExists(ctx, exec, name, parentUUID, creatorUUID, "")
	if err != nil {
		return "", util.LogError("[DirectoryService] ошибка проверки имени директории", err)
	}
	if taken {
		return "", ErrDirectoryExists
	}

	directory := &model.Directory{
		UUID:        uuid.NewString(),
		Name:        name,
		ParentUUID:  parentUUID,
		CreatorUUID: creatorUUID,
	}
	if err := s.directoryRepository.Create(ctx, exec, directory); err != nil {
		// проверка имени выше не видит параллельную вставку,
		// последним рубежом стоит уникальный индекс
		if errors.Is(err, repository.ErrDuplicateDirectoryName) {
			return "", ErrDirectoryExists
		}
		return "", err
	}

	if err := commit(); err != nil {
		return "", util.LogError("[DirectoryService] ошибка коммита транзакции", err)
	}

	log.Printf("[DirectoryService] директория %s успешно создана", name)
	return directory.UUID, nil
}

// Rename : переименование с проверкой уникальности среди соседей
func (s *DirectoryService) Rename(ctx context.Context, directoryUUID, creatorUUID, newName string) error {
	exec, rollback, commit, err := s.directoryRepository.BeginTX(ctx)
	if err != nil {
		return util.LogError("[DirectoryService] не удалось начать транзакцию", err)
	}
	defer rollback()

	directory, err := s.directoryRepository.FindByUUID(ctx, exec, directoryUUID, creatorUUID)
	if err != nil {
		return util.LogError("[DirectoryService] ошибка поиска директории", err)
	}
	if directory == nil {
		return ErrDirectoryNotFound
	}

	taken, err := s.directoryRepository.NameExists(ctx, exec, newName, directory.ParentUUID, creatorUUID, directoryUUID)
	if err != nil {
		return util.LogError("[DirectoryService] ошибка проверки имени директории", err)
	}
	if taken {
		return ErrDirectoryExists
	}

	if err := s.directoryRepository.Rename(ctx, exec, directoryUUID, newName); err != nil {
		if errors.Is(err, repository.ErrDuplicateDirectoryName) {
			return ErrDirectoryExists
		}
		return err
	}

	if err := commit(); err != nil {
		return util.LogError("[DirectoryService] ошибка коммита транзакции", err)
	}

	return nil
}

// Delete : удаляет директорию вместе со всем поддеревом. Записи файлов
// внутри помечаются удалёнными, блобы остаются в каталоге.
func (s *DirectoryService) Delete(ctx context.Context, directoryUUID, creatorUUID string) error {
	exec, rollback, commit, err := s.directoryRepository.BeginTX(ctx)
	if err != nil {
		return util.LogError("[DirectoryService] не удалось начать транзакцию", err)
	}
	defer rollback()

	directory, err := s.directoryRepository.FindByUUID(ctx, exec, directoryUUID, creatorUUID)
	if err != nil {
		return util.LogError("[DirectoryService] ошибка поиска директории", err)
	}
	if directory == nil {
		return ErrDirectoryNotFound
	}

	deletedFiles, err := s.directoryRepository.DeleteSubtree(ctx, exec, directoryUUID, creatorUUID)
	if err != nil {
		return util.LogError("[DirectoryService] ошибка удаления поддерева", err)
	}

	if err := commit(); err != nil {
		return util.LogError("[DirectoryService] ошибка коммита транзакции", err)
	}

	// записи файлов поддерева могли быть прогреты в кэше до удаления
	for _, fileMapUUID := range deletedFiles {
		if err := s.cacheRepository.DeleteFileEntry(ctx, fileMapUUID); err != nil {
			log.Printf("[DirectoryService] ошибка удаления записи из кэша: %v", err)
		}
	}

	log.Printf("[DirectoryService] директория %s удалена, файлов затронуто: %d", directory.Name, len(deletedFiles))
	return nil
}

// ListChildren : дочерние директории, nil — корень
func (s *DirectoryService) ListChildren(ctx context.Context, parentUUID *string, creatorUUID string) ([]model.Directory, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[DirectoryService] database connection не найден в context")
	}

	if parentUUID != nil {
		parent, err := s.directoryRepository.FindByUUID(ctx, db, *parentUUID, creatorUUID)
		if err != nil {
			return nil, util.LogError("[DirectoryService] ошибка поиска директории", err)
		}
		if parent == nil {
			return nil, ErrDirectoryNotFound
		}
	}

	directories, err := s.directoryRepository.ListChildren(ctx, db, parentUUID, creatorUUID)
	if err != nil {
		return nil, util.LogError("[DirectoryService] ошибка получения списка директорий", err)
	}
	return directories, nil
}
