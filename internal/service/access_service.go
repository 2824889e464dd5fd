package service

import (
	"context"
	"fmt"
	"log"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/ports"
	"file-storage-server/internal/util"
)

type AccessService struct {
	fileMapRepository ports.FileMapRepository
	accessRepository  ports.AccessRepository
	userRepository    ports.UserRepository
	cacheRepository   ports.CacheRepository
}

func NewAccessService(
	fileMapRepository ports.FileMapRepository,
	accessRepository ports.AccessRepository,
	userRepository ports.UserRepository,
	cacheRepository ports.CacheRepository,
) *AccessService {
	return &AccessService{
		fileMapRepository: fileMapRepository,
		accessRepository:  accessRepository,
		userRepository:    userRepository,
		cacheRepository:   cacheRepository,
	}
}

// SetAccess : устанавливает политику доступа к файлу. Для partial список
// allowedUserIDs применяется как diff к текущим грантам: лишние
// снимаются, недостающие выдаются. Владелец в гранты не попадает.
func (s *AccessService) SetAccess(ctx context.Context, fileMapUUID, ownerUUID, accessType string, allowedUserIDs []string) error {
	exec, rollback, commit, err := s.fileMapRepository.BeginTX(ctx)
	if err != nil {
		return util.LogError("[AccessService] не удалось начать транзакцию", err)
	}
	defer rollback()

	view, err := s.fileMapRepository.GetByUUID(ctx, exec, fileMapUUID)
	if err != nil {
		return util.LogError("[AccessService] ошибка получения записи файла", err)
	}
	if view == nil {
		return ErrFileNotFound
	}
	if view.CreatorUUID != ownerUUID {
		return ErrAccessDenied
	}

	allowed := make(map[string]bool)
	if accessType == model.AccessPartial {
		candidates := make([]string, 0, len(allowedUserIDs))
		for _, id := range allowedUserIDs {
			if id == ownerUUID || allowed[id] {
				continue
			}
			allowed[id] = true
			candidates = append(candidates, id)
		}

		missing, err := s.userRepository.FilterMissing(ctx, exec, candidates)
		if err != nil {
			return util.LogError("[AccessService] ошибка проверки пользователей", err)
		}
		if len(missing) > 0 {
			return &InvalidUserIdsError{UserIDs: missing}
		}
	}

	if err := s.fileMapRepository.UpdateAccessType(ctx, exec, fileMapUUID, accessType); err != nil {
		return err
	}

	current, err := s.accessRepository.ListUserUUIDs(ctx, exec, fileMapUUID)
	if err != nil {
		return util.LogError("[AccessService] ошибка получения текущих грантов", err)
	}

	var toRemove, toAdd []string
	currentSet := make(map[string]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
		if !allowed[id] {
			toRemove = append(toRemove, id)
		}
	}
	for id := range allowed {
		if !currentSet[id] {
			toAdd = append(toAdd, id)
		}
	}

	if len(toRemove) > 0 {
		if err := s.accessRepository.RemoveGrants(ctx, exec, fileMapUUID, toRemove); err != nil {
			return util.LogError("[AccessService] ошибка снятия грантов", err)
		}
	}
	if len(toAdd) > 0 {
		if err := s.accessRepository.AddGrants(ctx, exec, fileMapUUID, toAdd); err != nil {
			return util.LogError("[AccessService] ошибка выдачи грантов", err)
		}
	}

	if err := commit(); err != nil {
		return util.LogError("[AccessService] ошибка коммита транзакции", err)
	}

	if err := s.cacheRepository.DeleteFileEntry(ctx, fileMapUUID); err != nil {
		log.Printf("[AccessService] ошибка удаления записи из кэша: %v", err)
	}

	log.Printf("[AccessService] политика доступа файла %s изменена на %s", fileMapUUID, accessType)
	return nil
}

// RemoveAccess : снимает грант с одного пользователя, идемпотентно
func (s *AccessService) RemoveAccess(ctx context.Context, fileMapUUID, ownerUUID, targetUserUUID string) error {
	exec, rollback, commit, err := s.fileMapRepository.BeginTX(ctx)
	if err != nil {
		return util.LogError("[AccessService] не удалось начать транзакцию", err)
	}
	defer rollback()

	view, err := s.fileMapRepository.GetByUUID(ctx, exec, fileMapUUID)
	if err != nil {
		return util.LogError("[AccessService] ошибка получения записи файла", err)
	}
	if view == nil {
		return ErrFileNotFound
	}
	if view.CreatorUUID != ownerUUID {
		return ErrAccessDenied
	}

	if err := s.accessRepository.RemoveGrant(ctx, exec, fileMapUUID, targetUserUUID); err != nil {
		return util.LogError("[AccessService] ошибка снятия гранта", err)
	}

	if err := commit(); err != nil {
		return util.LogError("[AccessService] ошибка коммита транзакции", err)
	}

	if err := s.cacheRepository.DeleteFileEntry(ctx, fileMapUUID); err != nil {
		log.Printf("[AccessService] ошибка удаления записи из кэша: %v", err)
	}

	return nil
}

// ListGrantedUsers : пользователи с активным грантом, только для владельца
func (s *AccessService) ListGrantedUsers(ctx context.Context, fileMapUUID, ownerUUID string) ([]model.GrantedUser, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[AccessService] database connection не найден в context")
	}

	view, err := s.fileMapRepository.GetByUUID(ctx, db, fileMapUUID)
	if err != nil {
		return nil, util.LogError("[AccessService] ошибка получения записи файла", err)
	}
	if view == nil {
		return nil, ErrFileNotFound
	}
	if view.CreatorUUID != ownerUUID {
		return nil, ErrAccessDenied
	}

	users, err := s.accessRepository.ListGrantedUsers(ctx, db, fileMapUUID)
	if err != nil {
		return nil, util.LogError("[AccessService] ошибка получения списка грантов", err)
	}
	return users, nil
}
