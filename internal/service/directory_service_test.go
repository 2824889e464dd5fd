package service_test

import (
	"testing"

	"file-storage-server/internal/model"
	"file-storage-server/internal/repository"
	"file-storage-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDirectoryCreateInRoot(t *testing.T) {
	directoryRepo := new(MockDirectoryRepository)
	cacheRepo := new(MockCacheRepository)

	directoryRepo.On("BeginTX", mock.Anything).Return(nil)
	directoryRepo.On("NameExists", mock.Anything, mock.Anything, "Documents", (*string)(nil), testOwner, "").Return(false, nil)
	directoryRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(d *model.Directory) bool {
		return d.Name == "Documents" && d.ParentUUID == nil && d.CreatorUUID == testOwner
	})).Return(nil)

	svc := service.NewDirectoryService(directoryRepo, cacheRepo)

	directoryUUID, err := svc.Create(newTestContext(t), "Documents", nil, testOwner)
	require.NoError(t, err)
	assert.NotEmpty(t, directoryUUID)
}

func TestDirectoryCreateMissingParent(t *testing.T) {
	directoryRepo := new(MockDirectoryRepository)
	cacheRepo := new(MockCacheRepository)
	parentUUID := "ghost-dir"

	directoryRepo.On("BeginTX", mock.Anything).Return(nil)
	directoryRepo.On("FindByUUID", mock.Anything, mock.Anything, parentUUID, testOwner).Return(nil, nil)

	svc := service.NewDirectoryService(directoryRepo, cacheRepo)

	_, err := svc.Create(newTestContext(t), "Documents", &parentUUID, testOwner)
	assert.ErrorIs(t, err, service.ErrDirectoryNotFound)
	directoryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestDirectoryCreateNameTaken(t *testing.T) {
	directoryRepo := new(MockDirectoryRepository)
	cacheRepo := new(MockCacheRepository)

	directoryRepo.On("BeginTX", mock.Anything).Return(nil)
	directoryRepo.On("NameExists", mock.Anything, mock.Anything, "Documents", (*string)(nil), testOwner, "").Return(true, nil)

	svc := service.NewDirectoryService(directoryRepo, cacheRepo)

	_, err := svc.Create(newTestContext(t), "Documents", nil, testOwner)
	assert.ErrorIs(t, err, service.ErrDirectoryExists)
}

// Параллельный create успевает вставить то же имя между проверкой и
// вставкой, уникальный индекс возвращает конфликт вместо второй копии.
func TestDirectoryCreateConcurrentNameRace(t *testing.T) {
	directoryRepo := new(MockDirectoryRepository)
	cacheRepo := new(MockCacheRepository)

	directoryRepo.On("BeginTX", mock.Anything).Return(nil)
	directoryRepo.On("NameExists", mock.Anything, mock.Anything, "Documents", (*string)(nil), testOwner, "").Return(false, nil)
	directoryRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(repository.ErrDuplicateDirectoryName)

	svc := service.NewDirectoryService(directoryRepo, cacheRepo)

	_, err := svc.Create(newTestContext(t), "Documents", nil, testOwner)
	assert.ErrorIs(t, err, service.ErrDirectoryExists)
}

func TestDirectoryRenameConflict(t *testing.T) {
	directoryRepo := new(MockDirectoryRepository)
	cacheRepo := new(MockCacheRepository)
	directory := &model.Directory{UUID: "dir-uuid", Name: "Old", CreatorUUID: testOwner}

	directoryRepo.On("BeginTX", mock.Anything).Return(nil)
	directoryRepo.On("FindByUUID", mock.Anything, mock.Anything, "dir-uuid", testOwner).Return(directory, nil)
	directoryRepo.On("NameExists", mock.Anything, mock.Anything, "New", (*string)(nil), testOwner, "dir-uuid").Return(true, nil)

	svc := service.NewDirectoryService(directoryRepo, cacheRepo)

	err := svc.Rename(newTestContext(t), "dir-uuid", testOwner, "New")
	assert.ErrorIs(t, err, service.ErrDirectoryExists)
	directoryRepo.AssertNotCalled(t, "Rename", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDirectoryRenameConcurrentNameRace(t *testing.T) {
	directoryRepo := new(MockDirectoryRepository)
	cacheRepo := new(MockCacheRepository)
	directory := &model.Directory{UUID: "dir-uuid", Name: "Old", CreatorUUID: testOwner}

	directoryRepo.On("BeginTX", mock.Anything).Return(nil)
	directoryRepo.On("FindByUUID", mock.Anything, mock.Anything, "dir-uuid", testOwner).Return(directory, nil)
	directoryRepo.On("NameExists", mock.Anything, mock.Anything, "New", (*string)(nil), testOwner, "dir-uuid").Return(false, nil)
	directoryRepo.On("Rename", mock.Anything, mock.Anything, "dir-uuid", "New").Return(repository.ErrDuplicateDirectoryName)

	svc := service.NewDirectoryService(directoryRepo, cacheRepo)

	err := svc.Rename(newTestContext(t), "dir-uuid", testOwner, "New")
	assert.ErrorIs(t, err, service.ErrDirectoryExists)
}

func TestDirectoryDeleteSubtree(t *testing.T) {
	directoryRepo := new(MockDirectoryRepository)
	cacheRepo := new(MockCacheRepository)
	directory := &model.Directory{UUID: "dir-uuid", Name: "Documents", CreatorUUID: testOwner}

	directoryRepo.On("BeginTX", mock.Anything).Return(nil)
	directoryRepo.On("FindByUUID", mock.Anything, mock.Anything, "dir-uuid", testOwner).Return(directory, nil)
	directoryRepo.On("DeleteSubtree", mock.Anything, mock.Anything, "dir-uuid", testOwner).Return([]string{"map-1", "map-2"}, nil)
	cacheRepo.On("DeleteFileEntry", mock.Anything, mock.Anything).Return(nil)

	svc := service.NewDirectoryService(directoryRepo, cacheRepo)

	require.NoError(t, svc.Delete(newTestContext(t), "dir-uuid", testOwner))
	directoryRepo.AssertCalled(t, "DeleteSubtree", mock.Anything, mock.Anything, "dir-uuid", testOwner)

	// прогретые записи файлов поддерева не должны пережить удаление в кэше
	cacheRepo.AssertCalled(t, "DeleteFileEntry", mock.Anything, "map-1")
	cacheRepo.AssertCalled(t, "DeleteFileEntry", mock.Anything, "map-2")
}

func TestDirectoryDeleteNotFound(t *testing.T) {
	directoryRepo := new(MockDirectoryRepository)
	cacheRepo := new(MockCacheRepository)

	directoryRepo.On("BeginTX", mock.Anything).Return(nil)
	directoryRepo.On("FindByUUID", mock.Anything, mock.Anything, "ghost", testOwner).Return(nil, nil)

	svc := service.NewDirectoryService(directoryRepo, cacheRepo)

	err := svc.Delete(newTestContext(t), "ghost", testOwner)
	assert.ErrorIs(t, err, service.ErrDirectoryNotFound)
	cacheRepo.AssertNotCalled(t, "DeleteFileEntry", mock.Anything, mock.Anything)
}
