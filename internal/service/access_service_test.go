package service_test

import (
	"errors"
	"testing"

	"file-storage-server/internal/model"
	"file-storage-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAccessService(
	fileMapRepo *MockFileMapRepository,
	accessRepo *MockAccessRepository,
	userRepo *MockUserRepository,
	cacheRepo *MockCacheRepository,
) *service.AccessService {
	return service.NewAccessService(fileMapRepo, accessRepo, userRepo, cacheRepo)
}

func ownerView() *model.FileMapView {
	return &model.FileMapView{
		FileMap: model.FileMap{UUID: "map-uuid", CreatorUUID: testOwner, AccessType: model.AccessPrivate},
	}
}

func TestSetAccessPartialAppliesDiff(t *testing.T) {
	fileMapRepo := new(MockFileMapRepository)
	accessRepo := new(MockAccessRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)

	fileMapRepo.On("BeginTX", mock.Anything).Return(nil)
	fileMapRepo.On("GetByUUID", mock.Anything, mock.Anything, "map-uuid").Return(ownerView(), nil)
	userRepo.On("FilterMissing", mock.Anything, mock.Anything, mock.Anything).Return([]string{}, nil)
	fileMapRepo.On("UpdateAccessType", mock.Anything, mock.Anything, "map-uuid", model.AccessPartial).Return(nil)

	// было: alice, bob; станет: bob, carol
	accessRepo.On("ListUserUUIDs", mock.Anything, mock.Anything, "map-uuid").Return([]string{"alice", "bob"}, nil)
	accessRepo.On("RemoveGrants", mock.Anything, mock.Anything, "map-uuid", []string{"alice"}).Return(nil)
	accessRepo.On("AddGrants", mock.Anything, mock.Anything, "map-uuid", mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 1 && ids[0] == "carol"
	})).Return(nil)
	cacheRepo.On("DeleteFileEntry", mock.Anything, "map-uuid").Return(nil)

	svc := newAccessService(fileMapRepo, accessRepo, userRepo, cacheRepo)

	err := svc.SetAccess(newTestContext(t), "map-uuid", testOwner, model.AccessPartial, []string{"bob", "carol"})
	require.NoError(t, err)

	accessRepo.AssertExpectations(t)
}

func TestSetAccessExcludesOwnerFromGrants(t *testing.T) {
	fileMapRepo := new(MockFileMapRepository)
	accessRepo := new(MockAccessRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)

	fileMapRepo.On("BeginTX", mock.Anything).Return(nil)
	fileMapRepo.On("GetByUUID", mock.Anything, mock.Anything, "map-uuid").Return(ownerView(), nil)

	// владелец отфильтрован до проверки существования
	userRepo.On("FilterMissing", mock.Anything, mock.Anything, []string{"bob"}).Return([]string{}, nil)
	fileMapRepo.On("UpdateAccessType", mock.Anything, mock.Anything, "map-uuid", model.AccessPartial).Return(nil)
	accessRepo.On("ListUserUUIDs", mock.Anything, mock.Anything, "map-uuid").Return([]string{}, nil)
	accessRepo.On("AddGrants", mock.Anything, mock.Anything, "map-uuid", []string{"bob"}).Return(nil)
	cacheRepo.On("DeleteFileEntry", mock.Anything, "map-uuid").Return(nil)

	svc := newAccessService(fileMapRepo, accessRepo, userRepo, cacheRepo)

	err := svc.SetAccess(newTestContext(t), "map-uuid", testOwner, model.AccessPartial, []string{testOwner, "bob"})
	require.NoError(t, err)

	userRepo.AssertCalled(t, "FilterMissing", mock.Anything, mock.Anything, []string{"bob"})
}

func TestSetAccessUnknownUsers(t *testing.T) {
	fileMapRepo := new(MockFileMapRepository)
	accessRepo := new(MockAccessRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)

	fileMapRepo.On("BeginTX", mock.Anything).Return(nil)
	fileMapRepo.On("GetByUUID", mock.Anything, mock.Anything, "map-uuid").Return(ownerView(), nil)
	userRepo.On("FilterMissing", mock.Anything, mock.Anything, mock.Anything).Return([]string{"ghost"}, nil)

	svc := newAccessService(fileMapRepo, accessRepo, userRepo, cacheRepo)

	err := svc.SetAccess(newTestContext(t), "map-uuid", testOwner, model.AccessPartial, []string{"ghost"})

	var invalidUsers *service.InvalidUserIdsError
	require.True(t, errors.As(err, &invalidUsers))
	assert.Equal(t, []string{"ghost"}, invalidUsers.UserIDs)
	fileMapRepo.AssertNotCalled(t, "UpdateAccessType", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSetAccessPublicClearsGrantList(t *testing.T) {
	fileMapRepo := new(MockFileMapRepository)
	accessRepo := new(MockAccessRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)

	fileMapRepo.On("BeginTX", mock.Anything).Return(nil)
	fileMapRepo.On("GetByUUID", mock.Anything, mock.Anything, "map-uuid").Return(ownerView(), nil)
	fileMapRepo.On("UpdateAccessType", mock.Anything, mock.Anything, "map-uuid", model.AccessPublic).Return(nil)
	accessRepo.On("ListUserUUIDs", mock.Anything, mock.Anything, "map-uuid").Return([]string{"alice"}, nil)
	accessRepo.On("RemoveGrants", mock.Anything, mock.Anything, "map-uuid", []string{"alice"}).Return(nil)
	cacheRepo.On("DeleteFileEntry", mock.Anything, "map-uuid").Return(nil)

	svc := newAccessService(fileMapRepo, accessRepo, userRepo, cacheRepo)

	require.NoError(t, svc.SetAccess(newTestContext(t), "map-uuid", testOwner, model.AccessPublic, nil))

	accessRepo.AssertCalled(t, "RemoveGrants", mock.Anything, mock.Anything, "map-uuid", []string{"alice"})
	accessRepo.AssertNotCalled(t, "AddGrants", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSetAccessNotOwner(t *testing.T) {
	fileMapRepo := new(MockFileMapRepository)
	accessRepo := new(MockAccessRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)

	fileMapRepo.On("BeginTX", mock.Anything).Return(nil)
	fileMapRepo.On("GetByUUID", mock.Anything, mock.Anything, "map-uuid").Return(ownerView(), nil)

	svc := newAccessService(fileMapRepo, accessRepo, userRepo, cacheRepo)

	err := svc.SetAccess(newTestContext(t), "map-uuid", testStranger, model.AccessPublic, nil)
	assert.ErrorIs(t, err, service.ErrAccessDenied)
}

func TestRemoveAccessIdempotent(t *testing.T) {
	fileMapRepo := new(MockFileMapRepository)
	accessRepo := new(MockAccessRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)

	fileMapRepo.On("BeginTX", mock.Anything).Return(nil)
	fileMapRepo.On("GetByUUID", mock.Anything, mock.Anything, "map-uuid").Return(ownerView(), nil)
	accessRepo.On("RemoveGrant", mock.Anything, mock.Anything, "map-uuid", "bob").Return(nil)
	cacheRepo.On("DeleteFileEntry", mock.Anything, "map-uuid").Return(nil)

	svc := newAccessService(fileMapRepo, accessRepo, userRepo, cacheRepo)

	require.NoError(t, svc.RemoveAccess(newTestContext(t), "map-uuid", testOwner, "bob"))
	require.NoError(t, svc.RemoveAccess(newTestContext(t), "map-uuid", testOwner, "bob"))
}

func TestListGrantedUsersOwnerOnly(t *testing.T) {
	fileMapRepo := new(MockFileMapRepository)
	accessRepo := new(MockAccessRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)

	fileMapRepo.On("GetByUUID", mock.Anything, mock.Anything, "map-uuid").Return(ownerView(), nil)

	svc := newAccessService(fileMapRepo, accessRepo, userRepo, cacheRepo)

	_, err := svc.ListGrantedUsers(newTestContext(t), "map-uuid", testStranger)
	assert.ErrorIs(t, err, service.ErrAccessDenied)
}
