package service_test

import (
	"context"
	"io"
	"testing"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/security"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== MOCKS =====

// MockFileMapRepository
type MockFileMapRepository struct {
	mock.Mock
	tx sqlx.ExtContext
}

func (m *MockFileMapRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	args := m.Called(ctx)
	return m.tx, func() error { return nil }, func() error { return nil }, args.Error(0)
}

func (m *MockFileMapRepository) Create(ctx context.Context, exec sqlx.ExtContext, fileMap *model.FileMap) error {
	args := m.Called(ctx, exec, fileMap)
	return args.Error(0)
}

func (m *MockFileMapRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.FileMapView, error) {
	args := m.Called(ctx, exec, uuid)
	if v, ok := args.Get(0).(*model.FileMapView); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFileMapRepository) Exists(ctx context.Context, exec sqlx.ExtContext, fileUUID string, directoryUUID *string) (bool, error) {
	args := m.Called(ctx, exec, fileUUID, directoryUUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFileMapRepository) NameExists(ctx context.Context, exec sqlx.ExtContext, name string, directoryUUID *string, creatorUUID string, excludeUUID string) (bool, error) {
	args := m.Called(ctx, exec, name, directoryUUID, creatorUUID, excludeUUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFileMapRepository) UpdateMetaData(ctx context.Context, exec sqlx.ExtContext, uuid, name, description string) error {
	args := m.Called(ctx, exec, uuid, name, description)
	return args.Error(0)
}

func (m *MockFileMapRepository) UpdateContent(ctx context.Context, exec sqlx.ExtContext, uuid, fileUUID, name, description string) error {
	args := m.Called(ctx, exec, uuid, fileUUID, name, description)
	return args.Error(0)
}

func (m *MockFileMapRepository) UpdateAccessType(ctx context.Context, exec sqlx.ExtContext, uuid, accessType string) error {
	args := m.Called(ctx, exec, uuid, accessType)
	return args.Error(0)
}

func (m *MockFileMapRepository) Delete(ctx context.Context, exec sqlx.ExtContext, uuid string) error {
	args := m.Called(ctx, exec, uuid)
	return args.Error(0)
}

func (m *MockFileMapRepository) Search(ctx context.Context, exec sqlx.ExtContext, creatorUUID, query string, limit, offset int) (int, []model.FileMapView, error) {
	args := m.Called(ctx, exec, creatorUUID, query, limit, offset)
	if views, ok := args.Get(1).([]model.FileMapView); ok {
		return args.Int(0), views, args.Error(2)
	}
	return args.Int(0), nil, args.Error(2)
}

func (m *MockFileMapRepository) ListByDirectory(ctx context.Context, exec sqlx.ExtContext, directoryUUID *string, creatorUUID string) ([]model.FileMapView, error) {
	args := m.Called(ctx, exec, directoryUUID, creatorUUID)
	if views, ok := args.Get(0).([]model.FileMapView); ok {
		return views, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFileMapRepository) ListShared(ctx context.Context, exec sqlx.ExtContext, userUUID string) ([]model.FileMapView, error) {
	args := m.Called(ctx, exec, userUUID)
	if views, ok := args.Get(0).([]model.FileMapView); ok {
		return views, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockFileRepository
type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) FindByHash(ctx context.Context, exec sqlx.ExtContext, hash string) (*model.File, error) {
	args := m.Called(ctx, exec, hash)
	if f, ok := args.Get(0).(*model.File); ok {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFileRepository) Create(ctx context.Context, exec sqlx.ExtContext, file *model.File) error {
	args := m.Called(ctx, exec, file)
	return args.Error(0)
}

// MockDirectoryRepository
type MockDirectoryRepository struct {
	mock.Mock
	tx sqlx.ExtContext
}

func (m *MockDirectoryRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	args := m.Called(ctx)
	return m.tx, func() error { return nil }, func() error { return nil }, args.Error(0)
}

func (m *MockDirectoryRepository) FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid, creatorUUID string) (*model.Directory, error) {
	args := m.Called(ctx, exec, uuid, creatorUUID)
	if d, ok := args.Get(0).(*model.Directory); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDirectoryRepository) NameExists(ctx context.Context, exec sqlx.ExtContext, name string, parentUUID *string, creatorUUID string, excludeUUID string) (bool, error) {
	args := m.Called(ctx, exec, name, parentUUID, creatorUUID, excludeUUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectoryRepository) Create(ctx context.Context, exec sqlx.ExtContext, directory *model.Directory) error {
	args := m.Called(ctx, exec, directory)
	return args.Error(0)
}

func (m *MockDirectoryRepository) Rename(ctx context.Context, exec sqlx.ExtContext, uuid, name string) error {
	args := m.Called(ctx, exec, uuid, name)
	return args.Error(0)
}

func (m *MockDirectoryRepository) DeleteSubtree(ctx context.Context, exec sqlx.ExtContext, uuid, creatorUUID string) ([]string, error) {
	args := m.Called(ctx, exec, uuid, creatorUUID)
	if uuids, ok := args.Get(0).([]string); ok {
		return uuids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDirectoryRepository) ListChildren(ctx context.Context, exec sqlx.ExtContext, parentUUID *string, creatorUUID string) ([]model.Directory, error) {
	args := m.Called(ctx, exec, parentUUID, creatorUUID)
	if dirs, ok := args.Get(0).([]model.Directory); ok {
		return dirs, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockVersionRepository
type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) Create(ctx context.Context, exec sqlx.ExtContext, version *model.FileVersion) (int64, error) {
	args := m.Called(ctx, exec, version)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockVersionRepository) HashExists(ctx context.Context, exec sqlx.ExtContext, fileMapUUID, hash string) (bool, error) {
	args := m.Called(ctx, exec, fileMapUUID, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockVersionRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, versionID int64, fileMapUUID string) (*model.FileVersion, error) {
	args := m.Called(ctx, exec, versionID, fileMapUUID)
	if v, ok := args.Get(0).(*model.FileVersion); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVersionRepository) ListByFileMap(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) ([]model.FileVersionView, error) {
	args := m.Called(ctx, exec, fileMapUUID)
	if views, ok := args.Get(0).([]model.FileVersionView); ok {
		return views, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVersionRepository) DeleteFrom(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string, versionID int64) error {
	args := m.Called(ctx, exec, fileMapUUID, versionID)
	return args.Error(0)
}

func (m *MockVersionRepository) DeleteByFileMap(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) error {
	args := m.Called(ctx, exec, fileMapUUID)
	return args.Error(0)
}

// MockAccessRepository
type MockAccessRepository struct {
	mock.Mock
}

func (m *MockAccessRepository) HasGrant(ctx context.Context, exec sqlx.ExtContext, fileMapUUID, userUUID string) (bool, error) {
	args := m.Called(ctx, exec, fileMapUUID, userUUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccessRepository) ListUserUUIDs(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) ([]string, error) {
	args := m.Called(ctx, exec, fileMapUUID)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccessRepository) AddGrants(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string, userUUIDs []string) error {
	args := m.Called(ctx, exec, fileMapUUID, userUUIDs)
	return args.Error(0)
}

func (m *MockAccessRepository) RemoveGrants(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string, userUUIDs []string) error {
	args := m.Called(ctx, exec, fileMapUUID, userUUIDs)
	return args.Error(0)
}

func (m *MockAccessRepository) RemoveGrant(ctx context.Context, exec sqlx.ExtContext, fileMapUUID, userUUID string) error {
	args := m.Called(ctx, exec, fileMapUUID, userUUID)
	return args.Error(0)
}

func (m *MockAccessRepository) ListGrantedUsers(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) ([]model.GrantedUser, error) {
	args := m.Called(ctx, exec, fileMapUUID)
	if users, ok := args.Get(0).([]model.GrantedUser); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccessRepository) DeleteByFileMap(ctx context.Context, exec sqlx.ExtContext, fileMapUUID string) error {
	args := m.Called(ctx, exec, fileMapUUID)
	return args.Error(0)
}

// MockUserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	args := m.Called(ctx, exec, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error) {
	args := m.Called(ctx, exec, uuid)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	args := m.Called(ctx, exec, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, exec sqlx.ExtContext, uuid string) (bool, error) {
	args := m.Called(ctx, exec, uuid)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) FilterMissing(ctx context.Context, exec sqlx.ExtContext, uuids []string) ([]string, error) {
	args := m.Called(ctx, exec, uuids)
	if missing, ok := args.Get(0).([]string); ok {
		return missing, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, exec sqlx.ExtContext, cursor string, limit int) ([]*model.User, string, error) {
	args := m.Called(ctx, exec, cursor, limit)
	if users, ok := args.Get(0).([]*model.User); ok {
		return users, args.String(1), args.Error(2)
	}
	return nil, "", args.Error(2)
}

// MockCacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) SetFileEntry(ctx context.Context, entry *model.FileMapView) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCacheRepository) GetFileEntry(ctx context.Context, uuid string) (*model.FileMapView, error) {
	args := m.Called(ctx, uuid)
	if v, ok := args.Get(0).(*model.FileMapView); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCacheRepository) DeleteFileEntry(ctx context.Context, uuid string) error {
	args := m.Called(ctx, uuid)
	return args.Error(0)
}

// MockContentStore
type MockContentStore struct {
	mock.Mock
}

func (m *MockContentStore) Stage(reader io.Reader, originalName string, mimeType string) (*model.StagedUpload, error) {
	args := m.Called(reader, originalName, mimeType)
	if s, ok := args.Get(0).(*model.StagedUpload); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContentStore) Fingerprint(path string) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

func (m *MockContentStore) BlobPath(hash string) string {
	args := m.Called(hash)
	return args.String(0)
}

func (m *MockContentStore) Commit(tempPath string, destPath string) error {
	args := m.Called(tempPath, destPath)
	return args.Error(0)
}

func (m *MockContentStore) Discard(tempPath string) {
	m.Called(tempPath)
}

func (m *MockContentStore) Open(storagePath string) (io.ReadCloser, error) {
	args := m.Called(storagePath)
	if r, ok := args.Get(0).(io.ReadCloser); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockJWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateAccessRefreshTokens(userUUID string) (*model.TokensPair, *model.RefreshToken, error) {
	args := m.Called(userUUID)

	var tokens *model.TokensPair
	if t := args.Get(0); t != nil {
		tokens, _ = t.(*model.TokensPair)
	}

	var refresh *model.RefreshToken
	if r := args.Get(1); r != nil {
		refresh, _ = r.(*model.RefreshToken)
	}

	return tokens, refresh, args.Error(2)
}

func (m *MockJWTService) ValidateJWT(tokenString string, secret []byte) (*security.Claims, error) {
	args := m.Called(tokenString, secret)
	if c, ok := args.Get(0).(*security.Claims); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockJWTRepo
type MockJWTRepo struct {
	mock.Mock
}

func (m *MockJWTRepo) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockJWTRepo) FindByUUID(ctx context.Context, uuid string) (*model.RefreshToken, error) {
	args := m.Called(ctx, uuid)
	if token, ok := args.Get(0).(*model.RefreshToken); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJWTRepo) MarkRefreshTokenUsedByUUID(ctx context.Context, uuid string) error {
	args := m.Called(ctx, uuid)
	return args.Error(0)
}

// ===== ХЕЛПЕРЫ =====

// newTestContext : контекст с подключением к БД, как его кладёт DBMiddleware
func newTestContext(t *testing.T) context.Context {
	t.Helper()

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &config.Database{DB: sqlx.NewDb(mockDB, "sqlmock")}
	return context.WithValue(context.Background(), "db", db)
}
