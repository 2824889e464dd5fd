package service_test

import (
	"testing"
	"time"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/security"
	"file-storage-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(jwtRepo *MockJWTRepo, jwtService *MockJWTService, userRepo *MockUserRepository) *service.AuthenticationService {
	cfg := &config.AppConfig{
		JWT: config.JWTConfig{SecretKey: "test-secret"},
	}
	return service.NewAuthenticationService(jwtRepo, cfg, jwtService, userRepo)
}

func testClaims() *security.Claims {
	return &security.Claims{
		UserUUID:         "user-uuid",
		RefreshTokenUUID: "rt-uuid",
	}
}

func TestRefreshTokenUsedRejected(t *testing.T) {
	jwtRepo := new(MockJWTRepo)
	jwtService := new(MockJWTService)
	userRepo := new(MockUserRepository)

	jwtService.On("ValidateJWT", "access", []byte("test-secret")).Return(testClaims(), nil)
	jwtRepo.On("FindByUUID", mock.Anything, "rt-uuid").Return(&model.RefreshToken{
		UUID:     "rt-uuid",
		Used:     true,
		ExpireAt: time.Now().Add(time.Hour),
	}, nil)

	svc := newAuthService(jwtRepo, jwtService, userRepo)

	_, err := svc.RefreshToken(newTestContext(t), "agent", "127.0.0.1", "access", "refresh")
	assert.Error(t, err)
}

func TestRefreshTokenExpiredRejected(t *testing.T) {
	jwtRepo := new(MockJWTRepo)
	jwtService := new(MockJWTService)
	userRepo := new(MockUserRepository)

	jwtService.On("ValidateJWT", "access", []byte("test-secret")).Return(testClaims(), nil)
	jwtRepo.On("FindByUUID", mock.Anything, "rt-uuid").Return(&model.RefreshToken{
		UUID:     "rt-uuid",
		ExpireAt: time.Now().UTC().Add(-time.Minute),
	}, nil)

	svc := newAuthService(jwtRepo, jwtService, userRepo)

	_, err := svc.RefreshToken(newTestContext(t), "agent", "127.0.0.1", "access", "refresh")
	assert.Error(t, err)
}

func TestRefreshTokenForeignUserAgentDeauthorizes(t *testing.T) {
	jwtRepo := new(MockJWTRepo)
	jwtService := new(MockJWTService)
	userRepo := new(MockUserRepository)

	jwtService.On("ValidateJWT", "access", []byte("test-secret")).Return(testClaims(), nil)
	jwtRepo.On("FindByUUID", mock.Anything, "rt-uuid").Return(&model.RefreshToken{
		UUID:      "rt-uuid",
		UserAgent: "original-agent",
		ExpireAt:  time.Now().Add(time.Hour),
	}, nil)
	jwtRepo.On("MarkRefreshTokenUsedByUUID", mock.Anything, "rt-uuid").Return(nil)

	svc := newAuthService(jwtRepo, jwtService, userRepo)

	_, err := svc.RefreshToken(newTestContext(t), "another-agent", "127.0.0.1", "access", "refresh")
	assert.Error(t, err)

	// пользователь деавторизован после попытки с чужим User-Agent
	jwtRepo.AssertCalled(t, "MarkRefreshTokenUsedByUUID", mock.Anything, "rt-uuid")
}

func TestRefreshTokenRotation(t *testing.T) {
	jwtRepo := new(MockJWTRepo)
	jwtService := new(MockJWTService)
	userRepo := new(MockUserRepository)

	hash, err := bcrypt.GenerateFromPassword([]byte("refresh"), bcrypt.DefaultCost)
	assert.NoError(t, err)

	jwtService.On("ValidateJWT", "access", []byte("test-secret")).Return(testClaims(), nil)
	jwtRepo.On("FindByUUID", mock.Anything, "rt-uuid").Return(&model.RefreshToken{
		UUID:      "rt-uuid",
		UserAgent: "agent",
		TokenHash: string(hash),
		ExpireAt:  time.Now().Add(time.Hour),
	}, nil)
	jwtRepo.On("MarkRefreshTokenUsedByUUID", mock.Anything, "rt-uuid").Return(nil)

	newPair := &model.TokensPair{AccessToken: "new-access", RefreshToken: "new-refresh"}
	newRefresh := &model.RefreshToken{UUID: "rt-uuid-2"}
	jwtService.On("GenerateAccessRefreshTokens", "user-uuid").Return(newPair, newRefresh, nil)
	jwtRepo.On("SaveRefreshToken", mock.Anything, newRefresh).Return(nil)

	svc := newAuthService(jwtRepo, jwtService, userRepo)

	pair, err := svc.RefreshToken(newTestContext(t), "agent", "127.0.0.1", "access", "refresh")
	assert.NoError(t, err)
	assert.Equal(t, "new-access", pair.AccessToken)

	// старый токен помечен использованным, новый сохранён
	jwtRepo.AssertCalled(t, "MarkRefreshTokenUsedByUUID", mock.Anything, "rt-uuid")
	jwtRepo.AssertCalled(t, "SaveRefreshToken", mock.Anything, newRefresh)
}

func TestLoginWrongPassword(t *testing.T) {
	jwtRepo := new(MockJWTRepo)
	jwtService := new(MockJWTService)
	userRepo := new(MockUserRepository)

	hash, err := security.HashPassword("RightPass1")
	assert.NoError(t, err)

	userRepo.On("FindByEmail", mock.Anything, mock.Anything, "ivan@example.com").Return(&model.User{
		UUID:         "user-uuid",
		PasswordHash: hash,
	}, nil)

	svc := newAuthService(jwtRepo, jwtService, userRepo)

	_, err = svc.Login(newTestContext(t), "ivan@example.com", "WrongPass1", "agent", "127.0.0.1")
	assert.Error(t, err)
	jwtService.AssertNotCalled(t, "GenerateAccessRefreshTokens", mock.Anything)
}
