package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/ports"
	"file-storage-server/internal/security"
	"file-storage-server/internal/util"

	"golang.org/x/crypto/bcrypt"
)

type AuthenticationService struct {
	jwtRepoInterface ports.JWTRepositoryInterface
	*config.AppConfig
	jwtServiceInterface ports.JWTServiceInterface
	userRepository      ports.UserRepository
}

func NewAuthenticationService(
	repo ports.JWTRepositoryInterface,
	cfg *config.AppConfig,
	service ports.JWTServiceInterface,
	userInterface ports.UserRepository,
) *AuthenticationService {
	return &AuthenticationService{
		repo,
		cfg,
		service,
		userInterface,
	}
}

func (s *AuthenticationService) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*model.TokensPair, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("database connection не найден в context")
	}

	user, err := s.userRepository.FindByEmail(ctx, db, email)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("неверный email или пароль")
	}

	tokens, refreshToken, err := s.jwtServiceInterface.GenerateAccessRefreshTokens(user.UUID)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	refreshToken.UserAgent = userAgent
	refreshToken.IpAddress = ipAddress

	if err := s.jwtRepoInterface.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("ошибка сохранения refresh токена: %w", err)
	}

	return tokens, nil
}

// RefreshToken обновляет пару токенов.
// Требования к операции refresh:
//  1. Операцию можно выполнить только той парой токенов, которая была выдана вместе.
//  2. При изменении User-Agent операция запрещается, а refresh-токен помечается
//     использованным, то есть пользователь деавторизуется.
//  3. Попытка обновления с нового IP разрешена, но фиксируется в логе.
//
// Возвращает новую пару токенов, старый refresh-токен помечается использованным.
func (s *AuthenticationService) RefreshToken(ctx context.Context, userAgent string, ipAddress string, accessToken string, refreshToken string) (*model.TokensPair, error) {
	claims, err := s.jwtServiceInterface.ValidateJWT(accessToken, []byte(s.AppConfig.JWT.SecretKey))
	if err != nil {
		return nil, util.LogError("не удалось провалидировать токен", err)
	}

	refreshTokenUUID := claims.RefreshTokenUUID
	userUUID := claims.UserUUID

	storedRefreshToken, err := s.jwtRepoInterface.FindByUUID(ctx, refreshTokenUUID)
	if err != nil {
		return nil, util.LogError("не удалось найти рефреш токен", err)
	}
	if storedRefreshToken.Used {
		log.Printf("refresh token %s уже был использован", refreshTokenUUID)
		return nil, fmt.Errorf("невалидный токен")
	}

	if time.Now().UTC().After(storedRefreshToken.ExpireAt) {
		log.Printf("refresh token %s просрочен", refreshTokenUUID)
		return nil, fmt.Errorf("невалидный токен")
	}

	if storedRefreshToken.UserAgent != userAgent {
		if err := s.jwtRepoInterface.MarkRefreshTokenUsedByUUID(ctx, refreshTokenUUID); err != nil {
			log.Printf("не удалось пометить токен использованным: %v", err)
		}
		log.Printf("refresh token %s: попытка обновления с другого User-Agent", refreshTokenUUID)
		return nil, fmt.Errorf("невалидный токен")
	}

	if storedRefreshToken.IpAddress != ipAddress {
		log.Printf("пользователь %s: вход с нового ip адреса %s (был %s)", userUUID, ipAddress, storedRefreshToken.IpAddress)
	}

	err = bcrypt.CompareHashAndPassword([]byte(storedRefreshToken.TokenHash), []byte(refreshToken))
	if err != nil {
		return nil, util.LogError("невалидный токен", err)
	}

	if err := s.jwtRepoInterface.MarkRefreshTokenUsedByUUID(ctx, refreshTokenUUID); err != nil {
		return nil, util.LogError("не удалось использовать токен", err)
	}

	tokensPair, newRefreshToken, err := s.jwtServiceInterface.GenerateAccessRefreshTokens(userUUID)
	if err != nil {
		return nil, util.LogError("ошибка генерации токенов", err)
	}

	newRefreshToken.UserAgent = userAgent
	newRefreshToken.IpAddress = ipAddress
	err = s.jwtRepoInterface.SaveRefreshToken(ctx, newRefreshToken)
	if err != nil {
		return nil, util.LogError("не удалось сохранить рефреш токен", err)
	}

	return tokensPair, nil
}

// Logout помечает refresh-токен использованным, после чего access-токен
// с его UUID перестаёт проходить авторизацию
func (s *AuthenticationService) Logout(ctx context.Context, refreshTokenUUID string) error {
	err := s.jwtRepoInterface.MarkRefreshTokenUsedByUUID(ctx, refreshTokenUUID)
	if err != nil {
		return fmt.Errorf("не удалось использовать токен: %w", err)
	}
	return nil
}
