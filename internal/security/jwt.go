package security

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/repository"
	"file-storage-server/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const UserContextKey contextKey = "user"

// Claims : кастомные claims access токена. RefreshTokenUUID связывает
// access токен с парным рефреш токеном в БД.
type Claims struct {
	UserUUID         string `json:"user_uuid"`
	RefreshTokenUUID string `json:"refresh_token_id"`
	IsAdmin          bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{cfg}
}

// GenerateAccessRefreshTokens : выпускает связанную пару токенов.
// Рефреш токен возвращается отдельно, чтобы вызывающий код дописал
// user-agent и IP перед сохранением.
func (s *JWTService) GenerateAccessRefreshTokens(userUUID string) (*model.TokensPair, *model.RefreshToken, error) {
	refreshToken, refreshTokenStr, err := GenerateRefreshToken()
	if err != nil {
		return nil, nil, util.LogError("[JWTService] ошибка генерации рефреш токена", err)
	}

	refreshTTL, err := time.ParseDuration(s.RefreshTokenTTL)
	if err != nil {
		return nil, nil, util.LogError("[JWTService] некорректный refresh_token_ttl", err)
	}
	accessTTL, err := time.ParseDuration(s.AccessTokenTTL)
	if err != nil {
		return nil, nil, util.LogError("[JWTService] некорректный access_token_ttl", err)
	}

	now := time.Now()
	refreshToken.UserUUID = userUUID
	refreshToken.ExpireAt = now.Add(refreshTTL)

	claims := Claims{
		UserUUID:         userUUID,
		RefreshTokenUUID: refreshToken.UUID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "file-storage-server",
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(s.SecretKey))
	if err != nil {
		return nil, nil, util.LogError("[JWTService] ошибка подписи access токена", err)
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenStr,
	}, refreshToken, nil
}

// GenerateRefreshToken : случайный токен; клиенту уходит сырое значение,
// в БД попадает только bcrypt-хэш
func GenerateRefreshToken() (*model.RefreshToken, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", util.LogError("[JWTService] ошибка генерации случайных байт", err)
	}

	refreshTokenStr := base64.StdEncoding.EncodeToString(raw)
	hashedToken, err := bcrypt.GenerateFromPassword([]byte(refreshTokenStr), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", util.LogError("[JWTService] ошибка хэширования рефреш токена", err)
	}

	return &model.RefreshToken{
		UUID:      uuid.New().String(),
		TokenHash: string(hashedToken),
		Used:      false,
	}, refreshTokenStr, nil
}

func (s *JWTService) ValidateJWT(jwtTokenStr string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil || !jwtToken.Valid {
		return nil, util.LogError("[JWTService] невалидный токен", err)
	}

	return claims, nil
}

// JWTMiddleware : проверяет Bearer токен и кладёт claims в контекст.
// Доступ отзывается через пометку парного рефреш токена использованным,
// поэтому для обычных токенов дополнительно проверяется его состояние.
func JWTMiddleware(secretKey []byte, jwtRepository *repository.JWTRepository, jwtService *JWTService, adminToken string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(writer, "unauthorized", http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")

			if adminToken != "" && token == adminToken {
				claims := &Claims{UserUUID: "admin", IsAdmin: true}
				next.ServeHTTP(writer, request.WithContext(
					context.WithValue(request.Context(), UserContextKey, claims)))
				return
			}

			claims, err := jwtService.ValidateJWT(token, secretKey)
			if err != nil {
				log.Printf("[JWTMiddleware] невалидный токен: %v", err)
				http.Error(writer, "невалидный токен", http.StatusUnauthorized)
				return
			}

			refreshToken, err := jwtRepository.FindByUUID(request.Context(), claims.RefreshTokenUUID)
			if err != nil {
				log.Printf("[JWTMiddleware] рефреш токен не найден: %v", err)
				http.Error(writer, "unauthorized", http.StatusUnauthorized)
				return
			}
			if refreshToken.Used {
				log.Printf("[JWTMiddleware] рефреш токен уже использован")
				http.Error(writer, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(writer, request.WithContext(
				context.WithValue(request.Context(), UserContextKey, claims)))
		})
	}
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return claims, nil
}
