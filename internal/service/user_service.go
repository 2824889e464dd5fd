package service

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/ports"
	"file-storage-server/internal/repository"
	"file-storage-server/internal/security"

	"github.com/google/uuid"
)

type UserService struct {
	userRepository ports.UserRepository
	jwtService     ports.JWTServiceInterface
	jwtRepository  ports.JWTRepositoryInterface
}

func NewUserService(
	userRepository ports.UserRepository,
	jwtService ports.JWTServiceInterface,
	jwtRepository ports.JWTRepositoryInterface,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		jwtService:     jwtService,
		jwtRepository:  jwtRepository,
	}
}

// Register : регистрация открыта для всех, email уникален.
// Успешная регистрация сразу выдаёт пару токенов.
func (s *UserService) Register(ctx context.Context, name, email, password, userAgent, ipAddress string) (*model.User, *model.TokensPair, error) {
	if err := validatePassword(password); err != nil {
		return nil, nil, fmt.Errorf("[UserService] %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	user := &model.User{
		UUID:         uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, nil, fmt.Errorf("[UserService] database connection не найден в context")
	}

	created, err := s.userRepository.CreateUser(ctx, db, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("[UserService] ошибка создания пользователя: %w", err)
	}

	tokens, refreshToken, err := s.jwtService.GenerateAccessRefreshTokens(created.UUID)
	if err != nil {
		return nil, nil, fmt.Errorf("[UserService] ошибка генерации токенов: %w", err)
	}

	refreshToken.UserAgent = userAgent
	refreshToken.IpAddress = ipAddress

	if err := s.jwtRepository.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("[UserService] не удалось сохранить refresh токен: %w", err)
	}

	return created, tokens, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("пароль должен содержать минимум 8 символов")
	}

	var upperCount, lowerCount, digitCount int

	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upperCount++
		case unicode.IsLower(c):
			lowerCount++
		case unicode.IsDigit(c):
			digitCount++
		}
	}

	if upperCount == 0 || lowerCount == 0 {
		return fmt.Errorf("пароль должен содержать буквы в разных регистрах")
	}
	if digitCount < 1 {
		return fmt.Errorf("пароль должен содержать хотя бы одну цифру")
	}

	return nil
}

func (s *UserService) GetUser(ctx context.Context, uuid string) (*model.User, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[UserService] database connection не найден в context")
	}

	user, err := s.userRepository.FindByUUID(ctx, db, uuid)
	if err != nil {
		return nil, fmt.Errorf("[UserService] ошибка поиска пользователя: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// ListUsers : список пользователей с cursor-based пагинацией, доступен
// любому авторизованному пользователю (нужен для выдачи доступа к файлам)
func (s *UserService) ListUsers(ctx context.Context, cursor string, limit int) ([]*model.User, string, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, "", fmt.Errorf("[UserService] database connection не найден в context")
	}

	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, nextCursor, err := s.userRepository.ListUsers(ctx, db, cursor, limit)
	if err != nil {
		return nil, "", err
	}

	return users, nextCursor, nil
}
