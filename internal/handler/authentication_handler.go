package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"file-storage-server/config"
	"file-storage-server/internal/model/requestresponse"
	"file-storage-server/internal/ports"
	"file-storage-server/internal/security"
	"file-storage-server/internal/service"
	"file-storage-server/internal/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
	ports.JWTServiceInterface
	appConfig *config.AppConfig
	validate  *validator.Validate
}

func NewAuthenticationHandler(
	authenticationService *service.AuthenticationService,
	jwtServiceInterface ports.JWTServiceInterface,
	appConfig *config.AppConfig,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		authenticationService,
		jwtServiceInterface,
		appConfig,
		validator.New(),
	}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Получение пары токенов по email и паролю
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} util.Envelope{data=requestresponse.LoginResponse} "Успешная аутентификация"
// @Failure 400 {object} util.Envelope "Некорректный JSON или пустые поля"
// @Failure 401 {object} util.Envelope "Неверный email или пароль"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/auth [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		util.HandleError(w, "email и password обязательны", http.StatusBadRequest)
		return
	}

	tokens, err := h.AuthenticationService.Login(ctx, req.Email, req.Password, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		log.Println(err)
		util.HandleError(w, "неверный email или пароль", http.StatusUnauthorized)
		return
	}

	util.Success(w, http.StatusOK, "аутентификация успешна", requestresponse.LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// RefreshToken godoc
// @Summary Обновление токенов
// @Description Обновляет пару токенов (access и refresh) по действующей паре
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Success 200 {object} util.Envelope{data=requestresponse.LoginResponse} "Новая пара токенов"
// @Failure 400 {object} util.Envelope "Неверный JSON"
// @Failure 401 {object} util.Envelope "Невалидный токен"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req requestresponse.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		util.HandleError(w, "access_token и refresh_token обязательны", http.StatusBadRequest)
		return
	}

	tokens, err := h.AuthenticationService.RefreshToken(ctx, r.UserAgent(), r.RemoteAddr, req.AccessToken, req.RefreshToken)
	if err != nil {
		log.Println(err)
		util.HandleError(w, "не удалось обновить токены", http.StatusUnauthorized)
		return
	}

	util.Success(w, http.StatusOK, "токены обновлены", requestresponse.LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Logout godoc
// @Summary Выход из системы
// @Description Деавторизует пользователя по его access токену
// @Tags Authentication
// @Produce json
// @Param token path string true "Access токен"
// @Success 200 {object} util.Envelope "Пользователь деавторизован"
// @Failure 401 {object} util.Envelope "Невалидный токен"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/auth/{token} [delete]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := chi.URLParam(r, "token")
	claims, err := h.JWTServiceInterface.ValidateJWT(token, []byte(h.appConfig.JWT.SecretKey))
	if err != nil {
		util.HandleError(w, "невалидный токен", http.StatusUnauthorized)
		return
	}

	if err := h.AuthenticationService.Logout(ctx, claims.RefreshTokenUUID); err != nil {
		log.Println(err)
		util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	util.Success(w, http.StatusOK, "пользователь деавторизован", nil)
}

// GetCurrentUser godoc
// @Summary Получение UUID текущего пользователя
// @Description Возвращает UUID пользователя, который авторизован в системе
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} util.Envelope{data=requestresponse.CurrentUserResponse}
// @Failure 401 {object} util.Envelope
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	util.Success(w, http.StatusOK, "текущий пользователь", requestresponse.CurrentUserResponse{
		UserUUID: claims.UserUUID,
	})
}
