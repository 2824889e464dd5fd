package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"file-storage-server/internal/model/requestresponse"
	"file-storage-server/internal/ports"
	"file-storage-server/internal/service"
	"file-storage-server/internal/util"

	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	ports.UserService
	validate *validator.Validate
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService, validator.New()}
}

// Register godoc
// @Summary Регистрация пользователя
// @Description Создаёт пользователя по имени, email и паролю и возвращает пару токенов
// @Tags Users
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} util.Envelope{data=requestresponse.RegisterResponse} "Пользователь создан"
// @Failure 400 {object} util.Envelope "Некорректный JSON или слабый пароль"
// @Failure 409 {object} util.Envelope "Email уже занят"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req requestresponse.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		util.HandleError(w, "name, email и password обязательны", http.StatusBadRequest)
		return
	}

	user, tokens, err := h.UserService.Register(ctx, req.Name, req.Email, req.Password, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			util.HandleError(w, service.ErrEmailTaken.Error(), http.StatusConflict)
		case errors.Is(err, service.ErrUserNotFound):
			util.HandleError(w, service.ErrUserNotFound.Error(), http.StatusNotFound)
		default:
			util.HandleError(w, "не удалось зарегистрировать пользователя", http.StatusBadRequest)
		}
		return
	}

	util.Success(w, http.StatusCreated, "пользователь создан", requestresponse.RegisterResponse{
		UUID:         user.UUID,
		Email:        user.Email,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// ListUsers godoc
// @Summary Список пользователей
// @Description Возвращает пользователей для выбора при выдаче доступа к файлу
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param cursor query string false "Курсор пагинации"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} util.Envelope{data=[]requestresponse.UserResponse}
// @Failure 401 {object} util.Envelope
// @Failure 500 {object} util.Envelope
// @Router /api/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cursor := r.URL.Query().Get("cursor")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	users, nextCursor, err := h.UserService.ListUsers(ctx, cursor, limit)
	if err != nil {
		log.Println(err)
		util.HandleError(w, "не удалось получить список пользователей", http.StatusInternalServerError)
		return
	}

	responses := make([]requestresponse.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, requestresponse.UserResponse{
			UUID:  user.UUID,
			Name:  user.Name,
			Email: user.Email,
		})
	}

	if nextCursor != "" {
		w.Header().Set("X-Next-Cursor", nextCursor)
	}
	util.Success(w, http.StatusOK, "список пользователей", responses)
}
