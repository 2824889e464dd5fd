package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"file-storage-server/internal/model/requestresponse"
	"file-storage-server/internal/ports"
	"file-storage-server/internal/security"
	"file-storage-server/internal/service"
	"file-storage-server/internal/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type DirectoryHandler struct {
	ports.DirectoryService
	fileMapService ports.FileMapService
	validate       *validator.Validate
}

func NewDirectoryHandler(directoryService *service.DirectoryService, fileMapService ports.FileMapService) *DirectoryHandler {
	return &DirectoryHandler{directoryService, fileMapService, validator.New()}
}

// CreateDirectory godoc
// @Summary Создание директории
// @Description Создаёт директорию в корне или внутри указанной родительской
// @Tags Directories
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param body body requestresponse.CreateDirectoryRequest true "Тело запроса"
// @Success 201 {object} util.Envelope{data=requestresponse.CreateDirectoryResponse} "Директория создана"
// @Failure 400 {object} util.Envelope "Некорректный JSON"
// @Failure 404 {object} util.Envelope "Родительская директория не найдена"
// @Failure 409 {object} util.Envelope "Имя занято"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/directories [post]
func (h *DirectoryHandler) CreateDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	var req requestresponse.CreateDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		util.HandleError(w, "name обязателен", http.StatusBadRequest)
		return
	}

	directoryUUID, err := h.DirectoryService.Create(ctx, req.Name, req.DirectoryID, claims.UserUUID)
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	util.Success(w, http.StatusCreated, "директория создана", requestresponse.CreateDirectoryResponse{
		DirectoryID: directoryUUID,
	})
}

// RenameDirectory godoc
// @Summary Переименование директории
// @Tags Directories
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param directoryId path string true "UUID директории"
// @Param body body requestresponse.RenameDirectoryRequest true "Тело запроса"
// @Success 200 {object} util.Envelope "Директория переименована"
// @Failure 400 {object} util.Envelope "Некорректный JSON"
// @Failure 404 {object} util.Envelope "Директория не найдена"
// @Failure 409 {object} util.Envelope "Имя занято"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/directories/{directoryId} [put]
func (h *DirectoryHandler) RenameDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	var req requestresponse.RenameDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		util.HandleError(w, "name обязателен", http.StatusBadRequest)
		return
	}

	directoryUUID := chi.URLParam(r, "directoryId")
	if err := h.DirectoryService.Rename(ctx, directoryUUID, claims.UserUUID, req.Name); err != nil {
		handleDirectoryError(w, err)
		return
	}

	util.Success(w, http.StatusOK, "директория переименована", nil)
}

// DeleteDirectory godoc
// @Summary Удаление директории
// @Description Удаляет директорию вместе со всем поддеревом и записями файлов внутри
// @Tags Directories
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param directoryId path string true "UUID директории"
// @Success 200 {object} util.Envelope "Директория удалена"
// @Failure 404 {object} util.Envelope "Директория не найдена"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/directories/{directoryId} [delete]
func (h *DirectoryHandler) DeleteDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	directoryUUID := chi.URLParam(r, "directoryId")
	if err := h.DirectoryService.Delete(ctx, directoryUUID, claims.UserUUID); err != nil {
		handleDirectoryError(w, err)
		return
	}

	util.Success(w, http.StatusOK, "директория удалена", nil)
}

// ListDirectories godoc
// @Summary Список директорий
// @Description Дочерние директории указанной, без directoryId — корень
// @Tags Directories
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param directoryId query string false "UUID родительской директории"
// @Success 200 {object} util.Envelope{data=[]model.Directory}
// @Failure 404 {object} util.Envelope "Директория не найдена"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/directories [get]
func (h *DirectoryHandler) ListDirectories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	var parentUUID *string
	if v := r.URL.Query().Get("directoryId"); v != "" {
		parentUUID = &v
	}

	directories, err := h.DirectoryService.ListChildren(ctx, parentUUID, claims.UserUUID)
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	util.Success(w, http.StatusOK, "список директорий", directories)
}

// ListDirectoryFiles godoc
// @Summary Файлы директории
// @Tags Directories
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param directoryId path string true "UUID директории"
// @Success 200 {object} util.Envelope{data=[]requestresponse.FileResponse}
// @Failure 404 {object} util.Envelope "Директория не найдена"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/directories/{directoryId}/files [get]
func (h *DirectoryHandler) ListDirectoryFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	directoryUUID := chi.URLParam(r, "directoryId")
	views, err := h.fileMapService.ListByDirectory(ctx, &directoryUUID, claims.UserUUID)
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	responses := make([]requestresponse.FileResponse, 0, len(views))
	for i := range views {
		responses = append(responses, requestresponse.FileResponseFromView(&views[i]))
	}

	util.Success(w, http.StatusOK, "файлы директории", responses)
}

func handleDirectoryError(w http.ResponseWriter, err error) {
	log.Println(err)
	switch {
	case errors.Is(err, service.ErrDirectoryNotFound):
		util.HandleError(w, service.ErrDirectoryNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrDirectoryExists):
		util.HandleError(w, service.ErrDirectoryExists.Error(), http.StatusConflict)
	default:
		util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}
