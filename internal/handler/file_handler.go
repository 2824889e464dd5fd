package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"file-storage-server/internal/model/requestresponse"
	"file-storage-server/internal/ports"
	"file-storage-server/internal/security"
	"file-storage-server/internal/service"
	"file-storage-server/internal/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// 512 МБ на один файл
const maxUploadSize = 512 << 20

type FileHandler struct {
	fileMapService ports.FileMapService
	versionService ports.VersionService
	accessService  ports.AccessService
	contentStore   ports.ContentStore
	validate       *validator.Validate
}

func NewFileHandler(
	fileMapService ports.FileMapService,
	versionService ports.VersionService,
	accessService ports.AccessService,
	contentStore ports.ContentStore,
) *FileHandler {
	return &FileHandler{
		fileMapService: fileMapService,
		versionService: versionService,
		accessService:  accessService,
		contentStore:   contentStore,
		validate:       validator.New(),
	}
}

// UploadFile godoc
// @Summary Загрузка файла
// @Description Принимает multipart/form-data с полем file. Поля name и description опциональны,
// @Description по умолчанию имя берётся из оригинального имени файла. Контент дедуплицируется
// @Description по отпечатку: повторная загрузка того же содержимого не занимает место на диске.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param directoryId path string false "UUID директории, без него — корень"
// @Param file formData file true "Содержимое файла"
// @Param name formData string false "Имя записи"
// @Param description formData string false "Описание"
// @Success 201 {object} util.Envelope{data=requestresponse.UploadFileResponse} "Файл загружен"
// @Failure 400 {object} util.Envelope "Нет поля file"
// @Failure 404 {object} util.Envelope "Директория не найдена"
// @Failure 409 {object} util.Envelope "Дубликат файла или имени"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/upload/{directoryId} [post]
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		util.HandleError(w, "некорректный multipart запрос", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		util.HandleError(w, "поле file обязательно", http.StatusBadRequest)
		return
	}
	defer file.Close()

	staged, err := h.contentStore.Stage(file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		log.Println(err)
		util.HandleError(w, "не удалось сохранить загружаемый файл", http.StatusInternalServerError)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	description := r.FormValue("description")

	var directoryUUID *string
	if v := chi.URLParam(r, "directoryId"); v != "" {
		directoryUUID = &v
	}

	fileMapUUID, err := h.fileMapService.Upload(ctx, staged, name, description, directoryUUID, claims.UserUUID)
	if err != nil {
		handleFileError(w, err)
		return
	}

	util.Success(w, http.StatusCreated, "файл загружен", requestresponse.UploadFileResponse{
		FileID: fileMapUUID,
	})
}

// GetFile godoc
// @Summary Метаданные файла
// @Description Возвращает запись файла с учётом политики доступа
// @Tags Files
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param fileId path string true "UUID записи файла"
// @Success 200 {object} util.Envelope{data=requestresponse.FileResponse}
// @Failure 403 {object} util.Envelope "Доступ запрещён"
// @Failure 404 {object} util.Envelope "Файл не найден"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/{fileId} [get]
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	view, err := h.fileMapService.GetByID(ctx, chi.URLParam(r, "fileId"), claims.UserUUID)
	if err != nil {
		handleFileError(w, err)
		return
	}

	util.Success(w, http.StatusOK, "метаданные файла", requestresponse.FileResponseFromView(view))
}

// DownloadFile godoc
// @Summary Скачивание файла
// @Description Отдаёт контент файла одним потоком с Content-Disposition attachment
// @Tags Files
// @Produce octet-stream
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param fileId path string true "UUID записи файла"
// @Success 200 {file} binary "Содержимое файла"
// @Failure 403 {object} util.Envelope "Доступ запрещён"
// @Failure 404 {object} util.Envelope "Файл не найден"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/{fileId}/download [get]
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	reader, view, err := h.fileMapService.Download(ctx, chi.URLParam(r, "fileId"), claims.UserUUID)
	if err != nil {
		handleFileError(w, err)
		return
	}
	defer reader.Close()

	filename := view.Name
	if view.Extension != "" {
		filename = fmt.Sprintf("%s.%s", view.Name, view.Extension)
	}

	contentType := view.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.FormatInt(view.SizeBytes, 10))

	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("[FileHandler] ошибка отдачи файла %s: %v", view.UUID, err)
	}
}

// UpdateFile godoc
// @Summary Обновление имени и описания файла
// @Tags Files
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param fileId path string true "UUID записи файла"
// @Param body body requestresponse.UpdateMetaDataRequest true "Тело запроса"
// @Success 200 {object} util.Envelope "Метаданные обновлены"
// @Failure 400 {object} util.Envelope "Некорректный JSON"
// @Failure 403 {object} util.Envelope "Доступ запрещён"
// @Failure 404 {object} util.Envelope "Файл не найден"
// @Failure 409 {object} util.Envelope "Имя занято"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/{fileId} [put]
func (h *FileHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	var req requestresponse.UpdateMetaDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		util.HandleError(w, "name обязателен", http.StatusBadRequest)
		return
	}

	if err := h.fileMapService.UpdateMetaData(ctx, chi.URLParam(r, "fileId"), claims.UserUUID, req.Name, req.Description); err != nil {
		handleFileError(w, err)
		return
	}

	util.Success(w, http.StatusOK, "метаданные обновлены", nil)
}

// DeleteFile godoc
// @Summary Удаление файла
// @Description Удаляет запись вместе с историей версий и грантами доступа
// @Tags Files
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param fileId path string true "UUID записи файла"
// @Success 200 {object} util.Envelope "Файл удалён"
// @Failure 403 {object} util.Envelope "Доступ запрещён"
// @Failure 404 {object} util.Envelope "Файл не найден"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/{fileId} [delete]
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	if err := h.fileMapService.Delete(ctx, chi.URLParam(r, "fileId"), claims.UserUUID); err != nil {
		handleFileError(w, err)
		return
	}

	util.Success(w, http.StatusOK, "файл удалён", nil)
}

// SearchFiles godoc
// @Summary Поиск файлов
// @Description Регистронезависимый поиск по имени и описанию среди файлов пользователя
// @Tags Files
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param query query string false "Подстрока поиска"
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} util.Envelope{data=requestresponse.SearchFilesResponse}
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/search [get]
func (h *FileHandler) SearchFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("query")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	total, views, err := h.fileMapService.Search(ctx, claims.UserUUID, query, page, limit)
	if err != nil {
		handleFileError(w, err)
		return
	}

	files := make([]requestresponse.FileResponse, 0, len(views))
	for i := range views {
		files = append(files, requestresponse.FileResponseFromView(&views[i]))
	}

	util.Success(w, http.StatusOK, "результаты поиска", requestresponse.SearchFilesResponse{
		Total: total,
		Page:  page,
		Limit: limit,
		Files: files,
	})
}

// ListSharedFiles godoc
// @Summary Файлы, доступные по грантам
// @Description Записи других пользователей, к которым вызывающему выдан доступ
// @Tags Files
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} util.Envelope{data=[]requestresponse.FileResponse}
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/shared [get]
func (h *FileHandler) ListSharedFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	views, err := h.fileMapService.ListShared(ctx, claims.UserUUID)
	if err != nil {
		handleFileError(w, err)
		return
	}

	responses := make([]requestresponse.FileResponse, 0, len(views))
	for i := range views {
		responses = append(responses, requestresponse.FileResponseFromView(&views[i]))
	}

	util.Success(w, http.StatusOK, "доступные файлы", responses)
}

// ListVersions godoc
// @Summary История версий файла
// @Description Версии от новых к старым, права на чтение те же, что на сам файл
// @Tags Versions
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param fileId path string true "UUID записи файла"
// @Success 200 {object} util.Envelope{data=[]requestresponse.FileVersionResponse}
// @Failure 403 {object} util.Envelope "Доступ запрещён"
// @Failure 404 {object} util.Envelope "Файл не найден"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/{fileId}/versions [get]
func (h *FileHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	versions, err := h.versionService.List(ctx, chi.URLParam(r, "fileId"), claims.UserUUID)
	if err != nil {
		handleFileError(w, err)
		return
	}

	responses := make([]requestresponse.FileVersionResponse, 0, len(versions))
	for i := range versions {
		responses = append(responses, requestresponse.VersionResponseFromView(&versions[i]))
	}

	util.Success(w, http.StatusOK, "история версий", responses)
}

// UploadVersion godoc
// @Summary Загрузка новой версии файла
// @Description Текущее состояние записи уходит в историю, запись переводится на новый контент.
// @Description Контент, совпадающий с текущим или с одной из прошлых версий, отклоняется.
// @Tags Versions
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param fileId path string true "UUID записи файла"
// @Param file formData file true "Содержимое новой версии"
// @Param name formData string false "Новое имя записи"
// @Param description formData string false "Новое описание"
// @Success 200 {object} util.Envelope{data=requestresponse.UploadFileResponse} "Версия загружена"
// @Failure 400 {object} util.Envelope "Нет поля file"
// @Failure 403 {object} util.Envelope "Доступ запрещён"
// @Failure 404 {object} util.Envelope "Файл не найден"
// @Failure 409 {object} util.Envelope "Контент совпадает с текущим или прошлой версией"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/{fileId}/versions [post]
func (h *FileHandler) UploadVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		util.HandleError(w, "некорректный multipart запрос", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		util.HandleError(w, "поле file обязательно", http.StatusBadRequest)
		return
	}
	defer file.Close()

	staged, err := h.contentStore.Stage(file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		log.Println(err)
		util.HandleError(w, "не удалось сохранить загружаемый файл", http.StatusInternalServerError)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	description := r.FormValue("description")

	fileMapUUID := chi.URLParam(r, "fileId")
	if err := h.versionService.Upload(ctx, fileMapUUID, claims.UserUUID, staged, name, description); err != nil {
		handleFileError(w, err)
		return
	}

	util.Success(w, http.StatusOK, "версия загружена", requestresponse.UploadFileResponse{
		FileID: fileMapUUID,
	})
}

// RevertVersion godoc
// @Summary Откат файла на версию
// @Description Запись возвращается к сохранённой версии, сама версия и все более
// @Description поздние удаляются из истории без возможности повторного отката вперёд
// @Tags Versions
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param fileId path string true "UUID записи файла"
// @Param versionId path int true "Номер версии"
// @Success 200 {object} util.Envelope "Файл откатан"
// @Failure 403 {object} util.Envelope "Доступ запрещён"
// @Failure 404 {object} util.Envelope "Файл или версия не найдены"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/{fileId}/versions/revert/{versionId} [post]
func (h *FileHandler) RevertVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	versionID, err := strconv.ParseInt(chi.URLParam(r, "versionId"), 10, 64)
	if err != nil {
		util.HandleError(w, "некорректный номер версии", http.StatusBadRequest)
		return
	}

	if err := h.versionService.Restore(ctx, chi.URLParam(r, "fileId"), versionID, claims.UserUUID); err != nil {
		handleFileError(w, err)
		return
	}

	util.Success(w, http.StatusOK, "файл откатан на версию", nil)
}

// SetAccess godoc
// @Summary Установка политики доступа
// @Description public — виден всем, private — только владельцу, partial — владельцу
// @Description и пользователям из allowedUserIds. Список применяется как diff к текущим грантам.
// @Tags Access
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param fileId path string true "UUID записи файла"
// @Param body body requestresponse.SetAccessRequest true "Тело запроса"
// @Success 200 {object} util.Envelope "Политика доступа изменена"
// @Failure 400 {object} util.Envelope "Некорректный JSON или accessType"
// @Failure 403 {object} util.Envelope "Доступ запрещён"
// @Failure 404 {object} util.Envelope "Файл не найден"
// @Failure 422 {object} util.Envelope "Пользователи из allowedUserIds не найдены"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/{fileId}/access [put]
func (h *FileHandler) SetAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	var req requestresponse.SetAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		util.HandleError(w, "accessType должен быть public, private или partial", http.StatusBadRequest)
		return
	}

	if err := h.accessService.SetAccess(ctx, chi.URLParam(r, "fileId"), claims.UserUUID, req.AccessType, req.AllowedUserIDs); err != nil {
		handleFileError(w, err)
		return
	}

	util.Success(w, http.StatusOK, "политика доступа изменена", nil)
}

// RemoveAccess godoc
// @Summary Снятие гранта доступа
// @Description Убирает одного пользователя из списка допущенных, идемпотентно
// @Tags Access
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param fileId path string true "UUID записи файла"
// @Param body body requestresponse.RemoveAccessRequest true "Тело запроса"
// @Success 200 {object} util.Envelope "Грант снят"
// @Failure 400 {object} util.Envelope "Некорректный JSON"
// @Failure 403 {object} util.Envelope "Доступ запрещён"
// @Failure 404 {object} util.Envelope "Файл не найден"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/{fileId}/access/remove [post]
func (h *FileHandler) RemoveAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	var req requestresponse.RemoveAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		util.HandleError(w, "userId обязателен", http.StatusBadRequest)
		return
	}

	if err := h.accessService.RemoveAccess(ctx, chi.URLParam(r, "fileId"), claims.UserUUID, req.UserID); err != nil {
		handleFileError(w, err)
		return
	}

	util.Success(w, http.StatusOK, "грант снят", nil)
}

// ListAccess godoc
// @Summary Список допущенных пользователей
// @Description Пользователи с активным грантом, доступно только владельцу
// @Tags Access
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param fileId path string true "UUID записи файла"
// @Success 200 {object} util.Envelope{data=[]requestresponse.GrantedUserResponse}
// @Failure 403 {object} util.Envelope "Доступ запрещён"
// @Failure 404 {object} util.Envelope "Файл не найден"
// @Failure 500 {object} util.Envelope "Внутренняя ошибка сервера"
// @Router /api/files/{fileId}/access [get]
func (h *FileHandler) ListAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	users, err := h.accessService.ListGrantedUsers(ctx, chi.URLParam(r, "fileId"), claims.UserUUID)
	if err != nil {
		handleFileError(w, err)
		return
	}

	responses := make([]requestresponse.GrantedUserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, requestresponse.GrantedUserResponse{
			UserUUID:  user.UserUUID,
			Name:      user.Name,
			Email:     user.Email,
			GrantedAt: user.GrantedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	util.Success(w, http.StatusOK, "список допущенных пользователей", responses)
}

func handleFileError(w http.ResponseWriter, err error) {
	log.Println(err)

	var invalidUsers *service.InvalidUserIdsError
	switch {
	case errors.Is(err, service.ErrFileNotFound):
		util.HandleError(w, service.ErrFileNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrDirectoryNotFound):
		util.HandleError(w, service.ErrDirectoryNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrVersionNotFound):
		util.HandleError(w, service.ErrVersionNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrAccessDenied):
		util.HandleError(w, service.ErrAccessDenied.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrDuplicateFile):
		util.HandleError(w, service.ErrDuplicateFile.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrDuplicateName):
		util.HandleError(w, service.ErrDuplicateName.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrDuplicateVersion):
		util.HandleError(w, service.ErrDuplicateVersion.Error(), http.StatusConflict)
	case errors.As(err, &invalidUsers):
		util.HandleError(w, invalidUsers.Error(), http.StatusUnprocessableEntity)
	default:
		util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}
