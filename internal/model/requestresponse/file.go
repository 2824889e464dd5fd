package requestresponse

import (
	"time"

	"file-storage-server/internal/model"
)

// UploadFileResponse : успешный ответ загрузки файла
type UploadFileResponse struct {
	FileID string `json:"fileId" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
}

// FileResponse : описывает логический файл для JSON-ответа
type FileResponse struct {
	UUID        string  `json:"id" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	Name        string  `json:"name" example:"report.pdf"`
	Description string  `json:"description" example:"Квартальный отчёт"`
	DirectoryID *string `json:"directoryId,omitempty"`
	AccessType  string  `json:"accessType" example:"private"`
	SizeBytes   int64   `json:"size" example:"102400"`
	MimeType    string  `json:"mime" example:"application/pdf"`
	Extension   string  `json:"extension" example:"pdf"`
	Hash        string  `json:"hash" example:"9f86d081884c7d659a2feaa0c55ad015..."`
	CreatorName string  `json:"creatorName,omitempty" example:"Ivan Petrov"`
	CreatedAt   string  `json:"created" example:"2025-08-23T12:34:56Z"`
	UpdatedAt   string  `json:"updated" example:"2025-08-23T12:34:56Z"`
}

// FileResponseFromView : конвертирует model.FileMapView в FileResponse
func FileResponseFromView(view *model.FileMapView) FileResponse {
	return FileResponse{
		UUID:        view.UUID,
		Name:        view.Name,
		Description: view.Description,
		DirectoryID: view.DirectoryUUID,
		AccessType:  view.AccessType,
		SizeBytes:   view.SizeBytes,
		MimeType:    view.MimeType,
		Extension:   view.Extension,
		Hash:        view.Hash,
		CreatorName: view.CreatorName,
		CreatedAt:   view.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   view.UpdatedAt.Format(time.RFC3339),
	}
}

// UpdateMetaDataRequest : тело запроса обновления имени и описания файла
type UpdateMetaDataRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255" example:"report-v2.pdf"`
	Description string `json:"description" validate:"max=1024" example:"Обновлённый отчёт"`
}

// SearchFilesResponse : результат поиска с пагинацией
type SearchFilesResponse struct {
	Total int            `json:"total" example:"42"`
	Page  int            `json:"page" example:"1"`
	Limit int            `json:"limit" example:"10"`
	Files []FileResponse `json:"files"`
}

// FileVersionResponse : версия файла в списке версий
type FileVersionResponse struct {
	VersionID   int64  `json:"versionId" example:"7"`
	Name        string `json:"name" example:"report.pdf"`
	Description string `json:"description" example:"Первая редакция"`
	SizeBytes   int64  `json:"size" example:"98304"`
	MimeType    string `json:"mime" example:"application/pdf"`
	Extension   string `json:"extension" example:"pdf"`
	CreatedAt   string `json:"created" example:"2025-08-23T12:34:56Z"`
}

// VersionResponseFromView : конвертирует model.FileVersionView в FileVersionResponse
func VersionResponseFromView(view *model.FileVersionView) FileVersionResponse {
	return FileVersionResponse{
		VersionID:   view.VersionID,
		Name:        view.Name,
		Description: view.Description,
		SizeBytes:   view.SizeBytes,
		MimeType:    view.MimeType,
		Extension:   view.Extension,
		CreatedAt:   view.CreatedAt.Format(time.RFC3339),
	}
}

// SetAccessRequest : тело запроса изменения политики доступа к файлу
type SetAccessRequest struct {
	AccessType     string   `json:"accessType" validate:"required,oneof=public private partial" example:"partial"`
	AllowedUserIDs []string `json:"allowedUserIds" validate:"dive,uuid"`
}

// RemoveAccessRequest : тело запроса удаления гранта доступа
type RemoveAccessRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// GrantedUserResponse : пользователь с доступом к файлу
type GrantedUserResponse struct {
	UserUUID  string `json:"userId" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	Name      string `json:"name" example:"Ivan Petrov"`
	Email     string `json:"email" example:"user@example.com"`
	GrantedAt string `json:"grantedAt" example:"2025-08-23T12:34:56Z"`
}
