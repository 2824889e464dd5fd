package requestresponse

// CreateDirectoryRequest : тело запроса создания директории
type CreateDirectoryRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255" example:"Documents"`
	DirectoryID *string `json:"directoryId,omitempty" validate:"omitempty,uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
}

// CreateDirectoryResponse : успешный ответ с ID созданной директории
type CreateDirectoryResponse struct {
	DirectoryID string `json:"directoryId" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
}

// RenameDirectoryRequest : тело запроса переименования
type RenameDirectoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255" example:"Archive"`
}
