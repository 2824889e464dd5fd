package model

import "time"

const (
	AccessPublic  = "public"
	AccessPrivate = "private"
	AccessPartial = "partial"
)

// FileMap : логический файл пользователя — имя, описание, расположение
// и политика доступа, привязанные к физическому блобу.
type FileMap struct {
	UUID          string     `db:"uuid" json:"uuid"`
	FileUUID      string     `db:"file_uuid" json:"file_uuid"`
	DirectoryUUID *string    `db:"directory_uuid" json:"directory_uuid,omitempty"`
	Name          string     `db:"name" json:"name"`
	Description   string     `db:"description" json:"description"`
	AccessType    string     `db:"access_type" json:"access_type"`
	CreatorUUID   string     `db:"creator_uuid" json:"creator_uuid"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// FileMapView : FileMap с приджойненными атрибутами блоба и именем создателя
type FileMapView struct {
	FileMap
	Hash        string `db:"hash" json:"hash"`
	StoragePath string `db:"storage_path" json:"-"`
	SizeBytes   int64  `db:"size_bytes" json:"size_bytes"`
	MimeType    string `db:"mime_type" json:"mime_type"`
	Extension   string `db:"extension" json:"extension"`
	CreatorName string `db:"creator_name" json:"creator_name,omitempty"`
}
