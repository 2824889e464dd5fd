package model

import "time"

// File : физический блоб контента. Одна строка на уникальный hash,
// сколько бы записей file_maps на неё ни ссылалось.
type File struct {
	UUID        string     `db:"uuid" json:"uuid"`
	Hash        string     `db:"hash" json:"hash"`
	StoragePath string     `db:"storage_path" json:"storage_path"`
	SizeBytes   int64      `db:"size_bytes" json:"size_bytes"`
	MimeType    string     `db:"mime_type" json:"mime_type"`
	Extension   string     `db:"extension" json:"extension"`
	CreatorUUID string     `db:"creator_uuid" json:"creator_uuid"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// StagedUpload : принятый во временную директорию файл до коммита в хранилище
type StagedUpload struct {
	TempPath     string
	OriginalName string
	SizeBytes    int64
	MimeType     string
	Extension    string
}
