package model

import "time"

// FileVersion : неизменяемый снимок прошлого состояния FileMap.
// Версии образуют строго возрастающую append-only последовательность
// по version_id, новые версии всегда получают больший id.
type FileVersion struct {
	VersionID   int64      `db:"version_id" json:"version_id"`
	FileMapUUID string     `db:"file_map_uuid" json:"file_map_uuid"`
	FileUUID    string     `db:"file_uuid" json:"file_uuid"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// FileVersionView : версия с приджойненными атрибутами блоба
type FileVersionView struct {
	FileVersion
	Hash      string `db:"hash" json:"hash"`
	SizeBytes int64  `db:"size_bytes" json:"size_bytes"`
	MimeType  string `db:"mime_type" json:"mime_type"`
	Extension string `db:"extension" json:"extension"`
}
