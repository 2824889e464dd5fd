package model

import "time"

// FileAccess : явный грант доступа одного пользователя к одному FileMap.
// Имеет смысл только при access_type = partial, владелец в грантах не хранится.
type FileAccess struct {
	FileMapUUID string    `db:"file_map_uuid" json:"file_map_uuid"`
	UserUUID    string    `db:"user_uuid" json:"user_uuid"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GrantedUser : пользователь с доступом к файлу (для списка грантов)
type GrantedUser struct {
	UserUUID  string    `db:"user_uuid" json:"user_uuid"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	GrantedAt time.Time `db:"granted_at" json:"granted_at"`
}
