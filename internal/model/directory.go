package model

import "time"

type Directory struct {
	UUID        string     `db:"uuid" json:"uuid"`
	Name        string     `db:"name" json:"name"`
	ParentUUID  *string    `db:"parent_uuid" json:"parent_uuid,omitempty"`
	CreatorUUID string     `db:"creator_uuid" json:"creator_uuid"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
