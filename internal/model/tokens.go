package model

import "time"

// RefreshToken хранится в БД только в виде bcrypt-хэша,
// сырое значение отдаётся клиенту один раз
type RefreshToken struct {
	UUID      string     `db:"uuid"`
	UserUUID  string     `db:"user_uuid"`
	TokenHash string     `db:"token_hash"`
	ExpireAt  time.Time  `db:"expire_at"`
	Used      bool       `db:"used"`
	UserAgent string     `db:"user_agent"`
	IpAddress string     `db:"ip_address"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// TokensPair : пара токенов, выдаваемая при логине и ротации
// swagger:model
type TokensPair struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"accessToken"`

	// Refresh токен для получения новой пары
	// example: dGhpcyBpcyBub3QgYSByZWFsIHRva2Vu...
	RefreshToken string `json:"refreshToken"`
}
