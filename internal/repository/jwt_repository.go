package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/util"
)

type JWTRepository struct {
	*config.Database
}

func NewJWTRepository(database *config.Database) *JWTRepository {
	return &JWTRepository{database}
}

// SaveRefreshToken : сохраняет хэш рефреш токена вместе с user-agent и IP,
// по которым при ротации детектируется кража токена
func (r *JWTRepository) SaveRefreshToken(ctx context.Context, refreshToken *model.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (uuid, user_uuid, token_hash, expire_at, used, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.DB.ExecContext(ctx, query,
		refreshToken.UUID,
		refreshToken.UserUUID,
		refreshToken.TokenHash,
		refreshToken.ExpireAt,
		refreshToken.Used,
		refreshToken.UserAgent,
		refreshToken.IpAddress,
	)
	if err != nil {
		return util.LogError("[JWTRepo] ошибка сохранения рефреш токена", err)
	}

	return nil
}

// MarkRefreshTokenUsedByUUID : одноразовость токена. Условие used = FALSE
// делает повторную пометку ошибкой, а не no-op.
func (r *JWTRepository) MarkRefreshTokenUsedByUUID(ctx context.Context, refreshTokenUUID string) error {
	query := `UPDATE refresh_tokens SET used = TRUE WHERE uuid = $1 AND used = FALSE`

	result, err := r.DB.ExecContext(ctx, query, refreshTokenUUID)
	if err != nil {
		return util.LogError("[JWTRepo] не удалось обновить рефреш токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[JWTRepo] не удалось проверить, обновлен ли токен", err)
	}
	if rowsAffected == 0 {
		return util.LogError("[JWTRepo] активный токен не найден", fmt.Errorf("uuid %s", refreshTokenUUID))
	}

	return nil
}

func (r *JWTRepository) FindByUUID(ctx context.Context, refreshTokenUUID string) (*model.RefreshToken, error) {
	query := `
		SELECT uuid, user_uuid, token_hash, expire_at, used, user_agent, ip_address
		FROM refresh_tokens
		WHERE uuid = $1
	`

	refreshToken := &model.RefreshToken{}
	err := r.DB.GetContext(ctx, refreshToken, query, refreshTokenUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, util.LogError("[JWTRepo] рефреш токен не найден", err)
	}
	if err != nil {
		return nil, util.LogError("[JWTRepo] ошибка поиска рефреш токена", err)
	}

	return refreshToken, nil
}
