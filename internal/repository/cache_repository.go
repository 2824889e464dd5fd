package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/util"

	"github.com/redis/go-redis/v9"
)

type CacheRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewCacheRepository(rdb *config.RedisClient, ttl time.Duration) *CacheRepository {
	return &CacheRepository{rdb, ttl}
}

func (r *CacheRepository) SetFileEntry(ctx context.Context, entry *model.FileMapView) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return util.LogError("ошибка сериализации записи файла", err)
	}

	cmd := r.client.Client.Set(ctx, r.key(entry.UUID), data, r.ttl)
	if err = cmd.Err(); err != nil {
		return util.LogError("ошибка сохранения в Redis", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("неожиданный ответ Redis: %s", cmd.Val())
	}

	return nil
}

func (r *CacheRepository) GetFileEntry(ctx context.Context, uuid string) (*model.FileMapView, error) {
	val, err := r.client.Client.Get(ctx, r.key(uuid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // нет в кэше
	} else if err != nil {
		return nil, util.LogError("ошибка получения записи файла из Redis", err)
	}

	var entry model.FileMapView
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, util.LogError("ошибка десериализации записи файла из кэша", err)
	}
	return &entry, nil
}

func (r *CacheRepository) DeleteFileEntry(ctx context.Context, uuid string) error {
	if err := r.client.Client.Del(ctx, r.key(uuid)).Err(); err != nil {
		return util.LogError("ошибка удаления записи файла из Redis", err)
	}
	return nil
}

func (r *CacheRepository) key(uuid string) string {
	return fmt.Sprintf("filemap:%s", uuid)
}
