package preview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	ErrInvalidDuration = errors.New("invalid duration value")
)

// RedisPreviewStore keeps unsaved style previews shared by all server
// instances. Previews expire after ttl unless refreshed by another edit.
type RedisPreviewStore struct {
	log *zap.SugaredLogger
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPreviewStore(log *zap.SugaredLogger, rdb *redis.Client, ttl time.Duration) (*RedisPreviewStore, error) {
	if ttl < 0 {
		return nil, ErrInvalidDuration
	}
	return &RedisPreviewStore{log: log, rdb: rdb, ttl: ttl}, nil
}

func previewKey(layer string) string {
	return fmt.Sprintf("style_preview:%s", layer)
}

func (s *RedisPreviewStore) SetPreview(ctx context.Context, layer, sldBody string) error {
	if err := s.rdb.Set(ctx, previewKey(layer), sldBody, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save preview: %w", err)
	}
	return nil
}

func (s *RedisPreviewStore) GetPreview(ctx context.Context, layer string) (string, error) {
	body, err := s.rdb.Get(ctx, previewKey(layer)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", domain.ErrPreviewNotExists
		}
		return "", fmt.Errorf("redis get preview: %w", err)
	}
	return body, nil
}

func (s *RedisPreviewStore) ClearPreview(ctx context.Context, layer string) error {
	return s.rdb.Del(ctx, previewKey(layer)).Err()
}

// Layers lists layers with an active preview.
func (s *RedisPreviewStore) Layers(ctx context.Context) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, previewKey("*")).Result()
	if err != nil {
		return nil, err
	}
	s.log.Debugw("preview layers", "keys", keys)
	layers := make([]string, len(keys))
	for i, k := range keys {
		layers[i] = k[len(previewKey("")):]
	}
	return layers, nil
}
