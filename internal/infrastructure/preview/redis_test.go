package preview

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupStore(t *testing.T) *RedisPreviewStore {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	store, err := NewRedisPreviewStore(zap.NewNop().Sugar(), rdb, time.Minute)
	require.NoError(t, err)
	return store
}

func TestInvalidTTL(t *testing.T) {
	_, err := NewRedisPreviewStore(zap.NewNop().Sugar(), nil, -time.Second)
	assert.True(t, errors.Is(err, ErrInvalidDuration))
}

func TestPreviewKey(t *testing.T) {
	assert.Equal(t, "style_preview:gisweb:parcels", previewKey("gisweb:parcels"))
}

func TestRedisPreviewLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	layer := "test:preview_lifecycle"

	require.NoError(t, store.SetPreview(ctx, layer, "<StyledLayerDescriptor/>"))
	body, err := store.GetPreview(ctx, layer)
	require.NoError(t, err)
	assert.Equal(t, "<StyledLayerDescriptor/>", body)

	layers, err := store.Layers(ctx)
	require.NoError(t, err)
	assert.Contains(t, layers, layer)

	require.NoError(t, store.ClearPreview(ctx, layer))
	_, err = store.GetPreview(ctx, layer)
	assert.True(t, errors.Is(err, domain.ErrPreviewNotExists))
}
