package cache

import (
	"context"
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

type loadingCache[V any] struct {
	cache      *ttlcache.Cache[string, V]
	loaderLock *singleflight.Group
}

func newLoadingCache[V any](ttl time.Duration) *loadingCache[V] {
	cache := ttlcache.New(ttlcache.WithTTL[string, V](ttl))
	go cache.Start()
	return &loadingCache[V]{cache: cache, loaderLock: &singleflight.Group{}}
}

// get returns the cached value of key, calling loader at most once for
// concurrent misses. Loader errors are not cached.
func (c *loadingCache[V]) get(key string, loader func() (V, error)) (V, error) {
	if item := c.cache.Get(key); item != nil {
		return item.Value(), nil
	}
	res, err, _ := c.loaderLock.Do(key, func() (interface{}, error) {
		if item := c.cache.Get(key); item != nil {
			return item.Value(), nil
		}
		v, err := loader()
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, v, ttlcache.DefaultTTL)
		return v, nil
	})
	var v V
	if err != nil {
		return v, err
	}
	return res.(V), nil
}

func (c *loadingCache[V]) delete(key string) {
	c.cache.Delete(key)
}

func (c *loadingCache[V]) close() {
	c.cache.Stop()
	c.cache.DeleteAll()
}

// StyleStore caches layer styles of a slower store (map server REST API).
// Writes go straight to the wrapped store and invalidate the layer entry.
type StyleStore struct {
	store  domain.StyleStore
	styles *loadingCache[domain.LayerStyle]
}

func NewStyleStore(store domain.StyleStore, ttl time.Duration) *StyleStore {
	return &StyleStore{store: store, styles: newLoadingCache[domain.LayerStyle](ttl)}
}

func (s *StyleStore) GetStyle(ctx context.Context, layer string) (domain.LayerStyle, error) {
	return s.styles.get(layer, func() (domain.LayerStyle, error) {
		return s.store.GetStyle(ctx, layer)
	})
}

func (s *StyleStore) SaveStyle(ctx context.Context, layer, styleName, sldBody string) error {
	defer s.styles.delete(layer)
	return s.store.SaveStyle(ctx, layer, styleName, sldBody)
}

func (s *StyleStore) SetDefaultStyle(ctx context.Context, layer, styleName string) error {
	defer s.styles.delete(layer)
	return s.store.SetDefaultStyle(ctx, layer, styleName)
}

func (s *StyleStore) Close() {
	s.styles.close()
}

// AttributeSource caches layer attribute lists.
type AttributeSource struct {
	source domain.AttributeSource
	layers *loadingCache[domain.LayerInfo]
}

func NewAttributeSource(source domain.AttributeSource, ttl time.Duration) *AttributeSource {
	return &AttributeSource{source: source, layers: newLoadingCache[domain.LayerInfo](ttl)}
}

func (a *AttributeSource) GetLayerInfo(ctx context.Context, layer string) (domain.LayerInfo, error) {
	return a.layers.get(layer, func() (domain.LayerInfo, error) {
		return a.source.GetLayerInfo(ctx, layer)
	})
}

func (a *AttributeSource) Close() {
	a.layers.close()
}
