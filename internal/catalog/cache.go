package catalog

import (
	"context"
	"time"
)

// Cache is the read cache in front of catalog GETs. *redis.Client satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CatalogKey(resource string, parts ...string) string
}

const (
	resourceProducts      = "products"
	resourceCategories    = "categories"
	resourceManufacturers = "manufacturers"
	resourceReviews       = "reviews"
)

func (a *API) cached(ctx context.Context, key string, dest any, load func() error) error {
	if a.cache == nil {
		return load()
	}
	if err := a.cache.GetJSON(ctx, key, dest); err == nil {
		return nil
	} else if !isMiss(err) {
		a.logg.Warn(a.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "catalog cache read failed")
	}
	if err := load(); err != nil {
		return err
	}
	if err := a.cache.SetJSON(ctx, key, dest, a.ttl); err != nil {
		a.logg.Warn(a.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "catalog cache write failed")
	}
	return nil
}

func (a *API) invalidate(ctx context.Context, resource string, parts ...string) {
	if a.cache == nil {
		return
	}
	keys := []string{a.cache.CatalogKey(resource)}
	if len(parts) > 0 {
		keys = append(keys, a.cache.CatalogKey(resource, parts...))
	}
	if err := a.cache.Del(ctx, keys...); err != nil {
		a.logg.Warn(a.logg.WithFields(ctx, map[string]any{"resource": resource, "error": err.Error()}), "catalog cache invalidation failed")
	}
}
