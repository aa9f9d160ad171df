package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/domain/repositories"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
)

const (
	providerByIDTTL     = 10 * time.Minute
	providerCacheWrites = 500 * time.Millisecond
)

// CachedProviderAdapter wraps a ProviderRepository with a shared read-through
// cache. Provider records are reference data that calls never modify.
type CachedProviderAdapter struct {
	adapter repositories.ProviderRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedProviderAdapter creates a new cached provider adapter
func NewCachedProviderAdapter(adapter repositories.ProviderRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.ProviderRepository {
	return &CachedProviderAdapter{adapter: adapter, cache: cache, metrics: metrics}
}

func providerCacheKey(id int64) string {
	return fmt.Sprintf("provider:%d", id)
}

// GetByID retrieves a provider by ID, consulting the cache first. Cache
// failures fall through to the database.
func (a *CachedProviderAdapter) GetByID(ctx context.Context, id int64) (*entities.Provider, error) {
	key := providerCacheKey(id)
	logger := observability.LoggerFromContext(ctx)

	cached, err := a.cache.Get(ctx, key)
	switch {
	case err == nil:
		var provider entities.Provider
		if err := json.Unmarshal(cached, &provider); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, observability.CacheProvider)
			return &provider, nil
		}
		logger.Warn().Err(err).Int64("provider_id", id).Msg("discarding undecodable cached provider")
	case !errors.Is(err, providers.ErrCacheMiss):
		logger.Warn().Err(err).Int64("provider_id", id).Msg("provider cache unavailable")
	}
	observability.RecordCacheMiss(ctx, a.metrics, observability.CacheProvider)

	provider, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(provider); err == nil {
		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), providerCacheWrites)
		defer cancel()
		if err := a.cache.Set(setCtx, key, data, providerByIDTTL); err != nil {
			log.Warn().Err(err).Int64("provider_id", id).Msg("failed to cache provider")
		}
	}

	return provider, nil
}
