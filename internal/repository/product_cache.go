package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type cachedProductRepository struct {
	next        ProductRepository
	redisClient *redis.Client
	appID       string
	cacheTTL    time.Duration
}

// NewCachedProductRepository serves FindByID through Redis and invalidates
// the entry on Update and Delete. Redis errors fall through to next.
func NewCachedProductRepository(next ProductRepository, redisClient *redis.Client, appID string, ttl time.Duration) ProductRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &cachedProductRepository{
		next:        next,
		redisClient: redisClient,
		appID:       appID,
		cacheTTL:    ttl,
	}
}

func (r *cachedProductRepository) key(id string) string {
	return fmt.Sprintf("product:%s:%s", r.appID, id)
}

func (r *cachedProductRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	return r.next.List(ctx, filter)
}

func (r *cachedProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	log := logger.FromStdContext(ctx)
	key := r.key(id)

	val, err := r.redisClient.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var product model.Product
		if err := json.Unmarshal(val, &product); err == nil {
			prometheus.RecordCacheLookup("hit")
			return &product, nil
		}
		log.Warn("Dropping unreadable cache entry", zap.String("key", key))
		r.redisClient.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		log.Warn("Product cache read failed", zap.String("key", key), zap.Error(err))
	}
	prometheus.RecordCacheLookup("miss")

	product, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		if err := r.redisClient.Set(ctx, key, data, r.cacheTTL).Err(); err != nil {
			log.Warn("Product cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return product, nil
}

func (r *cachedProductRepository) Create(ctx context.Context, product *model.Product) error {
	return r.next.Create(ctx, product)
}

func (r *cachedProductRepository) Update(ctx context.Context, id string, update ProductUpdate) (*model.Product, error) {
	product, err := r.next.Update(ctx, id, update)
	r.invalidate(ctx, id)
	return product, err
}

func (r *cachedProductRepository) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

func (r *cachedProductRepository) invalidate(ctx context.Context, id string) {
	if err := r.redisClient.Del(ctx, r.key(id)).Err(); err != nil {
		logger.FromStdContext(ctx).Warn("Product cache invalidation failed",
			zap.String("product_id", id), zap.Error(err))
	}
}
