package product

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	cacheTTL         = 5 * time.Minute
	notFoundCacheTTL = time.Minute
	notFoundMarker   = "notfound"
)

// CachedRepository serves GetByID from Redis and falls back to the wrapped
// repository. Lists are never cached.
type CachedRepository struct {
	realRepo Repository
	redis    *redis.Client
	ttl      time.Duration
}

func NewCachedRepository(realRepo Repository, client *redis.Client) *CachedRepository {
	return &CachedRepository{
		realRepo: realRepo,
		redis:    client,
		ttl:      cacheTTL,
	}
}

func cacheKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func (c *CachedRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	key := cacheKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, ErrProductNotFound
		}

		var p Product
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache: failed to unmarshal cached product, continuing with DB")
			break
		}
		return &p, nil

	case errors.Is(err, redis.Nil):

	default:
		log.Warn().Err(err).Msg("cache: redis error, continuing with DB")
	}

	p, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, notFoundCacheTTL).Err(); setErr != nil {
				log.Warn().Err(setErr).Str("key", key).Msg("cache: failed to cache notfound")
			}
		}
		return nil, err
	}

	jsonData, err := json.Marshal(p)
	if err != nil {
		log.Warn().Err(err).Msg("cache: failed to marshal product")
		return p, nil
	}
	if err := c.redis.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: failed to cache product")
	}

	return p, nil
}

func (c *CachedRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.redis.Del(ctx, cacheKey(id)).Err(); err != nil {
		log.Warn().Err(err).Stringer("product_id", id).Msg("cache: failed to delete product cache")
	}
}

// Create clears a stale notfound marker for the new id.
func (c *CachedRepository) Create(ctx context.Context, p *Product) error {
	if err := c.realRepo.Create(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID)
	return nil
}

func (c *CachedRepository) Update(ctx context.Context, p *Product) error {
	defer c.invalidate(ctx, p.ID)
	return c.realRepo.Update(ctx, p)
}

func (c *CachedRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer c.invalidate(ctx, id)
	return c.realRepo.Delete(ctx, id)
}

func (c *CachedRepository) List(ctx context.Context, filter Filter) ([]Product, error) {
	return c.realRepo.List(ctx, filter)
}
