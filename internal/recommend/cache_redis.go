package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"vibecheck/movieservice/internal/domain"
)

const redisCachePrefix = "vibecheck:results:"

// RedisCacheBackend stores recommendations in Redis as JSON.
type RedisCacheBackend struct {
	client *redis.Client
}

func NewRedisCacheBackend(client *redis.Client) *RedisCacheBackend {
	return &RedisCacheBackend{client: client}
}

func (r *RedisCacheBackend) Get(ctx context.Context, key string) (domain.Recommendation, bool, error) {
	data, err := r.client.Get(ctx, redisCachePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Recommendation{}, false, nil
		}
		return domain.Recommendation{}, false, err
	}
	var recommendation domain.Recommendation
	if err := json.Unmarshal(data, &recommendation); err != nil {
		return domain.Recommendation{}, false, err
	}
	return recommendation, true, nil
}

func (r *RedisCacheBackend) Set(ctx context.Context, key string, recommendation domain.Recommendation, ttl time.Duration) error {
	data, err := json.Marshal(recommendation)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisCachePrefix+key, data, ttl).Err()
}
