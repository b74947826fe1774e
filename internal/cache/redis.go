package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/domain"
	"github.com/spigell/soto-lp/internal/logger"
)

const DefaultPrefix = "soto-lp:extract:"

// Redis shares extractions between processes. Redis failures degrade to cache misses.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis wraps client. A zero ttl keeps entries until evicted by the server.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration, log *zap.Logger) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.OrNop(log),
	}
}

func (r *Redis) Get(ctx context.Context, key string) (domain.StructuredJob, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.StructuredJob{}, false
	}
	if err != nil {
		r.logger.Warn("read cached extraction", zap.String("cache_key", key), zap.Error(err))
		return domain.StructuredJob{}, false
	}

	var job domain.StructuredJob
	if err := json.Unmarshal(data, &job); err != nil {
		r.logger.Warn("decode cached extraction", zap.String("cache_key", key), zap.Error(err))
		return domain.StructuredJob{}, false
	}
	return job, true
}

// Add writes job only if no value exists under key yet.
func (r *Redis) Add(ctx context.Context, key string, job domain.StructuredJob) {
	data, err := json.Marshal(job)
	if err != nil {
		r.logger.Warn("encode extraction for cache", zap.String("cache_key", key), zap.Error(err))
		return
	}

	if err := r.client.SetNX(ctx, r.prefix+key, string(data), r.ttl).Err(); err != nil {
		r.logger.Warn("write cached extraction", zap.String("cache_key", key), zap.Error(err))
	}
}
