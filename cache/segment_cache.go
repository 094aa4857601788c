package cache

import (
	"context"
	"time"

	"FreeTunes/db"
	"FreeTunes/logger"

	"github.com/redis/go-redis/v9"
)

// SetSegment caches one packaged segment (or manifest) with a TTL. Misses
// and failures are non-fatal: the static file tree remains the source of
// truth, the cache only shortcuts hot segments.
func SetSegment(key string, data []byte, expiration time.Duration) error {
	if db.RedisClient == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.RedisClient.Set(ctx, key, data, expiration).Err(); err != nil {
		logger.Warn("segment cache set failed",
			logger.String("key", key),
			logger.Int("dataSize", len(data)),
			logger.ErrorField(err))
		return err
	}

	logger.Debug("segment cached",
		logger.String("key", key),
		logger.Int("dataSize", len(data)),
		logger.Duration("expiration", expiration))
	return nil
}

// GetSegment fetches a cached segment. A miss returns (nil, nil) so the
// caller falls through to the file tree or MinIO.
func GetSegment(key string) ([]byte, error) {
	if db.RedisClient == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	maxRetries := 2
	retryDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		data, err := db.RedisClient.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				return nil, nil
			}
			if attempt < maxRetries-1 {
				logger.Warn("segment cache get failed, retrying",
					logger.String("key", key),
					logger.Int("attempt", attempt+1),
					logger.ErrorField(err))
				time.Sleep(retryDelay)
				retryDelay *= 2
				continue
			}
			logger.Error("segment cache get failed",
				logger.String("key", key),
				logger.ErrorField(err))
			return nil, nil
		}
		return data, nil
	}

	return nil, nil
}

// DeleteSegments drops all cached segments under a stream prefix. Best
// effort; used when a stream directory is reclaimed.
func DeleteSegments(prefix string) {
	if db.RedisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	iter := db.RedisClient.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := db.RedisClient.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("segment cache delete failed",
				logger.String("key", iter.Val()),
				logger.ErrorField(err))
		}
	}
	if err := iter.Err(); err != nil {
		logger.Warn("segment cache scan failed",
			logger.String("prefix", prefix),
			logger.ErrorField(err))
	}
}
