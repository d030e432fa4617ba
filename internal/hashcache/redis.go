package hashcache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fakehub/fakehub/internal/logging"
)

// RedisStore keeps digests in Redis so they survive server restarts.
// Hashing a multi-gigabyte fixture once per process gets expensive when
// the server is restarted often during development.
//
// Redis failures degrade to cache misses: the server must keep serving
// even when the cache is down.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds connection settings for a RedisStore.
type RedisConfig struct {
	URL string // redis://<user>:<password>@<host>:<port>/<db>
	TTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(key Key) string {
	return "fakehub:digest:" + key.Path + "|" +
		strconv.FormatInt(key.Size, 10) + "|" +
		strconv.FormatInt(key.ModTime, 10)
}

func (s *RedisStore) Get(ctx context.Context, key Key) (Digests, bool) {
	val, err := s.client.Get(ctx, redisKey(key)).Result()
	if err == redis.Nil {
		return Digests{}, false
	}
	if err != nil {
		logging.Warn("redis digest lookup failed", zap.Error(err))
		return Digests{}, false
	}

	sha1Hex, sha256Hex, ok := strings.Cut(val, ":")
	if !ok {
		return Digests{}, false
	}
	return Digests{SHA1: sha1Hex, SHA256: sha256Hex}, true
}

func (s *RedisStore) Put(ctx context.Context, key Key, d Digests) {
	val := d.SHA1 + ":" + d.SHA256
	if err := s.client.Set(ctx, redisKey(key), val, s.ttl).Err(); err != nil {
		logging.Warn("redis digest store failed", zap.Error(err))
	}
}
