package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis is the shared cache used when several instances sit in front of the
// same database. Clear bumps a namespace version instead of scanning keys.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

const versionKey = "userhub:cache:ver"

func NewRedis(cfg RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ttl := cfg.TTL

	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Redis{rdb: rdb, ttl: ttl}
}

// Ping checks redis connectivity.
func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}

func (c *Redis) namespacedKey(ctx context.Context, key string) string {
	ver, err := c.rdb.Get(ctx, versionKey).Int64()

	if err != nil {
		ver = 0
	}

	return "userhub:cache:v" + strconv.FormatInt(ver, 10) + ":" + key
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.rdb.Get(ctx, c.namespacedKey(ctx, key)).Bytes()

	if err != nil {
		return nil, false
	}

	return val, true
}

func (c *Redis) Set(ctx context.Context, key string, val []byte) {
	// cache is best-effort, errors are dropped
	_ = c.rdb.Set(ctx, c.namespacedKey(ctx, key), val, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, key string) {
	_ = c.rdb.Del(ctx, c.namespacedKey(ctx, key)).Err()
}

func (c *Redis) Clear(ctx context.Context) {
	// old-version keys expire on their own TTL
	_ = c.rdb.Incr(ctx, versionKey).Err()
}
