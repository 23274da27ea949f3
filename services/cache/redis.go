package cachesvc

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/term"
)

// store is the part of *redis.Client the cache uses.
type store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewRedisClient connects to the configured redis server.
// It returns a nil client when no address is configured.
func NewRedisClient(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	if conf.Redis.Address == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

// ActiveTermCache caches the ID of the Active school year in redis.
type ActiveTermCache struct {
	rdb    store
	key    string
	ttl    time.Duration
	logger core.Logger
}

var _ term.ActiveCache = (*ActiveTermCache)(nil)

// NewActiveTermCache returns nil when rdb is nil, which term.NewService treats as no cache.
// Keys are namespaced by app name and env; in test mode a random namespace isolates runs.
func NewActiveTermCache(rdb *redis.Client, conf *core.Config, logger core.Logger) term.ActiveCache {
	if rdb == nil {
		return nil
	}
	return newActiveTermCache(rdb, conf, logger)
}

func newActiveTermCache(rdb store, conf *core.Config, logger core.Logger) *ActiveTermCache {
	ns := strings.ToLower(conf.AppName + ":" + conf.Env)
	if conf.TestMode {
		ns += ":" + uuid.New().String()
	}
	ttl := conf.Redis.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ActiveTermCache{rdb: rdb, key: ns + ":school_year:active", ttl: ttl, logger: logger}
}

func (c *ActiveTermCache) Get(ctx context.Context) (int, bool) {
	val, err := c.rdb.Get(ctx, c.key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("reading active school year from cache", err)
		}
		return 0, false
	}
	id, err := strconv.Atoi(val)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (c *ActiveTermCache) Set(ctx context.Context, id int) {
	if err := c.rdb.Set(ctx, c.key, strconv.Itoa(id), c.ttl).Err(); err != nil {
		c.logger.Warn("caching active school year", err)
	}
}

func (c *ActiveTermCache) Clear(ctx context.Context) {
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		c.logger.Warn("clearing active school year cache", err)
	}
}
