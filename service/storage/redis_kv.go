package storage

import (
	"context"
	"errors"

	"PPClient/tools/errs"

	"github.com/redis/go-redis/v9"
)

// Redis 远端 KV，多个客户端实例共享偏好和角标时使用
type Redis struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (s *Redis) key(k string) string { return s.prefix + k }

func (s *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.ErrRecordNotFound.WrapMsg("redis get", "key", key)
	}
	if err != nil {
		return "", errs.WrapMsg(err, "redis get", "key", key)
	}
	return val, nil
}

func (s *Redis) Set(ctx context.Context, key, value string) error {
	return errs.WrapMsg(s.rdb.Set(ctx, s.key(key), value, 0).Err(), "redis set", "key", key)
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	return errs.WrapMsg(s.rdb.Del(ctx, s.key(key)).Err(), "redis del", "key", key)
}

func (s *Redis) Close() error { return s.rdb.Close() }

// RedisCounter 用 INCR 做角标计数，天然原子
type RedisCounter struct {
	rdb *redis.Client
	key string
}

func NewRedisCounter(rdb *redis.Client, prefix string) *RedisCounter {
	return &RedisCounter{rdb: rdb, key: prefix + KeyBadgeCount}
}

func (c *RedisCounter) Increment(ctx context.Context) (int64, error) {
	n, err := c.rdb.Incr(ctx, c.key).Result()
	return n, errs.WrapMsg(err, "redis incr", "key", c.key)
}

func (c *RedisCounter) Count(ctx context.Context) (int64, error) {
	n, err := c.rdb.Get(ctx, c.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, errs.WrapMsg(err, "redis get", "key", c.key)
}

func (c *RedisCounter) Reset(ctx context.Context) error {
	return errs.WrapMsg(c.rdb.Del(ctx, c.key).Err(), "redis del", "key", c.key)
}
