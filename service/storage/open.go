package storage

import (
	"context"
	"fmt"
	"strings"

	"PPClient/global/config"
	rds "PPClient/service/storage/redis"
	"PPClient/tools/errs"
)

// Open 按配置打开 KV 和对应的角标计数器
func Open(ctx context.Context, c config.StoreConfig) (KV, Counter, error) {
	switch strings.ToLower(c.Driver) {
	case config.StoreMemory:
		kv := NewMemory()
		return kv, NewKVCounter(kv), nil
	case config.StoreBadger:
		kv, err := OpenBadger(c.Path)
		if err != nil {
			return nil, nil, err
		}
		return kv, NewKVCounter(kv), nil
	case config.StoreRedis:
		rdb, err := rds.NewClient(ctx, rds.Config{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
		if err != nil {
			return nil, nil, errs.WrapMsg(err, "connect redis", "addr", c.RedisAddr)
		}
		return NewRedis(rdb, c.KeyPrefix), NewRedisCounter(rdb, c.KeyPrefix), nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", c.Driver)
	}
}
