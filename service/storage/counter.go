package storage

import (
	"context"
	"strconv"
	"sync"

	"PPClient/tools/errs"
)

// KVCounter 基于任意 KV 的角标计数，进程内加锁保证读改写不交错
type KVCounter struct {
	mu sync.Mutex
	kv KV
}

func NewKVCounter(kv KV) *KVCounter {
	return &KVCounter{kv: kv}
}

func (c *KVCounter) Increment(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.count(ctx)
	if err != nil {
		return 0, err
	}
	n++
	if err := c.kv.Set(ctx, KeyBadgeCount, strconv.FormatInt(n, 10)); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *KVCounter) Count(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count(ctx)
}

func (c *KVCounter) count(ctx context.Context) (int64, error) {
	v, err := c.kv.Get(ctx, KeyBadgeCount)
	if errs.ErrRecordNotFound.Is(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errs.WrapMsg(err, "parse badge count", "value", v)
	}
	return n, nil
}

func (c *KVCounter) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Delete(ctx, KeyBadgeCount)
}
