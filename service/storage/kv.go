package storage

import (
	"context"
)

// 客户端持久化的 key
const (
	KeyToken                = "token"
	KeyNotificationsEnabled = "notificationsEnabled"
	KeyBadgeCount           = "badgeCount"
)

// KV 字符串键值存储（相当于移动端的 AsyncStorage）。
// key 不存在时 Get 返回 errs.ErrRecordNotFound。
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Counter 角标计数
type Counter interface {
	Increment(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}
