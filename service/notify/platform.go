package notify

import "context"

type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

type Importance int

const (
	ImportanceDefault Importance = iota
	ImportanceHigh
	ImportanceMax
)

// Channel android 通知渠道
type Channel struct {
	ID               string
	Name             string
	Importance       Importance
	VibrationPattern []int
	Sound            string
}

// Request 一条本地通知；Identifier 相同的请求在平台侧是幂等的
type Request struct {
	Identifier string         `json:"identifier"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Data       map[string]any `json:"data,omitempty"`
	Sound      string         `json:"sound,omitempty"`
	Priority   string         `json:"priority,omitempty"`
	ChannelID  string         `json:"channelId,omitempty"`
}

// Platform 平台通知服务
type Platform interface {
	OS() string
	PermissionStatus(ctx context.Context) (PermissionStatus, error)
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	CreateChannel(ctx context.Context, ch Channel) error
	Schedule(ctx context.Context, req Request) (string, error)
}

// Badge 应用图标角标，storage.Counter 满足此接口
type Badge interface {
	Increment(ctx context.Context) (int64, error)
}
