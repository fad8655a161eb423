package sink

import (
	"context"
	"sync"

	"PPClient/logger"
	"PPClient/service/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogPlatform 没有系统通知中心时的本地实现：把通知写进日志。
// 同一 Identifier 再次调度会替换旧通知，沿用原来的 id。
type LogPlatform struct {
	os string

	mu       sync.Mutex
	status   notify.PermissionStatus
	grant    bool
	shown    map[string]string // identifier -> platform id
	channels map[string]notify.Channel
}

// NewLogPlatform grant 决定申请权限时的结果
func NewLogPlatform(os string, grant bool) *LogPlatform {
	return &LogPlatform{
		os:       os,
		status:   notify.PermissionUndetermined,
		grant:    grant,
		shown:    make(map[string]string),
		channels: make(map[string]notify.Channel),
	}
}

func (p *LogPlatform) OS() string { return p.os }

func (p *LogPlatform) PermissionStatus(context.Context) (notify.PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, nil
}

func (p *LogPlatform) RequestPermission(context.Context) (notify.PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == notify.PermissionUndetermined {
		if p.grant {
			p.status = notify.PermissionGranted
		} else {
			p.status = notify.PermissionDenied
		}
	}
	return p.status, nil
}

func (p *LogPlatform) CreateChannel(_ context.Context, ch notify.Channel) error {
	p.mu.Lock()
	p.channels[ch.ID] = ch
	p.mu.Unlock()
	logger.Info("[sink.log] channel created", zap.String("channel", ch.ID), zap.String("name", ch.Name))
	return nil
}

func (p *LogPlatform) Schedule(_ context.Context, req notify.Request) (string, error) {
	p.mu.Lock()
	id, replaced := p.shown[req.Identifier]
	if !replaced {
		id = uuid.NewString()
		p.shown[req.Identifier] = id
	}
	p.mu.Unlock()

	logger.Info("[sink.log] notification",
		zap.String("id", id),
		zap.String("identifier", req.Identifier),
		zap.Bool("replaced", replaced),
		zap.String("title", req.Title),
		zap.String("body", req.Body),
		zap.Any("data", req.Data))
	return id, nil
}

// Shown 当前可见的通知数（按 identifier 计）
func (p *LogPlatform) Shown() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shown)
}

// Channel 查询已创建的渠道
func (p *LogPlatform) Channel(id string) (notify.Channel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.channels[id]
	return ch, ok
}
