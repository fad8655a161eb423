package sink

import (
	"context"
	"encoding/json"

	"PPClient/logger"
	"PPClient/service/notify"
	"PPClient/tools/errs"

	"go.uber.org/zap"
)

// Publisher natsx.NatsxClient 满足此接口
type Publisher interface {
	PublishOnce(ctx context.Context, subject string, data []byte, hdr map[string]string, msgID string) error
}

// NATSPlatform 把通知请求推到 NATS，由推送网关转发到设备。
// msgID 取 identifier，JetStream 去重窗口内重复的通知会被丢弃。
type NATSPlatform struct {
	os      string
	pub     Publisher
	subject string
}

func NewNATSPlatform(os string, pub Publisher, subject string) *NATSPlatform {
	return &NATSPlatform{os: os, pub: pub, subject: subject}
}

func (p *NATSPlatform) OS() string { return p.os }

// PermissionStatus 远端推送没有系统授权弹窗，视为已授权
func (p *NATSPlatform) PermissionStatus(context.Context) (notify.PermissionStatus, error) {
	return notify.PermissionGranted, nil
}

func (p *NATSPlatform) RequestPermission(ctx context.Context) (notify.PermissionStatus, error) {
	return p.PermissionStatus(ctx)
}

func (p *NATSPlatform) CreateChannel(_ context.Context, ch notify.Channel) error {
	logger.Debug("[sink.nats] channel is managed by the push gateway", zap.String("channel", ch.ID))
	return nil
}

func (p *NATSPlatform) Schedule(ctx context.Context, req notify.Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", errs.WrapMsg(err, "marshal notification", "identifier", req.Identifier)
	}
	hdr := map[string]string{"Content-Type": "application/json"}
	if err := p.pub.PublishOnce(ctx, p.subject, data, hdr, req.Identifier); err != nil {
		return "", err
	}
	return req.Identifier, nil
}
