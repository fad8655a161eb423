package natsx

import (
	"context"

	"PPClient/tools/errs"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// MsgIDHeader JetStream 按这个头在去重窗口内丢弃重复消息
const MsgIDHeader = "Nats-Msg-Id"

// ToHeader map 转 nats.Header
func ToHeader(h map[string]string) nats.Header {
	if len(h) == 0 {
		return nil
	}
	hd := nats.Header{}
	for k, v := range h {
		hd.Add(k, v)
	}
	return hd
}

// NewMsg 构造带头的消息
func NewMsg(subject string, data []byte, hdr map[string]string) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Data = data
	for k, v := range hdr {
		msg.Header.Add(k, v)
	}
	return msg
}

// Publish 发布并等服务端确认收到（flush）
func (c *NatsxClient) Publish(ctx context.Context, subject string, data []byte, hdr map[string]string) error {
	if err := c.nc.PublishMsg(NewMsg(subject, data, hdr)); err != nil {
		return errs.WrapMsg(err, "publish failed", "subject", subject)
	}
	if err := c.nc.FlushWithContext(ctx); err != nil {
		return errs.WrapMsg(err, "flush failed", "subject", subject)
	}
	return nil
}

// PublishOnce 带 Nats-Msg-Id 的发布，msgID 为空则自动生成
func (c *NatsxClient) PublishOnce(ctx context.Context, subject string, data []byte, hdr map[string]string, msgID string) error {
	if hdr == nil {
		hdr = map[string]string{}
	}
	if msgID == "" {
		msgID = uuid.NewString()
	}
	hdr[MsgIDHeader] = msgID
	return c.Publish(ctx, subject, data, hdr)
}
