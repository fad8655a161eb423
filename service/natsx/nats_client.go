package natsx

import (
	"strings"
	"time"

	"PPClient/logger"
	"PPClient/tools/errs"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NatsxConfig 客户端配置
type NatsxConfig struct {
	Servers       []string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
	User          string
	Password      string
}

// NatsxClient 只负责发布，通知推送不需要订阅
type NatsxClient struct {
	cfg NatsxConfig
	nc  *nats.Conn
}

// NewNatsxClient 连接 NATS
func NewNatsxClient(cfg NatsxConfig) (*NatsxClient, error) {
	if len(cfg.Servers) == 0 {
		return nil, errs.New("nats servers missing").Wrap()
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("[natsx] disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("[natsx] reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, errs.WrapMsg(err, "nats connect", "servers", cfg.Servers)
	}
	return &NatsxClient{cfg: cfg, nc: nc}, nil
}

// Close 优雅关闭，发送缓冲里的消息会先刷出去
func (c *NatsxClient) Close() error {
	if c.nc != nil {
		return c.nc.Drain()
	}
	return nil
}
