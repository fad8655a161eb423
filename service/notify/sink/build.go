package sink

import (
	"strings"

	"PPClient/global/config"
	"PPClient/service/kafka"
	"PPClient/service/natsx"
	"PPClient/service/notify"
	"PPClient/tools/errs"
)

// Build 按配置创建通知平台；返回的 closer 释放底层连接
func Build(c config.NotifyConfig) (notify.Platform, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(c.Sink) {
	case config.SinkLog, "":
		return NewLogPlatform(c.Platform, true), noop, nil

	case config.SinkNATS:
		client, err := natsx.NewNatsxClient(natsx.NatsxConfig{
			Servers: c.NATSServers,
			Name:    "ppclient-notify",
		})
		if err != nil {
			return nil, nil, err
		}
		return NewNATSPlatform(c.Platform, client, c.NATSSubject), client.Close, nil

	case config.SinkKafka:
		kc := kafka.DefaultConfig()
		kc.Brokers = c.KafkaBrokers
		kc.Topic = c.KafkaTopic
		producer, err := kafka.NewSyncProducer(kc)
		if err != nil {
			return nil, nil, err
		}
		p := NewKafkaPlatform(c.Platform, producer, kc.Topic)
		return p, p.Close, nil
	}
	return nil, nil, errs.New("unknown notify sink", "sink", c.Sink).Wrap()
}
