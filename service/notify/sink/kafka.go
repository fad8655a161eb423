package sink

import (
	"context"
	"encoding/json"
	"strconv"

	"PPClient/logger"
	"PPClient/service/kafka"
	"PPClient/service/notify"
	"PPClient/tools/errs"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"
)

// KafkaPlatform 把通知请求写进 kafka，key 为 identifier
type KafkaPlatform struct {
	os       string
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPlatform(os string, producer sarama.SyncProducer, topic string) *KafkaPlatform {
	return &KafkaPlatform{os: os, producer: producer, topic: topic}
}

func (p *KafkaPlatform) OS() string { return p.os }

func (p *KafkaPlatform) PermissionStatus(context.Context) (notify.PermissionStatus, error) {
	return notify.PermissionGranted, nil
}

func (p *KafkaPlatform) RequestPermission(ctx context.Context) (notify.PermissionStatus, error) {
	return p.PermissionStatus(ctx)
}

func (p *KafkaPlatform) CreateChannel(_ context.Context, ch notify.Channel) error {
	logger.Debug("[sink.kafka] channel is managed by the push gateway", zap.String("channel", ch.ID))
	return nil
}

// Schedule 返回 topic/partition/offset 作为平台 id
func (p *KafkaPlatform) Schedule(_ context.Context, req notify.Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", errs.WrapMsg(err, "marshal notification", "identifier", req.Identifier)
	}
	partition, offset, err := kafka.SendKeyed(p.producer, p.topic, req.Identifier, data)
	if err != nil {
		return "", err
	}
	return p.topic + "/" + strconv.FormatInt(int64(partition), 10) + "/" + strconv.FormatInt(offset, 10), nil
}

func (p *KafkaPlatform) Close() error { return p.producer.Close() }
