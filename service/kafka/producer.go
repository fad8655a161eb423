package kafka

import (
	"PPClient/tools/errs"

	"github.com/Shopify/sarama"
)

// NewSyncProducer 连接 broker 并创建同步生产者
func NewSyncProducer(c AppConfig) (sarama.SyncProducer, error) {
	if len(c.Brokers) == 0 {
		return nil, errs.New("kafka brokers missing").Wrap()
	}
	p, err := sarama.NewSyncProducer(c.Brokers, BuildBaseConfig(c))
	if err != nil {
		return nil, errs.WrapMsg(err, "new sync producer", "brokers", c.Brokers)
	}
	return p, nil
}

// SendKeyed 同步发送一条带 key 的消息
func SendKeyed(p sarama.SyncProducer, topic, key string, value []byte) (int32, int64, error) {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	partition, offset, err := p.SendMessage(msg)
	if err != nil {
		return 0, 0, errs.WrapMsg(err, "send kafka message", "topic", topic, "key", key)
	}
	return partition, offset, nil
}
