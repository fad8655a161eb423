package kafka

import (
	"strings"
	"time"

	"github.com/Shopify/sarama"
)

// AppConfig 通知推送用的生产者配置
type AppConfig struct {
	Brokers             []string
	Topic               string
	ClientID            string
	ProducerRetries     int
	ProducerCompression string // none/snappy/lz4/zstd
	KafkaVersion        sarama.KafkaVersion
}

// DefaultConfig 单机默认值
func DefaultConfig() AppConfig {
	return AppConfig{
		Brokers:             []string{"127.0.0.1:9092"},
		Topic:               "ppclient_notifications",
		ClientID:            "ppclient",
		ProducerRetries:     5,
		ProducerCompression: "snappy",
		KafkaVersion:        sarama.V2_1_0_0,
	}
}

func BuildBaseConfig(c AppConfig) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = c.KafkaVersion
	if c.ClientID != "" {
		cfg.ClientID = c.ClientID
	}

	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	retries := c.ProducerRetries
	if retries <= 0 {
		retries = 1
	}
	cfg.Producer.Retry.Max = retries
	// 同一通知标识落到同一分区，下游按 key 去重
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	switch strings.ToLower(c.ProducerCompression) {
	case "snappy":
		cfg.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		cfg.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		cfg.Producer.Compression = sarama.CompressionZSTD
	default:
		cfg.Producer.Compression = sarama.CompressionNone
	}

	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}
