package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config 客户端整体配置。优先级：yaml 文件 > 环境变量 > default tag
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Notify  NotifyConfig  `yaml:"notify"`
	Control ControlConfig `yaml:"control"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig 聊天服务端 websocket 连接参数
type ServerConfig struct {
	URL              string        `yaml:"url" envconfig:"SERVER_URL" default:"ws://localhost:3000/socket"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" envconfig:"SERVER_HANDSHAKE_TIMEOUT" default:"10s"`
	PingInterval     time.Duration `yaml:"ping_interval" envconfig:"SERVER_PING_INTERVAL" default:"25s"`
	WriteWait        time.Duration `yaml:"write_wait" envconfig:"SERVER_WRITE_WAIT" default:"10s"`
	SendQueue        int           `yaml:"send_queue" envconfig:"SERVER_SEND_QUEUE" default:"256"`
	NodeID           int64         `yaml:"node_id" envconfig:"SERVER_NODE_ID" default:"1"`
	// TokenSecret 非空时本地也校验令牌签名（HS256）
	TokenSecret      string        `yaml:"token_secret" envconfig:"SERVER_TOKEN_SECRET"`
}

const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreRedis  = "redis"
)

// StoreConfig 本地偏好/令牌存储
type StoreConfig struct {
	Driver        string `yaml:"driver" envconfig:"STORE_DRIVER" default:"badger"`
	Path          string `yaml:"path" envconfig:"STORE_PATH" default:"./data/ppclient"`
	RedisAddr     string `yaml:"redis_addr" envconfig:"STORE_REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `yaml:"redis_password" envconfig:"STORE_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" envconfig:"STORE_REDIS_DB" default:"0"`
	KeyPrefix     string `yaml:"key_prefix" envconfig:"STORE_KEY_PREFIX" default:"ppclient:"`
}

const (
	SinkLog   = "log"
	SinkNATS  = "nats"
	SinkKafka = "kafka"
)

// NotifyConfig 本地通知相关
type NotifyConfig struct {
	Sink           string        `yaml:"sink" envconfig:"NOTIFY_SINK" default:"log"`
	Platform       string        `yaml:"platform" envconfig:"NOTIFY_PLATFORM" default:"linux"`
	PhysicalDevice bool          `yaml:"physical_device" envconfig:"NOTIFY_PHYSICAL_DEVICE" default:"true"`
	DedupeTTL      time.Duration `yaml:"dedupe_ttl" envconfig:"NOTIFY_DEDUPE_TTL" default:"10m"`
	Badge          bool          `yaml:"badge" envconfig:"NOTIFY_BADGE" default:"true"`

	NATSServers []string `yaml:"nats_servers" envconfig:"NOTIFY_NATS_SERVERS"`
	NATSSubject string   `yaml:"nats_subject" envconfig:"NOTIFY_NATS_SUBJECT" default:"ppclient.notifications"`

	KafkaBrokers []string `yaml:"kafka_brokers" envconfig:"NOTIFY_KAFKA_BROKERS"`
	KafkaTopic   string   `yaml:"kafka_topic" envconfig:"NOTIFY_KAFKA_TOPIC" default:"ppclient_notifications"`
}

// ControlConfig 本地控制接口，Addr 为空则不启动
type ControlConfig struct {
	Addr  string `yaml:"addr" envconfig:"CONTROL_ADDR" default:"127.0.0.1:8089"`
	Token string `yaml:"token" envconfig:"CONTROL_TOKEN"`
}

// LogConfig 日志
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT" default:"console"`
}

// Load 读取配置；configPath 为空时只用环境变量和默认值
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// envconfig 会把 default 写进没有环境变量的字段，所以必须先跑，文件再覆盖
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if configPath != "" {
		if err := loadFromFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// Validate 校验配置
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server.url: scheme must be ws or wss, got %q", u.Scheme)
	}
	if c.Server.SendQueue <= 0 {
		return fmt.Errorf("server.send_queue must be positive")
	}

	switch strings.ToLower(c.Store.Driver) {
	case StoreMemory:
	case StoreBadger:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for badger")
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for redis")
		}
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}

	switch strings.ToLower(c.Notify.Sink) {
	case SinkLog:
	case SinkNATS:
		if len(c.Notify.NATSServers) == 0 {
			return fmt.Errorf("notify.nats_servers is required for nats sink")
		}
	case SinkKafka:
		if len(c.Notify.KafkaBrokers) == 0 {
			return fmt.Errorf("notify.kafka_brokers is required for kafka sink")
		}
	default:
		return fmt.Errorf("notify.sink: unknown sink %q", c.Notify.Sink)
	}
	return nil
}
