package health

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

// KafkaConfig Kafka 集群连接配置。
type KafkaConfig struct {
	Brokers     []string        `yaml:"brokers" mapstructure:"brokers"`
	Version     string          `yaml:"version" mapstructure:"version"`
	DialTimeout time.Duration   `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	SASL        KafkaSASLConfig `yaml:"sasl" mapstructure:"sasl"`
	TLS         KafkaTLSConfig  `yaml:"tls" mapstructure:"tls"`
}

// KafkaSASLConfig SASL 认证配置。
type KafkaSASLConfig struct {
	Enable    bool   `yaml:"enable" mapstructure:"enable"`
	Username  string `yaml:"username" mapstructure:"username"`
	Password  string `yaml:"password" mapstructure:"password"`
	Mechanism string `yaml:"mechanism" mapstructure:"mechanism"` // PLAIN / SCRAM-SHA-256 / SCRAM-SHA-512
}

// KafkaTLSConfig TLS 配置。
type KafkaTLSConfig struct {
	Enable   bool   `yaml:"enable" mapstructure:"enable"`
	CAFile   string `yaml:"ca_file" mapstructure:"ca_file"`
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

// KafkaIndicator 探测 Kafka 集群连通性。
// 每次检查建立一条独立连接, 不借用业务客户端。
type KafkaIndicator struct {
	name string
	cfg  KafkaConfig
}

// NewKafkaIndicator 创建 Kafka 指示器, name 为空时默认 "kafka"。
func NewKafkaIndicator(name string, cfg KafkaConfig) *KafkaIndicator {
	if name == "" {
		name = "kafka"
	}
	return &KafkaIndicator{name: name, cfg: cfg}
}

func (i *KafkaIndicator) Name() string { return i.name }

func (i *KafkaIndicator) Check(ctx context.Context) Check {
	saramaCfg, err := buildSaramaConfig(i.cfg)
	if err != nil {
		return Down(err)
	}

	client, err := sarama.NewClient(i.cfg.Brokers, saramaCfg)
	if err != nil {
		return Down(err)
	}
	defer client.Close()

	return UpWithDetails(map[string]any{
		"brokers": len(client.Brokers()),
	})
}

// buildSaramaConfig 构建 sarama 配置, SASL 与 TLS 选项齐全。
func buildSaramaConfig(cfg KafkaConfig) (*sarama.Config, error) {
	saramaCfg := sarama.NewConfig()

	if cfg.Version != "" {
		version, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka version: %w", err)
		}
		saramaCfg.Version = version
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}
	saramaCfg.Net.DialTimeout = dialTimeout
	saramaCfg.Net.ReadTimeout = dialTimeout
	saramaCfg.Net.WriteTimeout = dialTimeout

	if cfg.SASL.Enable {
		saramaCfg.Net.SASL.Enable = true
		saramaCfg.Net.SASL.User = cfg.SASL.Username
		saramaCfg.Net.SASL.Password = cfg.SASL.Password

		switch cfg.SASL.Mechanism {
		case "SCRAM-SHA-256":
			saramaCfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return &xdgSCRAMClient{HashGeneratorFcn: scram.SHA256}
			}
			saramaCfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		case "SCRAM-SHA-512":
			saramaCfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return &xdgSCRAMClient{HashGeneratorFcn: scram.SHA512}
			}
			saramaCfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		default:
			saramaCfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		}
	}

	if cfg.TLS.Enable {
		tlsConfig, err := buildKafkaTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		saramaCfg.Net.TLS.Enable = true
		saramaCfg.Net.TLS.Config = tlsConfig
	}

	return saramaCfg, nil
}

func buildKafkaTLSConfig(cfg KafkaTLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.Insecure,
	}

	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCertPool := x509.NewCertPool()
		caCertPool.AppendCertsFromPEM(caCert)
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load cert/key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
