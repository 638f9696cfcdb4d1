package health

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

func TestBuildSaramaConfigDefaults(t *testing.T) {
	cfg, err := buildSaramaConfig(KafkaConfig{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.Net.SASL.Enable {
		t.Fatal("SASL must stay off by default")
	}
	if cfg.Net.DialTimeout != 3*time.Second {
		t.Fatalf("unexpected dial timeout: %v", cfg.Net.DialTimeout)
	}
}

func TestBuildSaramaConfigVersion(t *testing.T) {
	cfg, err := buildSaramaConfig(KafkaConfig{Version: "3.6.0"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.Version != sarama.V3_6_0_0 {
		t.Fatalf("unexpected version: %v", cfg.Version)
	}

	if _, err := buildSaramaConfig(KafkaConfig{Version: "banana"}); err == nil {
		t.Fatal("invalid version must fail")
	}
}

func TestBuildSaramaConfigSASL(t *testing.T) {
	tests := []struct {
		mechanism string
		want      sarama.SASLMechanism
		scram     bool
	}{
		{"", sarama.SASLTypePlaintext, false},
		{"PLAIN", sarama.SASLTypePlaintext, false},
		{"SCRAM-SHA-256", sarama.SASLTypeSCRAMSHA256, true},
		{"SCRAM-SHA-512", sarama.SASLTypeSCRAMSHA512, true},
	}

	for _, tt := range tests {
		t.Run("mechanism_"+tt.mechanism, func(t *testing.T) {
			cfg, err := buildSaramaConfig(KafkaConfig{SASL: KafkaSASLConfig{
				Enable:    true,
				Username:  "svc",
				Password:  "pw",
				Mechanism: tt.mechanism,
			}})
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if !cfg.Net.SASL.Enable || cfg.Net.SASL.User != "svc" {
				t.Fatalf("SASL not applied: %+v", cfg.Net.SASL)
			}
			if cfg.Net.SASL.Mechanism != tt.want {
				t.Fatalf("unexpected mechanism: %v", cfg.Net.SASL.Mechanism)
			}
			if tt.scram && cfg.Net.SASL.SCRAMClientGeneratorFunc == nil {
				t.Fatal("SCRAM generator missing")
			}
		})
	}
}

func TestBuildSaramaConfigTLS(t *testing.T) {
	cfg, err := buildSaramaConfig(KafkaConfig{TLS: KafkaTLSConfig{Enable: true, Insecure: true}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !cfg.Net.TLS.Enable || cfg.Net.TLS.Config == nil {
		t.Fatal("TLS not applied")
	}
	if !cfg.Net.TLS.Config.InsecureSkipVerify {
		t.Fatal("insecure flag not applied")
	}

	if _, err := buildSaramaConfig(KafkaConfig{TLS: KafkaTLSConfig{Enable: true, CAFile: "/no/such/ca.pem"}}); err == nil {
		t.Fatal("missing CA file must fail")
	}
}

func TestXDGSCRAMClient(t *testing.T) {
	client := &xdgSCRAMClient{HashGeneratorFcn: scram.SHA256}
	if err := client.Begin("svc", "pw", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if client.Done() {
		t.Fatal("conversation must not be done before any step")
	}
}

func TestKafkaIndicatorUnreachable(t *testing.T) {
	ind := NewKafkaIndicator("", KafkaConfig{
		Brokers:     []string{"127.0.0.1:1"},
		DialTimeout: 200 * time.Millisecond,
	})
	if ind.Name() != "kafka" {
		t.Fatalf("unexpected name: %q", ind.Name())
	}
	if chk := ind.Check(context.Background()); chk.Status != StatusDown {
		t.Fatalf("unexpected status: %+v", chk)
	}
}
