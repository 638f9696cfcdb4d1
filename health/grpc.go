package health

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/aisgo/ais-admin-go-pkg/errors"
)

// GRPCTLSConfig 上游 gRPC 的 TLS 客户端配置。
type GRPCTLSConfig struct {
	Enable     bool   `yaml:"enable" mapstructure:"enable"`
	CAFile     string `yaml:"ca_file" mapstructure:"ca_file"`
	CertFile   string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile    string `yaml:"key_file" mapstructure:"key_file"`
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
	Insecure   bool   `yaml:"insecure" mapstructure:"insecure"`
}

// GRPCIndicator 通过标准 grpc.health.v1 协议探测上游服务。
type GRPCIndicator struct {
	name    string
	service string
	conn    *grpc.ClientConn
}

// NewGRPCIndicator 基于既有连接创建指示器。
// service 为空表示探测上游整体健康而非单个服务。
func NewGRPCIndicator(name, service string, conn *grpc.ClientConn) *GRPCIndicator {
	if name == "" {
		name = "grpc"
	}
	return &GRPCIndicator{name: name, service: service, conn: conn}
}

// DialGRPCIndicator 自建连接创建指示器, 连接生命周期归指示器所有。
func DialGRPCIndicator(name, service, target string, tlsCfg GRPCTLSConfig) (*GRPCIndicator, error) {
	creds := insecure.NewCredentials()
	if tlsCfg.Enable {
		tlsConfig, err := buildGRPCTLSConfig(tlsCfg)
		if err != nil {
			return nil, err
		}
		creds = credentials.NewTLS(tlsConfig)
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", target, err)
	}
	return NewGRPCIndicator(name, service, conn), nil
}

func (i *GRPCIndicator) Name() string { return i.name }

func (i *GRPCIndicator) Check(ctx context.Context) Check {
	resp, err := grpchealth.NewHealthClient(i.conn).Check(ctx, &grpchealth.HealthCheckRequest{
		Service: i.service,
	})
	if err != nil {
		return Down(errors.FromGRPCError(err))
	}

	switch resp.GetStatus() {
	case grpchealth.HealthCheckResponse_SERVING:
		return Up()
	case grpchealth.HealthCheckResponse_NOT_SERVING:
		return Check{
			Status:  StatusDown,
			Details: map[string]any{"grpc_status": resp.GetStatus().String()},
		}
	default:
		return Check{
			Status:  StatusUnknown,
			Details: map[string]any{"grpc_status": resp.GetStatus().String()},
		}
	}
}

// Close 关闭指示器持有的连接, 外部传入的连接由调用方负责。
func (i *GRPCIndicator) Close() error {
	if i.conn == nil {
		return nil
	}
	return i.conn.Close()
}

func buildGRPCTLSConfig(cfg GRPCTLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.Insecure,
	}

	if cfg.ServerName != "" {
		tlsConfig.ServerName = cfg.ServerName
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
