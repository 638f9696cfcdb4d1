package appctx

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
)

/* ========================================================================
 * Listener 创建辅助函数
 * ========================================================================
 * 职责: 预先创建 net.Listener，确保端口绑定成功后再启动 Serve
 * ======================================================================== */

// NewListener 根据 ListenOptions 创建 net.Listener
// 配置了证书时创建 TLS listener，指定了客户端 CA 时要求 mTLS 双向认证
func NewListener(addr string, opts ListenOptions) (net.Listener, error) {
	network := opts.ListenerNetwork
	if network == "" {
		network = "tcp4"
	}

	if !opts.TLSEnabled() {
		return net.Listen(network, addr)
	}

	cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.CertKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if opts.TLSMinVersion > 0 {
		tlsConfig.MinVersion = opts.TLSMinVersion
	}
	if opts.CertClientFile != "" {
		caCert, err := os.ReadFile(opts.CertClientFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read client CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no valid certificates in %s", opts.CertClientFile)
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return tls.Listen(network, addr, tlsConfig)
}
