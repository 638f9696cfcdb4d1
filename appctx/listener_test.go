package appctx

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeSelfSignedCert 生成自签名证书并落盘, 同时充当服务端证书与客户端 CA
func writeSelfSignedCert(t *testing.T, dir string) (certFile, keyFile string) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(certFile, certPEM, 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return certFile, keyFile
}

// echoOnce 接受一个连接并回显一个字节, TLS 握手在首次读取时完成
func echoOnce(ln net.Listener) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != nil {
		return
	}
	_, _ = conn.Write(buf)
}

func TestNewListenerPlain(t *testing.T) {
	ln, err := NewListener("127.0.0.1:0", ListenOptions{})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	if _, ok := ln.Addr().(*net.TCPAddr); !ok {
		t.Fatalf("unexpected addr type: %T", ln.Addr())
	}
}

func TestNewListenerTLS(t *testing.T) {
	certFile, keyFile := writeSelfSignedCert(t, t.TempDir())

	ln, err := NewListener("127.0.0.1:0", ListenOptions{
		CertFile:    certFile,
		CertKeyFile: keyFile,
	})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go echoOnce(ln)

	conn, err := tls.Dial("tcp", ln.Addr().String(), &tls.Config{InsecureSkipVerify: true})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := conn.Write([]byte{'x'}); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("echo read: %v", err)
	}
}

func TestNewListenerMutualTLS(t *testing.T) {
	certFile, keyFile := writeSelfSignedCert(t, t.TempDir())

	ln, err := NewListener("127.0.0.1:0", ListenOptions{
		CertFile:       certFile,
		CertKeyFile:    keyFile,
		CertClientFile: certFile,
	})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// 无客户端证书, 服务端在握手完成阶段拒绝
	go echoOnce(ln)
	conn, err := tls.Dial("tcp", ln.Addr().String(), &tls.Config{InsecureSkipVerify: true})
	if err == nil {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 1)
		if _, rerr := conn.Read(buf); rerr == nil {
			t.Fatal("expected rejection without client certificate")
		}
		conn.Close()
	}

	// 持有受信证书的客户端可通过
	clientCert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		t.Fatalf("load client cert: %v", err)
	}
	go echoOnce(ln)
	conn, err = tls.Dial("tcp", ln.Addr().String(), &tls.Config{
		InsecureSkipVerify: true,
		Certificates:       []tls.Certificate{clientCert},
	})
	if err != nil {
		t.Fatalf("dial with client cert: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := conn.Write([]byte{'x'}); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("echo read: %v", err)
	}
}

func TestNewListenerMissingCert(t *testing.T) {
	_, err := NewListener("127.0.0.1:0", ListenOptions{
		CertFile:    "/no/such/server.crt",
		CertKeyFile: "/no/such/server.key",
	})
	if err == nil || !strings.Contains(err.Error(), "failed to load TLS certificate") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewListenerBadClientCA(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSignedCert(t, dir)

	badCA := filepath.Join(dir, "ca.crt")
	if err := os.WriteFile(badCA, []byte("not a pem block"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := NewListener("127.0.0.1:0", ListenOptions{
		CertFile:       certFile,
		CertKeyFile:    keyFile,
		CertClientFile: badCA,
	})
	if err == nil || !strings.Contains(err.Error(), "no valid certificates") {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = NewListener("127.0.0.1:0", ListenOptions{
		CertFile:       certFile,
		CertKeyFile:    keyFile,
		CertClientFile: filepath.Join(dir, "missing.crt"),
	})
	if err == nil || !strings.Contains(err.Error(), "failed to read client CA certificate") {
		t.Fatalf("unexpected error: %v", err)
	}
}
