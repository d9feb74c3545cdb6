package cert

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// LoadClientTLSConfig 构造连接 redis 等外部存储用的 TLS 配置
// caCertFile 必填；certFile 与 keyFile 同时提供时启用双向 TLS，并校验证书有效期与签发链
func LoadClientTLSConfig(caCertFile, certFile, keyFile string, now time.Time) (*tls.Config, error) {
	caBytes, err := os.ReadFile(caCertFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CA certificate")
	}
	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caBytes) {
		return nil, errors.New("failed to parse CA certificate")
	}

	cfg := &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}

	if certFile == "" && keyFile == "" {
		return cfg, nil
	}
	if certFile == "" || keyFile == "" {
		return nil, errors.New("client certificate and key must be provided together")
	}

	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load client certificate key pair")
	}
	if len(pair.Certificate) == 0 {
		return nil, errors.New("no certificate found in file")
	}
	x509Cert, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse client certificate")
	}
	if now.After(x509Cert.NotAfter) {
		return nil, fmt.Errorf("client certificate expired at %s", x509Cert.NotAfter)
	}
	if now.Before(x509Cert.NotBefore) {
		return nil, fmt.Errorf("client certificate not valid until %s", x509Cert.NotBefore)
	}

	opts := x509.VerifyOptions{
		Roots:       caCertPool,
		CurrentTime: now,
		KeyUsages:   []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	if _, err := x509Cert.Verify(opts); err != nil {
		return nil, errors.Wrap(err, "client certificate verification against CA failed")
	}

	cfg.Certificates = []tls.Certificate{pair}
	return cfg, nil
}
