package proxy

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"
)

// NewTransport returns the upstream transport. rootCAs may be nil to use
// the system roots.
func NewTransport(dialTimeout time.Duration, rootCAs *x509.CertPool) *http.Transport {
	if dialTimeout <= 0 {
		dialTimeout = 30 * time.Second
	}

	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if rootCAs != nil {
		t.TLSClientConfig = &tls.Config{
			RootCAs:    rootCAs,
			MinVersion: tls.VersionTLS12,
		}
	}

	return t
}

// LoadTrustStore reads extra root CAs from a PEM bundle or a PKCS#12
// file and adds them to the system pool. An empty path returns nil.
func LoadTrustStore(path, password string) (*x509.CertPool, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trust store: %w", err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}

	if bytes.Contains(data, []byte("-----BEGIN")) {
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("trust store %s has no PEM certificates", path)
		}

		return pool, nil
	}

	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return nil, fmt.Errorf("decoding PKCS#12 trust store: %w", err)
	}

	added := 0

	for _, b := range blocks {
		if b.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(b.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing trust store certificate: %w", err)
		}

		pool.AddCert(cert)
		added++
	}

	if added == 0 {
		return nil, fmt.Errorf("trust store %s has no certificates", path)
	}

	return pool, nil
}
