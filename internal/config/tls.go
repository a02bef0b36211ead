package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TemporalTLS returns the client TLS settings for the Temporal frontend, or
// nil when no client certificate is configured.
func (c *Config) TemporalTLS() (*tls.Config, error) {
	if c.TemporalTLSCert == "" && c.TemporalTLSKey == "" {
		return nil, nil
	}
	tlsCfg, err := clientTLS(c.TemporalTLSCert, c.TemporalTLSKey, c.TemporalTLSCACert)
	if err != nil {
		return nil, fmt.Errorf("temporal tls: %w", err)
	}
	tlsCfg.ServerName = c.TemporalTLSServerName
	return tlsCfg, nil
}

func clientTLS(certFile, keyFile, caFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load client cert: %w", err)
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if caFile == "" {
		return cfg, nil
	}

	caPEM, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("parse CA cert %s", caFile)
	}
	cfg.RootCAs = pool
	return cfg, nil
}
