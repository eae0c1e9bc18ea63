package soap

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

// LoadKeystore reads a PKCS#12 keystore (.p12 or .pfx) containing a single certificate
// and its private key, such as an organisation's NASH certificate.
func LoadKeystore(path string, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("soap: failed to read keystore: %w", err)
	}
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("soap: failed to decode keystore '%s': %w", path, err)
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}, nil
}

// LoadCertPool reads a PEM bundle of certificate authorities
func LoadCertPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("soap: failed to read certificate authorities: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("soap: no certificates found in '%s'", path)
	}
	return pool, nil
}

// TLSConfig returns a configuration for mutual TLS using the client certificate specified.
// If rootCAs is nil, the host's root certificate authorities are used.
func TLSConfig(cert tls.Certificate, rootCAs *x509.CertPool) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      rootCAs,
		MinVersion:   tls.VersionTLS12,
	}
}
