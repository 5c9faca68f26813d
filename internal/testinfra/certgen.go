package testinfra

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// TLS file names inside a server's scratch directory.
const (
	caCertFile     = "ca.crt"
	serverCertFile = "server.crt"
	serverKeyFile  = "server.key"
)

// pemPair is a certificate and its private key, PEM encoded.
type pemPair struct {
	cert, key []byte
}

type issued struct {
	pemPair
	parsed *x509.Certificate
	signer *ecdsa.PrivateKey
}

// issueTLS creates a one-hour CA and a server certificate for hosts signed
// by it. Hosts may mix DNS names and IP addresses.
func issueTLS(hosts []string) (ca, server pemPair, err error) {
	now := time.Now()
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "metafmt crem test CA"},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	root, err := issue(caTmpl, nil)
	if err != nil {
		return ca, server, fmt.Errorf("issuing CA: %w", err)
	}

	srvTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "crem"},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			srvTmpl.IPAddresses = append(srvTmpl.IPAddresses, ip)
			continue
		}
		srvTmpl.DNSNames = append(srvTmpl.DNSNames, h)
	}
	leaf, err := issue(srvTmpl, root)
	if err != nil {
		return ca, server, fmt.Errorf("issuing server certificate: %w", err)
	}
	return root.pemPair, leaf.pemPair, nil
}

// issue signs tmpl with parent, or self-signs it when parent is nil.
func issue(tmpl *x509.Certificate, parent *issued) (*issued, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	signer, signerCert := key, tmpl
	if parent != nil {
		signer, signerCert = parent.signer, parent.parsed
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, signerCert, &key.PublicKey, signer)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}
	return &issued{
		pemPair: pemPair{
			cert: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
			key:  pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
		},
		parsed: cert,
		signer: key,
	}, nil
}

// writeTLS stores the CA certificate and the server pair in dir. PostgreSQL
// refuses a key readable by anyone but its owner.
func writeTLS(dir string, ca, server pemPair) error {
	for name, data := range map[string][]byte{
		caCertFile:     ca.cert,
		serverCertFile: server.cert,
		serverKeyFile:  server.key,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
