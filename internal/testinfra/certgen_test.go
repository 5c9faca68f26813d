package testinfra

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueTLS_ServerChainsToItsOwnCA(t *testing.T) {
	ca, server, err := issueTLS([]string{"localhost", "127.0.0.1"})
	require.NoError(t, err)
	require.NotEmpty(t, server.key)

	caCert := parseCert(t, ca.cert)
	leaf := parseCert(t, server.cert)
	assert.True(t, caCert.IsCA)
	assert.False(t, leaf.IsCA)
	assert.Equal(t, []string{"localhost"}, leaf.DNSNames)
	require.Len(t, leaf.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", leaf.IPAddresses[0].String())

	roots := x509.NewCertPool()
	roots.AddCert(caCert)
	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:     roots,
		DNSName:   "localhost",
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	assert.NoError(t, err)

	otherCA, _, err := issueTLS([]string{"localhost"})
	require.NoError(t, err)
	foreign := x509.NewCertPool()
	foreign.AddCert(parseCert(t, otherCA.cert))
	_, err = leaf.Verify(x509.VerifyOptions{Roots: foreign})
	assert.Error(t, err, "a CA is only trusted by its own server")
}

func TestWriteTLS(t *testing.T) {
	ca, server, err := issueTLS([]string{"localhost"})
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, writeTLS(dir, ca, server))

	for _, name := range []string{caCertFile, serverCertFile, serverKeyFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		if runtime.GOOS != "windows" {
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
		}
	}
	key, err := os.ReadFile(filepath.Join(dir, serverKeyFile))
	require.NoError(t, err)
	assert.Equal(t, server.key, key)
}

func TestServerConfig_PointsAtCopiedCerts(t *testing.T) {
	conf := serverConfig()
	assert.Contains(t, conf, "ssl = on")
	assert.Contains(t, conf, "ssl_key_file = '"+containerCertDir+"/server.key'")
}

func parseCert(t *testing.T, data []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return cert
}
