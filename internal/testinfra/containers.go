// Package testinfra starts throwaway PostgreSQL servers holding a CREM
// schema, for integration tests of the database store.
package testinfra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage = "postgres:17-bookworm"
	CREMDatabase  = "crem"
	CREMUser      = "crem"
	CREMPassword  = "crem"

	// testcontainers copies WithSSLCert files here.
	containerCertDir = "/tmp/testcontainers-go/postgres"
	sslEntrypoint    = "/usr/local/bin/docker-entrypoint-ssl.bash"
)

// CREMServer is a running TLS-only PostgreSQL container. ConnString
// verifies the server against a CA created for this server alone.
type CREMServer struct {
	ConnString string

	ctr *postgres.PostgresContainer
	dir string
}

// StartCREMServer runs schema, a SQL script creating and filling the CREM
// tables a test needs, in a fresh container. Close it when done.
func StartCREMServer(ctx context.Context, schema string) (*CREMServer, error) {
	dir, err := os.MkdirTemp("", "metafmt-crem-*")
	if err != nil {
		return nil, err
	}
	s := &CREMServer{dir: dir}
	if err := s.start(ctx, schema); err != nil {
		s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *CREMServer) start(ctx context.Context, schema string) error {
	ca, server, err := issueTLS([]string{"localhost", "127.0.0.1"})
	if err != nil {
		return err
	}
	if err := writeTLS(s.dir, ca, server); err != nil {
		return err
	}
	files := map[string]string{
		"postgresql.conf": serverConfig(),
		"init-crem.sql":   schema,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(s.dir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	s.ctr, err = postgres.Run(ctx,
		PostgresImage,
		postgres.WithDatabase(CREMDatabase),
		postgres.WithUsername(CREMUser),
		postgres.WithPassword(CREMPassword),
		postgres.WithSSLCert(s.path(caCertFile), s.path(serverCertFile), s.path(serverKeyFile)),
		postgres.WithConfigFile(s.path("postgresql.conf")),
		postgres.WithInitScripts(s.path("init-crem.sql")),
		// The module's default "sh" entrypoint is dash on Debian images.
		testcontainers.WithEntrypoint("bash", sslEntrypoint),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return fmt.Errorf("starting postgres: %w", err)
	}

	s.ConnString, err = s.ctr.ConnectionString(ctx, "sslmode=verify-ca", "sslrootcert="+s.path(caCertFile))
	if err != nil {
		return fmt.Errorf("building connection string: %w", err)
	}
	return nil
}

// Close stops the container and removes its scratch files.
func (s *CREMServer) Close(ctx context.Context) {
	if s.ctr != nil {
		_ = s.ctr.Terminate(ctx)
	}
	_ = os.RemoveAll(s.dir)
}

func (s *CREMServer) path(name string) string {
	return filepath.Join(s.dir, name)
}

func serverConfig() string {
	return fmt.Sprintf(`listen_addresses = '*'
ssl = on
ssl_cert_file = '%[1]s/server.cert'
ssl_key_file = '%[1]s/server.key'
ssl_ca_file = '%[1]s/ca_cert.pem'
`, containerCertDir)
}
