package postgres

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Pool sizing. A document build issues one query at a time but may run for
// a long while between them.
const (
	DefaultMaxConns        = 2
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(pc *pgxpool.Config) {
	pc.MaxConns = DefaultMaxConns
	pc.MinConns = DefaultMinConns
	pc.MaxConnIdleTime = DefaultMaxConnIdleTime
}

// Connect opens a pool and pings it once. Failures wrap
// metafmt.ErrConnectionFailed and are not retried.
func Connect(ctx context.Context, config *ConnectionConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(config.String())
	if err != nil {
		return nil, metafmt.NewConnectionError(err, "invalid connection settings")
	}
	configurePool(pc)

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err == nil {
		if err = pool.Ping(ctx); err != nil {
			pool.Close()
		}
	}
	if err != nil {
		return nil, wrapConnectionError(err, config)
	}
	return pool, nil
}

// SQLSTATE codes the server reports during startup.
const (
	sqlstateInvalidPassword      = "28P01"
	sqlstateInvalidAuthorization = "28000"
	sqlstateInvalidCatalogName   = "3D000"
	sqlstateTooManyConnections   = "53300"
)

// wrapConnectionError names the likely cause of a failed connection.
func wrapConnectionError(err error, c *ConnectionConfig) error {
	addr := net.JoinHostPort(c.Host, fmt.Sprint(c.Port))

	var (
		pgErr   *pgconn.PgError
		dnsErr  *net.DNSError
		netErr  net.Error
		certErr x509.UnknownAuthorityError
		hostErr x509.HostnameError
		tlsErr  tls.RecordHeaderError
	)
	var hint string
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == sqlstateInvalidPassword,
		errors.As(err, &pgErr) && pgErr.Code == sqlstateInvalidAuthorization:
		hint = fmt.Sprintf("authentication failed for user %q on %s; check PGPASSWORD or the dsn", c.Username, addr)
	case errors.As(err, &pgErr) && pgErr.Code == sqlstateInvalidCatalogName:
		hint = fmt.Sprintf("database %q does not exist on %s; check database in metafmt.yaml", c.Database, addr)
	case errors.As(err, &pgErr) && pgErr.Code == sqlstateTooManyConnections:
		hint = fmt.Sprintf("%s refused the connection: too many clients", addr)
	case errors.As(err, &dnsErr):
		hint = fmt.Sprintf("cannot resolve host %q", c.Host)
	case errors.Is(err, syscall.ECONNREFUSED), strings.Contains(err.Error(), "refused"):
		hint = fmt.Sprintf("nothing is listening on %s; is PostgreSQL running (pg_isready -h %s -p %d)?", addr, c.Host, c.Port)
	case errors.As(err, &netErr) && netErr.Timeout(), errors.Is(err, context.DeadlineExceeded):
		hint = fmt.Sprintf("connection to %s timed out", addr)
	case errors.As(err, &certErr), errors.As(err, &hostErr), errors.As(err, &tlsErr):
		hint = fmt.Sprintf("TLS handshake with %s failed; check sslmode and sslrootcert", addr)
	default:
		hint = "cannot connect to " + addr
	}
	return metafmt.NewConnectionError(err, "%s", hint)
}
