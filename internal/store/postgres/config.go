package postgres

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConnectionConfig locates the CREM database.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	AppName        string
	ConnectTimeout time.Duration

	// Extra holds the remaining libpq parameters, e.g. sslrootcert.
	Extra map[string]string
}

func defaultConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "crem",
		AppName:  "metafmt",
		Extra:    map[string]string{},
	}
}

// ParseConnectionString reads a libpq connection string, either a URI
// (postgres://reader@dbhost/crem?sslmode=require) or keyword/value pairs
// (host=dbhost dbname=crem user=reader). Parts it omits keep the defaults:
// localhost:5432, database crem.
func ParseConnectionString(dsn string) (*ConnectionConfig, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("connection string is empty")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return parseURI(dsn)
	case strings.Contains(dsn, "="):
		return parseKeywords(dsn)
	default:
		return nil, fmt.Errorf("connection string %q is neither a postgres:// URI nor key=value pairs", dsn)
	}
}

func parseURI(dsn string) (*ConnectionConfig, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid connection URI: %w", err)
	}
	c := defaultConfig()
	if h := u.Hostname(); h != "" {
		c.Host = h
	}
	if p := u.Port(); p != "" {
		if err := c.set("port", p); err != nil {
			return nil, err
		}
	}
	if u.User != nil {
		c.Username = u.User.Username()
		c.Password, _ = u.User.Password()
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		c.Database = db
	}
	for key, values := range u.Query() {
		if err := c.set(key, values[0]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// parseKeywords reads space-separated key=value pairs. Values may be
// single-quoted, with \' and \\ escapes inside quotes.
func parseKeywords(dsn string) (*ConnectionConfig, error) {
	c := defaultConfig()
	rest := dsn
	for {
		rest = strings.TrimLeft(rest, " \t\n")
		if rest == "" {
			return c, nil
		}
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("connection string: expected key=value near %q", rest)
		}
		key := strings.TrimSpace(rest[:eq])
		rest = strings.TrimLeft(rest[eq+1:], " \t")

		var value string
		if strings.HasPrefix(rest, "'") {
			var b strings.Builder
			i := 1
			for ; i < len(rest) && rest[i] != '\''; i++ {
				if rest[i] == '\\' && i+1 < len(rest) {
					i++
				}
				b.WriteByte(rest[i])
			}
			if i == len(rest) {
				return nil, fmt.Errorf("connection string: unterminated quote in %s", key)
			}
			value, rest = b.String(), rest[i+1:]
		} else {
			end := strings.IndexAny(rest, " \t\n")
			if end < 0 {
				end = len(rest)
			}
			value, rest = rest[:end], rest[end:]
		}
		if err := c.set(key, value); err != nil {
			return nil, err
		}
	}
}

// set applies one libpq parameter by its keyword.
func (c *ConnectionConfig) set(key, value string) error {
	switch key {
	case "host":
		c.Host = value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", value)
		}
		c.Port = port
	case "dbname":
		c.Database = value
	case "user":
		c.Username = value
	case "password":
		c.Password = value
	case "sslmode":
		c.SSLMode = value
	case "application_name":
		c.AppName = value
	case "connect_timeout":
		secs, err := strconv.Atoi(value)
		if err != nil || secs < 0 {
			return fmt.Errorf("invalid connect_timeout %q", value)
		}
		c.ConnectTimeout = time.Duration(secs) * time.Second
	default:
		c.Extra[key] = value
	}
	return nil
}

// String renders c as a URI pgx can parse. The password is included.
func (c *ConnectionConfig) String() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	switch {
	case c.Username != "" && c.Password != "":
		u.User = url.UserPassword(c.Username, c.Password)
	case c.Username != "":
		u.User = url.User(c.Username)
	}

	q := url.Values{}
	for k, v := range c.Extra {
		q.Set(k, v)
	}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.AppName != "" {
		q.Set("application_name", c.AppName)
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout/time.Second)))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// DAO environment keys read by ConfigFromEnvironment.
const (
	EnvDSN      = "dsn"
	EnvHost     = "host"
	EnvPort     = "port"
	EnvUsername = "username"
	EnvDatabase = "database"
	EnvSSLMode  = "sslmode"

	// PasswordVariable holds the database password. Passwords never live
	// in metafmt.yaml.
	PasswordVariable = "PGPASSWORD"

	// DSNVariable replaces the configured dsn.
	DSNVariable = "METAFMT_DSN"
)

// ConfigFromEnvironment builds a ConnectionConfig from the DAO environment.
// The dsn (METAFMT_DSN wins) is parsed first and granular keys override its
// parts. PGPASSWORD fills in a password the dsn lacks. Both variables are
// looked up in env, where --env-file values land, before the process
// environment.
func ConfigFromEnvironment(env map[string]string) (*ConnectionConfig, error) {
	c := defaultConfig()
	dsn := env[EnvDSN]
	if v := lookup(env, DSNVariable); v != "" {
		dsn = v
	}
	if dsn != "" {
		var err error
		if c, err = ParseConnectionString(dsn); err != nil {
			return nil, err
		}
	}

	overrides := []struct{ env, param string }{
		{EnvHost, "host"},
		{EnvPort, "port"},
		{EnvUsername, "user"},
		{EnvDatabase, "dbname"},
		{EnvSSLMode, "sslmode"},
	}
	for _, o := range overrides {
		if v := env[o.env]; v != "" {
			if err := c.set(o.param, v); err != nil {
				return nil, err
			}
		}
	}
	if c.Password == "" {
		c.Password = lookup(env, PasswordVariable)
	}
	return c, nil
}

func lookup(env map[string]string, key string) string {
	if v := env[key]; v != "" {
		return v
	}
	return os.Getenv(key)
}
