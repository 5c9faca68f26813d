package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vvka-141/metafmt/internal/dao/crem"
	"github.com/vvka-141/metafmt/internal/dao/null"
	"github.com/vvka-141/metafmt/internal/files/filesystem"
	"github.com/vvka-141/metafmt/internal/store"
	"github.com/vvka-141/metafmt/internal/store/csvstore"
	"github.com/vvka-141/metafmt/internal/store/postgres"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Environment keys that choose the metadata store.
const (
	EnvDriver = "driver"
	EnvCSVDir = "csv_dir"

	DriverCSV      = "csv"
	DriverPostgres = "postgres"
)

// StoreOpener opens the metadata store described by a DAO environment.
type StoreOpener func(ctx context.Context, env map[string]string) (store.Store, error)

// siteFactory builds a site. A nil store means the site is only planned,
// never queried.
type siteFactory func(s store.Store) metafmt.Site

var sites = map[string]struct {
	build     siteFactory
	needStore bool
}{
	null.SiteName: {build: func(store.Store) metafmt.Site { return null.NewSite() }},
	crem.SiteName: {build: func(s store.Store) metafmt.Site { return crem.NewSite(s) }, needStore: true},
}

// SiteNames lists the registered sites, sorted.
func SiteNames() []string {
	names := make([]string, 0, len(sites))
	for name := range sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultStoreOpener opens CSV dumps (the default driver) through provider,
// or a PostgreSQL database.
func DefaultStoreOpener(provider filesystem.FileSystemProvider) StoreOpener {
	return func(ctx context.Context, env map[string]string) (store.Store, error) {
		switch driver := env[EnvDriver]; driver {
		case "", DriverCSV:
			dir := env[EnvCSVDir]
			if dir == "" {
				return nil, fmt.Errorf("the csv driver needs %s: %w", EnvCSVDir, metafmt.ErrInvalidConfig)
			}
			return csvstore.Open(provider, dir)
		case DriverPostgres:
			config, err := postgres.ConfigFromEnvironment(env)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", metafmt.ErrInvalidConfig, err)
			}
			return postgres.Open(ctx, config)
		default:
			return nil, fmt.Errorf("unknown database driver %q (expected %s or %s): %w",
				driver, DriverCSV, DriverPostgres, metafmt.ErrInvalidConfig)
		}
	}
}

// openSite returns the named site. When connect is false no store is
// opened; the site's DAOs can be resolved but not queried.
func (f *Formatter) openSite(ctx context.Context, name string, env map[string]string, connect bool) (metafmt.Site, func(), error) {
	entry, ok := sites[name]
	if !ok {
		return nil, nil, fmt.Errorf("unknown site %q (known: %s): %w",
			name, strings.Join(SiteNames(), ", "), metafmt.ErrInvalidConfig)
	}
	if !entry.needStore || !connect {
		return entry.build(nil), func() {}, nil
	}

	s, err := f.openStore(ctx, env)
	if err != nil {
		return nil, nil, err
	}
	f.logger.Verbose("Opened %s store for site %s", driverName(env), name)
	closeStore := func() {
		if err := s.Close(); err != nil {
			f.logger.Error("closing metadata store: %v", err)
		}
	}
	return entry.build(s), closeStore, nil
}

func driverName(env map[string]string) string {
	if d := env[EnvDriver]; d != "" {
		return d
	}
	return DriverCSV
}
