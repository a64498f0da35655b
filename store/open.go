// Package store selects and opens the configured Record Store backend.
package store

import (
	"context"
	"fmt"

	"github.com/warp/crew-scheduler/config"
	"github.com/warp/crew-scheduler/roster"
	memstore "github.com/warp/crew-scheduler/roster/store"
	"github.com/warp/crew-scheduler/store/redisdoc"
	"github.com/warp/crew-scheduler/store/sqldb"
)

// Backend is a gateway with a connection lifecycle.
type Backend interface {
	roster.Gateway
	Ping(ctx context.Context) error
	Reset(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*memstore.Memory)(nil)
	_ Backend = (*sqldb.Store)(nil)
	_ Backend = (*redisdoc.Store)(nil)
)

// Open connects to the backend named by opts.Driver.
func Open(ctx context.Context, opts config.StoreOptions) (Backend, error) {
	switch opts.Driver {
	case config.StoreMemory:
		return memstore.NewMemory(), nil
	case config.StoreSQLite, config.StorePostgres:
		driver := sqldb.DriverSQLite
		if opts.Driver == config.StorePostgres {
			driver = sqldb.DriverPostgres
		}
		s, err := sqldb.Open(ctx, driver, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreRedis:
		s, err := redisdoc.Open(ctx, opts.RedisURL, opts.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
