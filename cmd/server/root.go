package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/crew-scheduler/config"
	"github.com/warp/crew-scheduler/logging"
	"github.com/warp/crew-scheduler/store"
)

// globalFlags override the environment configuration.
type globalFlags struct {
	store string
	dsn   string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	serve := newServeCmd(&g)
	cmd := &cobra.Command{
		Use:           "crew-scheduler",
		Short:         "Shift scheduling and labor cost estimates",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&g.store, "store", "", "Store driver: memory, sqlite, postgres or redis (overrides STORE_DRIVER)")
	cmd.PersistentFlags().StringVar(&g.dsn, "dsn", "", "Store connection string (overrides DATABASE_URL or REDIS_URL)")
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve, newEstimateCmd(&g), newExportCmd(&g), newSeedCmd(&g))
	return cmd
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(g *globalFlags) (*config.Configuration, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, err
	}
	if g.store != "" {
		cfg.Store.Driver = g.store
	}
	if g.dsn != "" {
		if cfg.Store.Driver == config.StoreRedis {
			cfg.Store.RedisURL = g.dsn
		} else {
			cfg.Store.DatabaseURL = g.dsn
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toolLogger logs to stderr so command output on stdout stays clean.
func toolLogger(cfg *config.Configuration) zerolog.Logger {
	return logging.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

// openStore opens the configured backend, creating the sqlite file's
// directory when needed.
func openStore(ctx context.Context, cfg *config.Configuration, log zerolog.Logger) (store.Backend, error) {
	if cfg.Store.Driver == config.StoreSQLite {
		if err := ensureDir(cfg.Store.DatabaseURL); err != nil {
			return nil, err
		}
	}
	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	log.Info().Str("driver", cfg.Store.Driver).Msg("store opened")
	return backend, nil
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(strings.SplitN(dsn, "?", 2)[0], "file:")
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
