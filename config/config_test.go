package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crew-scheduler/config"
)

func TestParse_Defaults(t *testing.T) {
	c, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, config.StoreSQLite, c.Store.Driver)
	assert.Equal(t, "/metrics", c.Metrics.Path)
	assert.Equal(t, 8, c.WriteConcurrency)
	assert.Equal(t, 366, c.MaxPeriodDays)
	assert.Equal(t, []string{"*"}, c.CORSAllowedOrigins)
	assert.Equal(t, ":8080", c.Addr())
}

func TestParse_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("WRITE_CONCURRENCY", "2")
	t.Setenv("METRICS_PATH", "/debug/prometheus")
	t.Setenv("MAX_PERIOD_DAYS", "31")

	c, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, config.StoreMemory, c.Store.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.CORSAllowedOrigins)
	assert.Equal(t, 2, c.WriteConcurrency)
	assert.Equal(t, "/debug/prometheus", c.Metrics.Path)
	assert.Equal(t, 31, c.MaxPeriodDays)
}

func TestParse_RejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":    {"STORE_DRIVER": "mongo"},
		"postgres w/o url":  {"STORE_DRIVER": "postgres", "DATABASE_URL": "./x.db"},
		"zero concurrency":  {"WRITE_CONCURRENCY": "0"},
		"zero period limit": {"MAX_PERIOD_DAYS": "0"},
		"relative metrics":  {"METRICS_PATH": "metrics"},
		"port out of range": {"PORT": "70000"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := config.Parse()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnv_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CREW_TEST_ENV_LOAD=ok\n"), 0o644))
	t.Setenv("CREW_TEST_ENV_LOAD", "")
	os.Unsetenv("CREW_TEST_ENV_LOAD")

	n, err := config.LoadEnv([]string{filepath.Join(dir, "missing.env"), path})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("CREW_TEST_ENV_LOAD"))
}
