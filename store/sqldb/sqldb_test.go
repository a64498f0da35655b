package sqldb_test

import (
	"context"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crew-scheduler/roster"
	"github.com/warp/crew-scheduler/roster/storetest"
	"github.com/warp/crew-scheduler/store/sqldb"
)

func newSQLite(t *testing.T) *sqldb.Store {
	t.Helper()
	s, err := sqldb.Open(context.Background(), sqldb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteGateway(t *testing.T) {
	storetest.Run(t, func(t *testing.T) roster.Gateway { return newSQLite(t) })
}

func TestPostgresGateway(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	storetest.Run(t, func(t *testing.T) roster.Gateway {
		s, err := sqldb.Open(context.Background(), sqldb.DriverPostgres, dsn)
		require.NoError(t, err)
		require.NoError(t, s.Reset(context.Background()))
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := sqldb.Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
}

func TestSQLite_NullSnapshotsStayNull(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	start, _ := roster.ParseTimestamp("2024-06-01T08:00:00")
	end, _ := roster.ParseTimestamp("2024-06-01T12:00:00")

	id, err := s.CreateShift(ctx, roster.Shift{WorkerID: "w1", StartTime: start, EndTime: end})
	require.NoError(t, err)

	got, err := s.GetShift(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.HourlyRate.Valid)
	assert.False(t, got.DurationInHours.Valid)
	assert.True(t, got.Hours().Equal(decimal.NewFromInt(4)))
}

func TestSQLite_Reset(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	_, err := s.CreateTier(ctx, roster.Tier{Name: "Senior", HourlyRate: decimal.NewFromInt(50)})
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx))

	tiers, err := s.ListTiers(ctx)
	require.NoError(t, err)
	assert.Empty(t, tiers)
}
