package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/crew-scheduler/estimate"
	"github.com/warp/crew-scheduler/export"
	"github.com/warp/crew-scheduler/roster"
)

func sampleReport(t *testing.T) estimate.Report {
	t.Helper()
	senior := roster.Tier{ID: "senior", Name: "Senior", HourlyRate: decimal.NewFromInt(50), Color: "#AA0000"}
	idle := roster.Tier{ID: "idle", Name: "Trainee", HourlyRate: decimal.NewFromInt(15), Color: "#3498db"}

	start, err := roster.ParseTimestamp("2024-06-01T08:00:00")
	require.NoError(t, err)
	end, err := roster.ParseTimestamp("2024-06-01T16:00:00")
	require.NoError(t, err)

	p, err := roster.NewPeriod(roster.NewDay(2024, 6, 1), roster.NewDay(2024, 6, 3))
	require.NoError(t, err)

	return estimate.Build(
		[]roster.Shift{{ID: "s1", WorkerID: "w", StartTime: start, EndTime: end}},
		[]roster.Worker{{ID: "w", TierID: senior.ID}},
		[]roster.Tier{senior, idle},
		p,
	)
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, sampleReport(t)))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{export.SheetDaily, export.SheetTiers}, f.GetSheetList())

	daily, err := f.GetRows(export.SheetDaily)
	require.NoError(t, err)
	require.Len(t, daily, 4, "header plus one row per day")
	assert.Equal(t, []string{"Date", "Hours", "Cost", "Senior Hours", "Senior Cost", "Trainee Hours", "Trainee Cost"}, daily[0])
	assert.Equal(t, "2024-06-01", daily[1][0])
	assert.Equal(t, "8", daily[1][1])
	assert.Equal(t, "400", daily[1][2])
	assert.Equal(t, "0", daily[2][1])

	tiers, err := f.GetRows(export.SheetTiers)
	require.NoError(t, err)
	require.Len(t, tiers, 4)
	assert.Equal(t, []string{"Senior", "#AA0000", "8", "400"}, tiers[1])
	assert.Equal(t, []string{"Trainee", "#3498db", "0", "0"}, tiers[2])
	assert.Equal(t, "Total", tiers[3][0])
	assert.Equal(t, "400", tiers[3][3])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, sampleReport(t)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "date", rows[0][0])
	assert.Equal(t, []string{"2024-06-01", "8", "400.00", "8", "400.00", "0", "0.00"}, rows[1])
}

func TestWriter(t *testing.T) {
	write, contentType, err := export.Writer("csv")
	require.NoError(t, err)
	assert.Equal(t, export.ContentTypeCSV, contentType)

	var buf bytes.Buffer
	require.NoError(t, write(&buf, sampleReport(t)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("date,hours,cost")))

	_, contentType, err = export.Writer("xlsx")
	require.NoError(t, err)
	assert.Equal(t, export.ContentTypeXLSX, contentType)

	_, _, err = export.Writer("pdf")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
	assert.True(t, roster.IsClientError(err))
}
