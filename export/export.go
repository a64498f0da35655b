// Package export renders estimate reports as spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/crew-scheduler/estimate"
	"github.com/warp/crew-scheduler/roster"
)

const (
	SheetDaily = "Daily"
	SheetTiers = "Tiers"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

// ErrUnknownFormat is returned by Writer for anything but "xlsx" or "csv".
var ErrUnknownFormat = fmt.Errorf("%w: unknown export format", roster.ErrValidation)

// WriteFunc renders a report onto w.
type WriteFunc func(w io.Writer, r estimate.Report) error

// Writer returns the renderer and content type for a format name.
func Writer(format string) (WriteFunc, string, error) {
	switch format {
	case "xlsx":
		return WriteXLSX, ContentTypeXLSX, nil
	case "csv":
		return WriteCSV, ContentTypeCSV, nil
	default:
		return nil, "", fmt.Errorf("%w %q (use xlsx or csv)", ErrUnknownFormat, format)
	}
}

// WriteXLSX writes a workbook with a per-day sheet and a per-tier sheet.
func WriteXLSX(w io.Writer, r estimate.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetDaily); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetTiers); err != nil {
		return err
	}

	if err := writeDaily(f, r); err != nil {
		return fmt.Errorf("daily sheet: %w", err)
	}
	if err := writeTiers(f, r); err != nil {
		return fmt.Errorf("tiers sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeDaily(f *excelize.File, r estimate.Report) error {
	header := []any{"Date", "Hours", "Cost"}
	for _, t := range r.Totals.Tiers {
		header = append(header, t.Name+" Hours", t.Name+" Cost")
	}
	if err := f.SetSheetRow(SheetDaily, "A1", &header); err != nil {
		return err
	}

	for i, d := range r.Days {
		row := []any{d.Date.String(), num(d.TotalHours), money(d.TotalCost)}
		for _, t := range r.Totals.Tiers {
			amt := d.Tiers[t.TierID]
			row = append(row, num(amt.Hours), money(amt.Cost))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetDaily, cell, &row); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetDaily, "A1", last, bold)
}

func writeTiers(f *excelize.File, r estimate.Report) error {
	header := []any{"Tier", "Color", "Hours", "Cost"}
	if err := f.SetSheetRow(SheetTiers, "A1", &header); err != nil {
		return err
	}

	for i, t := range r.Totals.Tiers {
		row := []any{t.Name, t.Color, num(t.Hours), money(t.Cost)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetTiers, cell, &row); err != nil {
			return err
		}
		if err := colorSwatch(f, i+2, t.Color); err != nil {
			return err
		}
	}

	total := []any{"Total", "", num(r.Totals.TotalHours), money(r.Totals.TotalCost)}
	cell, err := excelize.CoordinatesToCellName(1, len(r.Totals.Tiers)+2)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetTiers, cell, &total)
}

// colorSwatch fills the color cell of a tier row with the tier's color.
func colorSwatch(f *excelize.File, row int, color string) error {
	hex := strings.TrimPrefix(color, "#")
	if len(hex) != 6 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}},
	})
	if err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(2, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetTiers, cell, cell, style)
}

// WriteCSV writes one row per day: date, hours, cost, then hours and cost per tier.
func WriteCSV(w io.Writer, r estimate.Report) error {
	cw := csv.NewWriter(w)

	header := []string{"date", "hours", "cost"}
	for _, t := range r.Totals.Tiers {
		header = append(header, t.Name+" hours", t.Name+" cost")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range r.Days {
		row := []string{d.Date.String(), d.TotalHours.String(), d.TotalCost.StringFixed(2)}
		for _, t := range r.Totals.Tiers {
			amt := d.Tiers[t.TierID]
			row = append(row, amt.Hours.String(), amt.Cost.StringFixed(2))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(d decimal.Decimal) float64 { return d.Round(4).InexactFloat64() }

func money(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }
