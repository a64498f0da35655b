package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/crew-scheduler/api"
	"github.com/warp/crew-scheduler/estimate"
	"github.com/warp/crew-scheduler/export"
	"github.com/warp/crew-scheduler/roster"
	"github.com/warp/crew-scheduler/staffing"
)

func newEstimateCmd(g *globalFlags) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Print a month's labor cost estimate as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := loadReport(cmd, g, month)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), api.ToEstimateResponse(report))
		},
	}
	cmd.Flags().StringVar(&month, "month", roster.Today().Time.Format(roster.MonthLayout), "Month (YYYY-MM)")
	return cmd
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var month, format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a month's estimate as xlsx or csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			write, _, err := export.Writer(format)
			if err != nil {
				return fmt.Errorf("--format: %w", err)
			}

			report, err := loadReport(cmd, g, month)
			if err != nil {
				return err
			}

			if out == "-" {
				return write(cmd.OutOrStdout(), report)
			}
			if out == "" {
				out = fmt.Sprintf("estimate_%s.%s", month, format)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := write(f, report); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", roster.Today().Time.Format(roster.MonthLayout), "Month (YYYY-MM)")
	cmd.Flags().StringVar(&format, "format", "xlsx", "Output format: xlsx or csv")
	cmd.Flags().StringVar(&out, "out", "", `Output file ("-" for stdout; default estimate_<month>.<format>)`)
	return cmd
}

func newSeedCmd(g *globalFlags) *cobra.Command {
	var scenario, month string
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := roster.ParseMonth(month)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			log := toolLogger(cfg)
			backend, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer backend.Close()

			if reset {
				if err := backend.Reset(cmd.Context()); err != nil {
					return err
				}
			}
			svc := staffing.NewService(backend, staffing.Config{Concurrency: cfg.WriteConcurrency, Logger: log})
			if err := api.SeedScenario(cmd.Context(), backend, svc, scenario, p.Start); err != nil {
				return err
			}
			log.Info().Str("scenario", scenario).Str("month", month).Msg("scenario seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "small-team", "Scenario id")
	cmd.Flags().StringVar(&month, "month", roster.Today().Time.Format(roster.MonthLayout), "Month to place shifts in (YYYY-MM)")
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the store first")
	return cmd
}

// loadReport opens the configured store and builds the month's estimate.
func loadReport(cmd *cobra.Command, g *globalFlags, month string) (estimate.Report, error) {
	p, err := roster.ParseMonth(month)
	if err != nil {
		return estimate.Report{}, err
	}
	cfg, err := loadConfig(g)
	if err != nil {
		return estimate.Report{}, err
	}
	backend, err := openStore(cmd.Context(), cfg, toolLogger(cfg))
	if err != nil {
		return estimate.Report{}, err
	}
	defer backend.Close()
	return estimate.Load(cmd.Context(), backend, p)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
