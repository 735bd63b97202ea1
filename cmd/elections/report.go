package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/banshee-data/election.report/internal/aggregate"
	"github.com/banshee-data/election.report/internal/charts"
	"github.com/banshee-data/election.report/internal/security"
)

type reportFlags struct {
	year   int
	scheme string
	n      int
	png    string
	outDir string
}

func newReportCmd(flags *rootFlags) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the closest and furthest races for a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			snap, err := database.LoadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			scheme := cfg.GetDefaultScheme()
			if f.scheme != "" {
				if scheme, err = aggregate.ParseScheme(f.scheme); err != nil {
					return err
				}
			}
			year := f.year
			if year == 0 {
				_, year = snap.YearRange()
			}
			n := f.n
			if n == 0 {
				n = cfg.GetRankingSize()
			}

			view, err := aggregate.ResolveResults(snap, year, scheme, n)
			if err != nil {
				return err
			}
			writeReport(cmd.OutOrStdout(), view)

			if f.png == "" && f.outDir == "" {
				return nil
			}
			path := f.png
			if path == "" {
				name := security.SanitizeFilename(fmt.Sprintf("margins-%d-%s.png", view.Year, view.Scheme))
				path = filepath.Join(f.outDir, name)
			}
			if err := security.ValidateOutputPath(path); err != nil {
				return err
			}
			img, err := charts.MarginHistogram(view, cfg.GetHistogramBins())
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, img, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(img))))
			return nil
		},
	}
	cmd.Flags().IntVar(&f.year, "year", 0, "Election year (default latest)")
	cmd.Flags().StringVar(&f.scheme, "scheme", "", "Color scheme: basic or banded")
	cmd.Flags().IntVarP(&f.n, "n", "n", 0, "Rows per table (default from config)")
	cmd.Flags().StringVar(&f.png, "png", "", "Write the margin histogram to this file")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "Write the margin histogram here under a generated name")
	return cmd
}

func writeReport(out io.Writer, v *aggregate.ResultsView) {
	fmt.Fprintf(out, "%d: DEM carried %d states, REP carried %d, winner %s (scheme %s)\n",
		v.Year, v.DemCount, v.RepCount, v.Winner, v.Scheme)
	fmt.Fprintf(out, "margin mean %.2f, median %.2f, std dev %.2f\n\n",
		v.Summary.Mean, v.Summary.Median, v.Summary.StdDev)

	for _, table := range []struct {
		title string
		rows  []aggregate.RankedRow
	}{
		{"Closest races", v.Closest},
		{"Furthest races", v.Furthest},
	} {
		fmt.Fprintln(out, table.title)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, r := range table.rows {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%.2f\n", humanize.Ordinal(r.Rank), r.State, r.Category, r.Value)
		}
		tw.Flush()
		fmt.Fprintln(out)
	}
}
