package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/banshee-data/election.report/internal/dataset"
	"github.com/banshee-data/election.report/internal/httputil"
	"github.com/banshee-data/election.report/internal/results"
	"github.com/banshee-data/election.report/internal/security"
)

const defaultElectoralPath = "data/electoral.csv"

type importFlags struct {
	results   string
	electoral string
	timeout   time.Duration
}

func newImportCmd(flags *rootFlags) *cobra.Command {
	f := &importFlags{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the stored dataset from CSV files or URLs",
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

			snap, size, err := readDataset(cmd.Context(), http.DefaultClient, f)
			if err != nil {
				return err
			}
			rec, err := database.ImportSnapshot(cmd.Context(), snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s result rows for %d-%d and %s states from %s (import %s)\n",
				humanize.Comma(int64(rec.ResultRows)), rec.FirstYear, rec.LastYear,
				humanize.Comma(int64(rec.ElectoralRows)), humanize.Bytes(uint64(size)), rec.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.results, "results", "", "Results CSV path or http(s) URL")
	cmd.Flags().StringVar(&f.electoral, "electoral", defaultElectoralPath, "Electoral CSV path or http(s) URL")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "Download timeout for URL sources")
	_ = cmd.MarkFlagRequired("results")
	return cmd
}

// readDataset fetches both tables and validates them as one snapshot. It
// returns the combined size of the sources in bytes.
func readDataset(ctx context.Context, client httputil.HTTPClient, f *importFlags) (*results.Snapshot, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	resultsData, err := readSource(ctx, client, f.results)
	if err != nil {
		return nil, 0, err
	}
	electoralData, err := readSource(ctx, client, f.electoral)
	if err != nil {
		return nil, 0, err
	}

	rows, err := dataset.ReadResults(bytes.NewReader(resultsData))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", f.results, err)
	}
	alloc, err := dataset.ReadElectoral(bytes.NewReader(electoralData))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", f.electoral, err)
	}
	snap, err := results.NewSnapshot(rows, alloc)
	if err != nil {
		return nil, 0, fmt.Errorf("build snapshot: %w", err)
	}
	return snap, len(resultsData) + len(electoralData), nil
}

func readSource(ctx context.Context, client httputil.HTTPClient, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return httputil.Fetch(ctx, client, src)
	}
	if err := security.ValidateDatasetPath(src); err != nil {
		return nil, err
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
