// Package dataset reads the presidential results and electoral allocation
// tables from CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/banshee-data/election.report/internal/monitoring"
	"github.com/banshee-data/election.report/internal/results"
)

var (
	resultsColumns   = []string{"year", "state", "state_po", "party", "pct"}
	electoralColumns = []string{"state_po", "state", "college", "polls"}
)

// TitleState normalises a state name the way the dataset is displayed:
// "NEW YORK" and "new york" both become "New York".
func TitleState(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// columnIndex maps required column names to their header positions.
func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// ReadResults parses the results table. Rows for parties other than DEM and
// REP are skipped.
func ReadResults(r io.Reader) ([]results.ResultRow, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read results header: %w", err)
	}
	idx, err := columnIndex(header, resultsColumns)
	if err != nil {
		return nil, fmt.Errorf("results header: %w", err)
	}

	var (
		rows    []results.ResultRow
		skipped int
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("results line %d: %w", line, err)
		}

		party, err := results.ParseParty(rec[idx["party"]])
		if err != nil {
			skipped++
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[idx["year"]]))
		if err != nil {
			return nil, fmt.Errorf("results line %d: invalid year: %w", line, err)
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["pct"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("results line %d: invalid pct: %w", line, err)
		}
		rows = append(rows, results.ResultRow{
			Year:    year,
			State:   TitleState(rec[idx["state"]]),
			StatePO: strings.ToUpper(strings.TrimSpace(rec[idx["state_po"]])),
			Party:   party,
			Pct:     pct,
		})
	}
	if skipped > 0 {
		monitoring.Logf("dataset: skipped %d result rows for minor parties", skipped)
	}
	return rows, nil
}

// ReadElectoral parses the electoral allocation table: state_po, state,
// college (electoral votes) and polls (starting rating).
func ReadElectoral(r io.Reader) ([]results.ElectoralAllocation, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read electoral header: %w", err)
	}
	idx, err := columnIndex(header, electoralColumns)
	if err != nil {
		return nil, fmt.Errorf("electoral header: %w", err)
	}

	var out []results.ElectoralAllocation
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("electoral line %d: %w", line, err)
		}
		votes, err := strconv.Atoi(strings.TrimSpace(rec[idx["college"]]))
		if err != nil {
			return nil, fmt.Errorf("electoral line %d: invalid college: %w", line, err)
		}
		lean, err := results.ParseRating(rec[idx["polls"]])
		if err != nil {
			return nil, fmt.Errorf("electoral line %d: %w", line, err)
		}
		out = append(out, results.ElectoralAllocation{
			StatePO:        strings.ToUpper(strings.TrimSpace(rec[idx["state_po"]])),
			State:          TitleState(rec[idx["state"]]),
			ElectoralVotes: votes,
			InitialLean:    lean,
		})
	}
	return out, nil
}

// LoadFiles reads both tables from disk and builds a Snapshot.
func LoadFiles(resultsPath, electoralPath string) (*results.Snapshot, error) {
	rows, err := readFile(resultsPath, ReadResults)
	if err != nil {
		return nil, err
	}
	alloc, err := readFile(electoralPath, ReadElectoral)
	if err != nil {
		return nil, err
	}
	snap, err := results.NewSnapshot(rows, alloc)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}
	return snap, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
