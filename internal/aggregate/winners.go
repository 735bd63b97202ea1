package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/election.report/internal/results"
)

// StateResult is the derived winner and margin for one state in one year.
type StateResult struct {
	StatePO     string        `json:"state_po"`
	State       string        `json:"state"`
	Winner      results.Party `json:"winner"`
	WinnerPct   float64       `json:"winner_pct"`
	RunnerUpPct float64       `json:"runner_up_pct"`
	Margin      float64       `json:"margin"`
	Category    Category      `json:"category"`
	Color       string        `json:"color"`
	Hover       string        `json:"hover"`
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ResolveWinners picks the winner and margin for every state in year.
// Results are ordered by state_po.
func ResolveWinners(snap *results.Snapshot, year int, scheme Scheme) ([]StateResult, error) {
	rows, err := snap.Rows(year)
	if err != nil {
		return nil, err
	}

	byState := groupByState(rows)
	codes := make([]string, 0, len(byState))
	for po := range byState {
		codes = append(codes, po)
	}
	sort.Strings(codes)

	out := make([]StateResult, 0, len(codes))
	for _, po := range codes {
		sr, err := resolveState(year, po, byState[po])
		if err != nil {
			return nil, err
		}
		sr.Category = ClassifyWinner(sr.Winner, sr.Margin, scheme)
		sr.Color = sr.Category.Color()
		sr.Hover = resultHover(sr)
		out = append(out, sr)
	}
	return out, nil
}

func groupByState(rows []results.ResultRow) map[string][]results.ResultRow {
	byState := make(map[string][]results.ResultRow)
	for _, r := range rows {
		byState[r.StatePO] = append(byState[r.StatePO], r)
	}
	return byState
}

// partyShares indexes a state's rows by party, rejecting duplicate parties
// and slices with more than two rows.
func partyShares(year int, po string, rows []results.ResultRow) (map[results.Party]results.ResultRow, error) {
	if len(rows) > 2 {
		return nil, fmt.Errorf("%w: %s %d has %d party rows", results.ErrDataInconsistency, po, year, len(rows))
	}
	shares := make(map[results.Party]results.ResultRow, 2)
	for _, r := range rows {
		if _, dup := shares[r.Party]; dup {
			return nil, fmt.Errorf("%w: %s %d has two %s rows", results.ErrDataInconsistency, po, year, r.Party)
		}
		shares[r.Party] = r
	}
	return shares, nil
}

func resolveState(year int, po string, rows []results.ResultRow) (StateResult, error) {
	shares, err := partyShares(year, po, rows)
	if err != nil {
		return StateResult{}, err
	}
	dem, okD := shares[results.DEM]
	rep, okR := shares[results.REP]
	if !okD || !okR {
		return StateResult{}, fmt.Errorf("%w: %s %d needs one DEM and one REP row, has %d", results.ErrDataInconsistency, po, year, len(rows))
	}

	// An exact tie goes to DEM so the result does not depend on row order.
	winner, runnerUp := dem, rep
	if rep.Pct > dem.Pct {
		winner, runnerUp = rep, dem
	}

	name := winner.State
	if name == "" {
		name = po
	}
	return StateResult{
		StatePO:     po,
		State:       name,
		Winner:      winner.Party,
		WinnerPct:   winner.Pct,
		RunnerUpPct: runnerUp.Pct,
		Margin:      round2(math.Abs(winner.Pct-runnerUp.Pct) * 100),
	}, nil
}

func resultHover(sr StateResult) string {
	return fmt.Sprintf("<b>%s</b><br><br>%s: %.1f%%<br>%s: %.1f%%<br><br><b>+%.1f%% %s</b>",
		sr.State,
		sr.Winner, 100*sr.WinnerPct,
		sr.Winner.Other(), 100*sr.RunnerUpPct,
		sr.Margin, sr.Winner,
	)
}
