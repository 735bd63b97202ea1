package aggregate

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/election.report/internal/results"
)

// MarginSummary describes the spread of state margins for one year, in
// percentage points.
type MarginSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ResultsView is everything the results page shows for one year.
type ResultsView struct {
	Year     int           `json:"year"`
	Scheme   string        `json:"scheme"`
	States   []StateResult `json:"states"`
	DemCount int           `json:"dem_count"`
	RepCount int           `json:"rep_count"`
	// Winner is the party that carried more states; ties go to REP.
	Winner  results.Party `json:"winner"`
	Summary MarginSummary `json:"summary"`
	Ranking
}

// ResolveResults builds the per-state results, counters and closest/furthest
// tables for year. n <= 0 uses DefaultRankingSize.
func ResolveResults(snap *results.Snapshot, year int, scheme Scheme, n int) (*ResultsView, error) {
	states, err := ResolveWinners(snap, year, scheme)
	if err != nil {
		return nil, err
	}

	view := &ResultsView{
		Year:   year,
		Scheme: scheme.String(),
		States: states,
	}

	items := make([]RankItem, 0, len(states))
	margins := make([]float64, 0, len(states))
	for _, sr := range states {
		switch sr.Winner {
		case results.DEM:
			view.DemCount++
		case results.REP:
			view.RepCount++
		}
		margins = append(margins, sr.Margin)
		items = append(items, RankItem{
			StatePO:  sr.StatePO,
			State:    sr.State,
			Category: Category(sr.Winner),
			Key:      sr.Margin,
			Value:    sr.Margin,
		})
	}

	view.Winner = results.REP
	if view.DemCount > view.RepCount {
		view.Winner = results.DEM
	}
	view.Summary = summarize(margins)
	view.Ranking = SelectRanking(items, n)
	return view, nil
}

func summarize(margins []float64) MarginSummary {
	if len(margins) == 0 {
		return MarginSummary{}
	}
	sorted := slices.Clone(margins)
	slices.Sort(sorted)

	sum := MarginSummary{
		Mean:   round2(stat.Mean(sorted, nil)),
		Median: round2(stat.Quantile(0.5, stat.Empirical, sorted, nil)),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		sum.StdDev = round2(stat.StdDev(sorted, nil))
	}
	return sum
}
