package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/banshee-data/election.report/internal/results"
)

// Mode selects the metric tracked between two election years.
type Mode string

const (
	// ModeMargin tracks the signed REP-minus-DEM margin.
	ModeMargin Mode = "MARGIN"
	// ModeREP tracks the REP vote share.
	ModeREP Mode = "REP"
	// ModeDEM tracks the DEM vote share.
	ModeDEM Mode = "DEM"
)

// ParseMode is case-insensitive; the empty string is ModeMargin.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ModeMargin:
		return ModeMargin, nil
	case ModeREP:
		return ModeREP, nil
	case ModeDEM:
		return ModeDEM, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// MarginDelta is one state's change between the start and end years. Start,
// End and Change are fractions, not percentage points.
type MarginDelta struct {
	StatePO  string   `json:"state_po"`
	State    string   `json:"state"`
	Start    float64  `json:"start"`
	End      float64  `json:"end"`
	Change   float64  `json:"change"`
	Category Category `json:"category"`
	Color    string   `json:"color"`
	Hover    string   `json:"hover"`
}

// EvolutionQuery selects the two years and how to measure and color them.
type EvolutionQuery struct {
	StartYear int
	EndYear   int
	Mode      Mode
	Scheme    Scheme
	N         int
}

// EvolutionView is the full result of an evolution query.
type EvolutionView struct {
	StartYear int           `json:"start_year"`
	EndYear   int           `json:"end_year"`
	Mode      Mode          `json:"mode"`
	Scheme    string        `json:"scheme"`
	Deltas    []MarginDelta `json:"deltas"`
	// MaxAbsChange bounds the symmetric continuous color range.
	MaxAbsChange float64 `json:"max_abs_change"`
	Ranking
}

// ResolveEvolution compares two years state by state. States missing from
// either year are left out.
func ResolveEvolution(snap *results.Snapshot, q EvolutionQuery) (*EvolutionView, error) {
	if q.Mode == "" {
		q.Mode = ModeMargin
	}
	startRows, err := snap.Rows(q.StartYear)
	if err != nil {
		return nil, fmt.Errorf("start year: %w", err)
	}
	endRows, err := snap.Rows(q.EndYear)
	if err != nil {
		return nil, fmt.Errorf("end year: %w", err)
	}

	startVals, err := metricByState(q.StartYear, startRows, q.Mode)
	if err != nil {
		return nil, err
	}
	endVals, err := metricByState(q.EndYear, endRows, q.Mode)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(startVals))
	for po := range startVals {
		if _, ok := endVals[po]; ok {
			codes = append(codes, po)
		}
	}
	sort.Strings(codes)

	view := &EvolutionView{
		StartYear: q.StartYear,
		EndYear:   q.EndYear,
		Mode:      q.Mode,
		Scheme:    q.Scheme.String(),
		Deltas:    make([]MarginDelta, 0, len(codes)),
	}
	items := make([]RankItem, 0, len(codes))

	for _, po := range codes {
		start, end := startVals[po], endVals[po]
		d := MarginDelta{
			StatePO: po,
			State:   snap.StateName(po),
			Start:   start,
			End:     end,
			Change:  end - start,
		}
		d.Category = ClassifyChange(q.Mode, d.Start, d.End, d.Change, q.Scheme)
		d.Color = d.Category.Color()
		d.Hover = evolutionHover(q, d)
		view.Deltas = append(view.Deltas, d)
		view.MaxAbsChange = math.Max(view.MaxAbsChange, math.Abs(d.Change))

		shown := round2(d.Change * 100)
		items = append(items, RankItem{
			StatePO:  po,
			State:    po,
			Category: sweepCategory(q.Mode, shown),
			Key:      d.Change,
			Value:    shown,
		})
	}

	view.Ranking = SelectRanking(items, q.N)
	return view, nil
}

// metricByState computes the per-state value tracked by mode. In MARGIN mode
// a state without both parties gets a margin of 0.
func metricByState(year int, rows []results.ResultRow, mode Mode) (map[string]float64, error) {
	out := make(map[string]float64)
	for po, stateRows := range groupByState(rows) {
		shares, err := partyShares(year, po, stateRows)
		if err != nil {
			return nil, err
		}
		switch mode {
		case ModeMargin:
			rep, okR := shares[results.REP]
			dem, okD := shares[results.DEM]
			if okR && okD {
				out[po] = rep.Pct - dem.Pct
			} else {
				out[po] = 0
			}
		default:
			if r, ok := shares[results.Party(mode)]; ok {
				out[po] = r.Pct
			}
		}
	}
	return out, nil
}

// sweepCategory labels a ranking row: in MARGIN mode by the direction of the
// displayed change, otherwise by the tracked party.
func sweepCategory(mode Mode, shown float64) Category {
	if mode != ModeMargin {
		return Category(mode)
	}
	if shown > 0 {
		return CategoryREP
	}
	return CategoryDEM
}

func evolutionHover(q EvolutionQuery, d MarginDelta) string {
	if q.Mode == ModeMargin {
		return fmt.Sprintf("<b>%s</b><br><br>Change: <b>%+.1f%%</b>", d.StatePO, 100*d.Change)
	}
	return fmt.Sprintf("<b>%s</b><br><br>%d: %.1f%%<br>%d: %.1f%%<br><br>Change: <b>%+.1f%%</b>",
		d.StatePO,
		q.StartYear, 100*d.Start,
		q.EndYear, 100*d.End,
		100*d.Change,
	)
}
