package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/election.report/internal/results"
	"github.com/banshee-data/election.report/internal/testutil"
)

func TestResolveEvolutionMargin(t *testing.T) {
	snap := testutil.NewFixtureSnapshot(t)

	view, err := ResolveEvolution(snap, EvolutionQuery{
		StartYear: 2016, EndYear: 2020, Mode: ModeMargin, Scheme: Banded, N: 3,
	})
	require.NoError(t, err)
	require.Len(t, view.Deltas, 10)

	byPO := map[string]MarginDelta{}
	for _, d := range view.Deltas {
		byPO[d.StatePO] = d
	}
	ga := byPO["GA"]
	assert.Equal(t, REPToDEM, ga.Category)
	assert.InDelta(t, 0.0513, ga.Start, 1e-9)
	assert.InDelta(t, -0.0029, ga.End, 1e-9)
	assert.Equal(t, "Georgia", ga.State)
	assert.Equal(t, DEMToDEM, byPO["CA"].Category)
	assert.Equal(t, REPToREP, byPO["FL"].Category)

	wantClosest := []RankedRow{
		{Rank: 1, StatePO: "GA", State: "GA", Category: CategoryDEM, Value: -5.42},
		{Rank: 2, StatePO: "AZ", State: "AZ", Category: CategoryDEM, Value: -3.84},
		{Rank: 3, StatePO: "TX", State: "TX", Category: CategoryDEM, Value: -3.41},
	}
	if diff := cmp.Diff(wantClosest, view.Closest); diff != "" {
		t.Errorf("closest mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"FL", "CA", "NY"}, codes(view.Furthest)); diff != "" {
		t.Errorf("furthest mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, CategoryREP, view.Furthest[0].Category)
	assert.Equal(t, CategoryDEM, view.Furthest[2].Category)
}

func TestResolveEvolutionChangeRoundTrip(t *testing.T) {
	snap := testutil.NewFixtureSnapshot(t)
	for _, mode := range []Mode{ModeMargin, ModeREP, ModeDEM} {
		view, err := ResolveEvolution(snap, EvolutionQuery{StartYear: 2016, EndYear: 2020, Mode: mode})
		require.NoError(t, err)
		for _, d := range view.Deltas {
			assert.InDelta(t, d.End-d.Start, d.Change, 1e-9, "%s %s", mode, d.StatePO)
			assert.LessOrEqual(t, d.Change, view.MaxAbsChange+1e-12)
			assert.GreaterOrEqual(t, d.Change, -view.MaxAbsChange-1e-12)
		}
	}
}

func TestResolveEvolutionPartyMode(t *testing.T) {
	snap := testutil.NewFixtureSnapshot(t)
	view, err := ResolveEvolution(snap, EvolutionQuery{StartYear: 2016, EndYear: 2020, Mode: ModeREP, Scheme: Banded})
	require.NoError(t, err)

	for _, d := range view.Deltas {
		if d.StatePO == "TX" {
			assert.InDelta(t, 0.5223, d.Start, 1e-9)
			assert.InDelta(t, 0.5206, d.End, 1e-9)
			assert.Equal(t, Negative, d.Category)
			assert.Contains(t, d.Hover, "2016: 52.2%")
		}
	}
	for _, r := range append(view.Closest, view.Furthest...) {
		assert.Equal(t, Category("REP"), r.Category)
	}
}

func TestResolveEvolutionScenarioRepToDem(t *testing.T) {
	snap, err := results.NewSnapshot([]results.ResultRow{
		{Year: 2016, StatePO: "XX", Party: results.DEM, Pct: 0.49},
		{Year: 2016, StatePO: "XX", Party: results.REP, Pct: 0.51},
		{Year: 2020, StatePO: "XX", Party: results.DEM, Pct: 0.505},
		{Year: 2020, StatePO: "XX", Party: results.REP, Pct: 0.495},
	}, nil)
	require.NoError(t, err)

	view, err := ResolveEvolution(snap, EvolutionQuery{StartYear: 2016, EndYear: 2020, Scheme: Banded})
	require.NoError(t, err)
	require.Len(t, view.Deltas, 1)

	d := view.Deltas[0]
	assert.Equal(t, REPToDEM, d.Category)
	assert.InDelta(t, 0.02, d.Start, 1e-9)
	assert.InDelta(t, -0.01, d.End, 1e-9)
	assert.InDelta(t, -0.03, d.Change, 1e-9)
	assert.Equal(t, ModeMargin, view.Mode)
}

func TestResolveEvolutionMissingPartyDefaultsToZero(t *testing.T) {
	snap, err := results.NewSnapshot([]results.ResultRow{
		{Year: 2016, StatePO: "XX", Party: results.REP, Pct: 0.6},
		{Year: 2020, StatePO: "XX", Party: results.DEM, Pct: 0.45},
		{Year: 2020, StatePO: "XX", Party: results.REP, Pct: 0.55},
		{Year: 2020, StatePO: "YY", Party: results.DEM, Pct: 0.5},
		{Year: 2020, StatePO: "YY", Party: results.REP, Pct: 0.5},
	}, nil)
	require.NoError(t, err)

	view, err := ResolveEvolution(snap, EvolutionQuery{StartYear: 2016, EndYear: 2020})
	require.NoError(t, err)
	require.Len(t, view.Deltas, 1, "YY is absent in 2016 and must be dropped")
	assert.Equal(t, 0.0, view.Deltas[0].Start)
	assert.InDelta(t, 0.10, view.Deltas[0].Change, 1e-9)
	assert.Equal(t, Positive, view.Deltas[0].Category)
}

func TestResolveEvolutionOutOfRange(t *testing.T) {
	snap := testutil.NewFixtureSnapshot(t)
	_, err := ResolveEvolution(snap, EvolutionQuery{StartYear: 2012, EndYear: 2020})
	assert.ErrorIs(t, err, results.ErrOutOfRange)
	_, err = ResolveEvolution(snap, EvolutionQuery{StartYear: 2016, EndYear: 2024})
	assert.ErrorIs(t, err, results.ErrOutOfRange)
}
