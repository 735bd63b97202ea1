package dataset

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/election.report/internal/results"
	"github.com/banshee-data/election.report/internal/testutil"
)

func TestTitleState(t *testing.T) {
	cases := map[string]string{
		"NEW YORK":             "New York",
		"district of columbia": "District Of Columbia",
		"  texas ":             "Texas",
	}
	for in, want := range cases {
		assert.Equal(t, want, TitleState(in))
	}
}

func TestReadResults(t *testing.T) {
	in := "\ufeffYear,State,State_PO,Party,Pct,extra\n" +
		"2020,GEORGIA,ga,DEM,0.4953,x\n" +
		"2020,GEORGIA,GA,REPUBLICAN,0.4924,x\n" +
		"2020,GEORGIA,GA,LIBERTARIAN,0.0124,x\n"

	rows, err := ReadResults(strings.NewReader(in))
	require.NoError(t, err)

	want := []results.ResultRow{
		{Year: 2020, State: "Georgia", StatePO: "GA", Party: results.DEM, Pct: 0.4953},
		{Year: 2020, State: "Georgia", StatePO: "GA", Party: results.REP, Pct: 0.4924},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReadResultsErrors(t *testing.T) {
	cases := map[string]string{
		"missing column": "year,state,party,pct\n2020,GA,DEM,0.5\n",
		"bad year":       "year,state,state_po,party,pct\ntwenty,GA,GA,DEM,0.5\n",
		"bad pct":        "year,state,state_po,party,pct\n2020,GA,GA,DEM,half\n",
		"empty":          "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadResults(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestReadElectoral(t *testing.T) {
	in := "state_po,state,college,polls\n" +
		"TX,TEXAS,40,REP-Solid\n" +
		"mi,michigan,15,dem lean\n"

	alloc, err := ReadElectoral(strings.NewReader(in))
	require.NoError(t, err)

	want := []results.ElectoralAllocation{
		{StatePO: "TX", State: "Texas", ElectoralVotes: 40, InitialLean: results.REPSolid},
		{StatePO: "MI", State: "Michigan", ElectoralVotes: 15, InitialLean: results.DEMLean},
	}
	if diff := cmp.Diff(want, alloc); diff != "" {
		t.Errorf("allocation mismatch (-want +got):\n%s", diff)
	}
}

func TestReadElectoralErrors(t *testing.T) {
	_, err := ReadElectoral(strings.NewReader("state_po,state,college,polls\nTX,TEXAS,forty,REP-Solid\n"))
	assert.Error(t, err)

	_, err = ReadElectoral(strings.NewReader("state_po,state,college,polls\nTX,TEXAS,40,Safe R\n"))
	assert.Error(t, err)

	_, err = ReadElectoral(strings.NewReader("state_po,college\nTX,40\n"))
	assert.ErrorContains(t, err, "missing columns: state, polls")
}

func TestLoadFilesMatchesFixture(t *testing.T) {
	snap, err := LoadFiles(filepath.Join("testdata", "results.csv"), filepath.Join("testdata", "electoral.csv"))
	require.NoError(t, err)

	want := testutil.NewFixtureSnapshot(t)
	assert.Equal(t, want.Years(), snap.Years())
	assert.ElementsMatch(t, want.AllRows(), snap.AllRows())
	assert.ElementsMatch(t, want.Allocations(), snap.Allocations())
}

func TestLoadFilesMissing(t *testing.T) {
	_, err := LoadFiles(filepath.Join("testdata", "nope.csv"), filepath.Join("testdata", "electoral.csv"))
	assert.ErrorContains(t, err, "failed to open")
}

func TestBundledElectoralTable(t *testing.T) {
	alloc, err := readFile(filepath.Join("..", "..", "data", "electoral.csv"), ReadElectoral)
	require.NoError(t, err)
	require.Len(t, alloc, 51)

	total := 0
	for _, a := range alloc {
		total += a.ElectoralVotes
	}
	assert.Equal(t, 538, total)
}
