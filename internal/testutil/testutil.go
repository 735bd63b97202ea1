// Package testutil provides shared test utilities and fixtures.
//
// The election fixture is a ten-state slice of the 2016 and 2020
// presidential results with a matching electoral allocation table. It is
// small enough to reason about by hand in assertions.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/election.report/internal/results"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// DecodeJSON unmarshals a response body into v, failing the test on error.
func DecodeJSON(t *testing.T, body io.Reader, v any) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
}

type share struct {
	po, state string
	dem, rep  float64
}

var fixture2016 = []share{
	{"AZ", "Arizona", 0.4513, 0.4867},
	{"CA", "California", 0.6173, 0.3162},
	{"FL", "Florida", 0.4782, 0.4902},
	{"GA", "Georgia", 0.4564, 0.5077},
	{"MI", "Michigan", 0.4727, 0.4750},
	{"NY", "New York", 0.5901, 0.3652},
	{"PA", "Pennsylvania", 0.4746, 0.4818},
	{"TX", "Texas", 0.4324, 0.5223},
	{"WI", "Wisconsin", 0.4645, 0.4722},
	{"WY", "Wyoming", 0.2163, 0.6817},
}

var fixture2020 = []share{
	{"AZ", "Arizona", 0.4936, 0.4906},
	{"CA", "California", 0.6348, 0.3432},
	{"FL", "Florida", 0.4786, 0.5122},
	{"GA", "Georgia", 0.4953, 0.4924},
	{"MI", "Michigan", 0.5062, 0.4777},
	{"NY", "New York", 0.6087, 0.3775},
	{"PA", "Pennsylvania", 0.5001, 0.4884},
	{"TX", "Texas", 0.4648, 0.5206},
	{"WI", "Wisconsin", 0.4945, 0.4882},
	{"WY", "Wyoming", 0.2655, 0.6991},
}

// FixtureRows returns the fixture result rows for 2016 and 2020.
func FixtureRows() []results.ResultRow {
	var rows []results.ResultRow
	for year, shares := range map[int][]share{2016: fixture2016, 2020: fixture2020} {
		for _, s := range shares {
			rows = append(rows,
				results.ResultRow{Year: year, State: s.state, StatePO: s.po, Party: results.DEM, Pct: s.dem},
				results.ResultRow{Year: year, State: s.state, StatePO: s.po, Party: results.REP, Pct: s.rep},
			)
		}
	}
	return rows
}

// FixtureAllocations returns electoral votes and starting ratings for the
// fixture states. The votes total 226.
func FixtureAllocations() []results.ElectoralAllocation {
	return []results.ElectoralAllocation{
		{StatePO: "AZ", State: "Arizona", ElectoralVotes: 11, InitialLean: results.Tossup},
		{StatePO: "CA", State: "California", ElectoralVotes: 54, InitialLean: results.DEMSolid},
		{StatePO: "FL", State: "Florida", ElectoralVotes: 30, InitialLean: results.REPLikely},
		{StatePO: "GA", State: "Georgia", ElectoralVotes: 16, InitialLean: results.Tossup},
		{StatePO: "MI", State: "Michigan", ElectoralVotes: 15, InitialLean: results.DEMLean},
		{StatePO: "NY", State: "New York", ElectoralVotes: 28, InitialLean: results.DEMSolid},
		{StatePO: "PA", State: "Pennsylvania", ElectoralVotes: 19, InitialLean: results.Tossup},
		{StatePO: "TX", State: "Texas", ElectoralVotes: 40, InitialLean: results.REPSolid},
		{StatePO: "WI", State: "Wisconsin", ElectoralVotes: 10, InitialLean: results.DEMLean},
		{StatePO: "WY", State: "Wyoming", ElectoralVotes: 3, InitialLean: results.REPSolid},
	}
}

// NewFixtureSnapshot builds a Snapshot from the fixture tables.
func NewFixtureSnapshot(t testing.TB) *results.Snapshot {
	t.Helper()
	snap, err := results.NewSnapshot(FixtureRows(), FixtureAllocations())
	if err != nil {
		t.Fatalf("failed to build fixture snapshot: %v", err)
	}
	return snap
}
