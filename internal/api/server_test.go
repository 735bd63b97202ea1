package api

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/election.report/internal/aggregate"
	"github.com/banshee-data/election.report/internal/db"
	"github.com/banshee-data/election.report/internal/nightsim"
	"github.com/banshee-data/election.report/internal/results"
	"github.com/banshee-data/election.report/internal/testutil"
)

type recordingObserver struct {
	mu  sync.Mutex
	got []nightsim.Transition
}

func (o *recordingObserver) observe(t nightsim.Transition) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, t)
}

// newTestServer serves the fixture dataset loaded back from a cloned
// template database.
func newTestServer(t *testing.T, opts Options) (*Server, http.Handler) {
	t.Helper()
	database, err := db.NewDB(cloneAPITestDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	snap, err := database.LoadSnapshot(context.Background())
	require.NoError(t, err)

	s, err := NewServer(snap, database, opts)
	require.NoError(t, err)
	return s, s.ServeMux()
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewServer_NilDatabase(t *testing.T) {
	s, err := NewServer(testutil.NewFixtureSnapshot(t), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, aggregate.DefaultRankingSize, s.opts.RankingSize)
	assert.Equal(t, 20, s.opts.HistogramBins)

	h := s.ServeMux()
	w := serve(t, h, http.MethodGet, "/health")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	var resp healthResponse
	testutil.DecodeJSON(t, w.Body, &resp)
	assert.Nil(t, resp.Tables)
	assert.Equal(t, []int{2016, 2020}, resp.Years)

	// No admin routes without a database.
	w = serve(t, h, http.MethodGet, "/debug/tailsql/")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleHealth(t *testing.T) {
	_, h := newTestServer(t, Options{})
	w := serve(t, h, http.MethodGet, "/health")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	var resp healthResponse
	testutil.DecodeJSON(t, w.Body, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 40, resp.Rows)
	assert.Equal(t, map[string]int{"results": 40, "electoral": 10}, resp.Tables)
	assert.NotEmpty(t, resp.Version.Version)
}

func TestHandleIndex(t *testing.T) {
	_, h := newTestServer(t, Options{})
	w := serve(t, h, http.MethodGet, "/")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "2016-2020")
	assert.Contains(t, w.Body.String(), "/charts/results?year=2020")

	w = serve(t, h, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleYears(t *testing.T) {
	_, h := newTestServer(t, Options{})
	w := serve(t, h, http.MethodGet, "/api/years")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	var resp map[string][]int
	testutil.DecodeJSON(t, w.Body, &resp)
	assert.Equal(t, []int{2016, 2020}, resp["years"])
}

func stateCodes(rows []aggregate.RankedRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.StatePO
	}
	return out
}

func TestHandleResults(t *testing.T) {
	_, h := newTestServer(t, Options{RankingSize: 3})

	t.Run("defaults to latest year", func(t *testing.T) {
		w := serve(t, h, http.MethodGet, "/api/results")
		testutil.AssertStatusCode(t, w.Code, http.StatusOK)

		var v aggregate.ResultsView
		testutil.DecodeJSON(t, w.Body, &v)
		assert.Equal(t, 2020, v.Year)
		assert.Equal(t, "basic", v.Scheme)
		assert.Equal(t, 7, v.DemCount)
		assert.Equal(t, 3, v.RepCount)
		assert.Equal(t, results.DEM, v.Winner)
		assert.Equal(t, []string{"GA", "AZ", "WI"}, stateCodes(v.Closest))
		assert.Equal(t, []string{"WY", "CA", "NY"}, stateCodes(v.Furthest))
	})

	t.Run("banded 2016", func(t *testing.T) {
		w := serve(t, h, http.MethodGet, "/api/results?year=2016&scheme=banded&n=2")
		testutil.AssertStatusCode(t, w.Code, http.StatusOK)

		var v aggregate.ResultsView
		testutil.DecodeJSON(t, w.Body, &v)
		assert.Equal(t, "banded", v.Scheme)
		assert.Equal(t, results.REP, v.Winner)
		assert.Len(t, v.Closest, 2)
		for _, sr := range v.States {
			assert.NotEqual(t, aggregate.CategoryDEM, sr.Category)
			assert.NotEqual(t, aggregate.CategoryREP, sr.Category)
		}
	})

	errorCases := map[string]int{
		"/api/results?year=2012":                http.StatusBadRequest,
		"/api/results?year=2018":                http.StatusBadRequest,
		"/api/results?year=abc":                 http.StatusBadRequest,
		"/api/results?scheme=rainbow":           http.StatusBadRequest,
		"/api/results?n=three":                  http.StatusBadRequest,
		"/charts/results?year=1900":             http.StatusBadRequest,
		"/charts/results/margins.png?year=1900": http.StatusBadRequest,
	}
	for target, want := range errorCases {
		t.Run(target, func(t *testing.T) {
			w := serve(t, h, http.MethodGet, target)
			assert.Equal(t, want, w.Code)
			var resp map[string]string
			testutil.DecodeJSON(t, w.Body, &resp)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestHandleEvolution(t *testing.T) {
	_, h := newTestServer(t, Options{RankingSize: 3})

	w := serve(t, h, http.MethodGet, "/api/evolution?scheme=banded")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	var v aggregate.EvolutionView
	testutil.DecodeJSON(t, w.Body, &v)
	assert.Equal(t, 2016, v.StartYear)
	assert.Equal(t, 2020, v.EndYear)
	assert.Equal(t, aggregate.ModeMargin, v.Mode)
	assert.Len(t, v.Deltas, 10)
	assert.Equal(t, []string{"GA", "AZ", "TX"}, stateCodes(v.Closest))

	byState := make(map[string]aggregate.MarginDelta)
	for _, d := range v.Deltas {
		byState[d.StatePO] = d
	}
	assert.Equal(t, aggregate.REPToDEM, byState["GA"].Category)
	assert.Equal(t, aggregate.DEMToDEM, byState["CA"].Category)

	w = serve(t, h, http.MethodGet, "/api/evolution?mode=rep&start=2016&end=2020")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	testutil.DecodeJSON(t, w.Body, &v)
	assert.Equal(t, aggregate.ModeREP, v.Mode)
	assert.Greater(t, v.MaxAbsChange, 0.0)

	for _, target := range []string{
		"/api/evolution?mode=green",
		"/api/evolution?start=2000",
		"/api/evolution?end=2024",
		"/api/evolution?start=x",
	} {
		w := serve(t, h, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestNightSession_Lifecycle(t *testing.T) {
	obs := &recordingObserver{}
	s, h := newTestServer(t, Options{Observer: obs.observe})

	w := serve(t, h, http.MethodPost, "/api/night")
	testutil.AssertStatusCode(t, w.Code, http.StatusCreated)

	var created nightResponse
	testutil.DecodeJSON(t, w.Body, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "/api/night/"+created.ID, w.Header().Get("Location"))
	assert.Equal(t, 107, created.DemVotes)
	assert.Equal(t, 73, created.RepVotes)
	assert.Equal(t, nightsim.TooEarly, created.Winner)
	assert.Len(t, created.States, 10)
	assert.Equal(t, 1, s.sessions.Len())

	base := "/api/night/" + created.ID

	w = serve(t, h, http.MethodPost, base+"/click?state=TX")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	var clicked nightResponse
	testutil.DecodeJSON(t, w.Body, &clicked)
	assert.Equal(t, 147, clicked.DemVotes)
	assert.Equal(t, 33, clicked.RepVotes)

	require.Len(t, obs.got, 1)
	assert.Equal(t, "TX", obs.got[0].StatePO)
	assert.Equal(t, results.REPSolid, obs.got[0].From)
	assert.Equal(t, results.DEMLean, obs.got[0].To)

	w = serve(t, h, http.MethodGet, base)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	var got nightResponse
	testutil.DecodeJSON(t, w.Body, &got)
	assert.Equal(t, clicked.View, got.View)

	w = serve(t, h, http.MethodPost, base+"/click?state=ZZ")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = serve(t, h, http.MethodPost, base+"/click")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, obs.got, 1)

	w = serve(t, h, http.MethodGet, "/charts/night/"+created.ID)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = serve(t, h, http.MethodPost, base+"/reset")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	var reset nightResponse
	testutil.DecodeJSON(t, w.Body, &reset)
	assert.Equal(t, created.View, reset.View)

	w = serve(t, h, http.MethodDelete, base)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, s.sessions.Len())

	for _, req := range []struct{ method, target string }{
		{http.MethodGet, base},
		{http.MethodDelete, base},
		{http.MethodPost, base + "/click?state=GA"},
		{http.MethodPost, base + "/reset"},
		{http.MethodGet, "/charts/night/" + created.ID},
	} {
		w := serve(t, h, req.method, req.target)
		assert.Equal(t, http.StatusNotFound, w.Code, req.method+" "+req.target)
	}
}

func TestNightSession_WrongMethod(t *testing.T) {
	_, h := newTestServer(t, Options{})
	w := serve(t, h, http.MethodGet, "/api/night")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestNightSessions_AreIndependent(t *testing.T) {
	_, h := newTestServer(t, Options{Observer: func(nightsim.Transition) {}})

	var a, b nightResponse
	testutil.DecodeJSON(t, serve(t, h, http.MethodPost, "/api/night").Body, &a)
	testutil.DecodeJSON(t, serve(t, h, http.MethodPost, "/api/night").Body, &b)
	require.NotEqual(t, a.ID, b.ID)

	w := serve(t, h, http.MethodPost, "/api/night/"+a.ID+"/click?state=GA")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	var gotB nightResponse
	testutil.DecodeJSON(t, serve(t, h, http.MethodGet, "/api/night/"+b.ID).Body, &gotB)
	assert.Equal(t, b.View, gotB.View)
}

func TestCharts(t *testing.T) {
	_, h := newTestServer(t, Options{})

	for _, target := range []string{
		"/charts/results",
		"/charts/results?year=2016&scheme=banded",
		"/charts/evolution",
		"/charts/evolution?mode=dem",
	} {
		t.Run(target, func(t *testing.T) {
			w := serve(t, h, http.MethodGet, target)
			testutil.AssertStatusCode(t, w.Code, http.StatusOK)
			assert.Equal(t, htmlContentType, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), "echarts")
		})
	}

	w := serve(t, h, http.MethodGet, "/charts/results/margins.png?year=2016")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, Options{})
	serve(t, h, http.MethodGet, "/api/results")

	w := serve(t, h, http.MethodGet, "/metrics")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "elections_queries_total")
}

func TestAdminRoutes(t *testing.T) {
	_, h := newTestServer(t, Options{})
	w := serve(t, h, http.MethodGet, "/debug/backup")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))
}

func TestLoggingMiddleware(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := serve(t, h, http.MethodGet, "/anything")
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestStatusCodeColor(t *testing.T) {
	assert.True(t, strings.HasPrefix(statusCodeColor(200), colorBoldGreen))
	assert.True(t, strings.HasPrefix(statusCodeColor(302), colorYellow))
	assert.True(t, strings.HasPrefix(statusCodeColor(404), colorBoldRed))
	assert.Equal(t, "101", statusCodeColor(101))
}
