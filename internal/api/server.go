// Package api serves the election dashboard: JSON endpoints over the
// aggregation engine, election-night sessions and the chart pages.
package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/election.report/internal/aggregate"
	"github.com/banshee-data/election.report/internal/charts"
	"github.com/banshee-data/election.report/internal/db"
	"github.com/banshee-data/election.report/internal/monitoring"
	"github.com/banshee-data/election.report/internal/nightsim"
	"github.com/banshee-data/election.report/internal/results"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Options tunes a Server. Zero values fall back to package defaults.
type Options struct {
	RankingSize   int
	DefaultScheme aggregate.Scheme
	SessionLimit  int
	HistogramBins int
	Charts        charts.Renderer
	// Observer is passed to every election-night board.
	Observer nightsim.Observer
}

type Server struct {
	snap     *results.Snapshot
	db       *db.DB
	sessions *nightsim.Registry
	opts     Options
}

// NewServer serves snap. database may be nil, in which case the /debug/
// admin routes are not mounted.
func NewServer(snap *results.Snapshot, database *db.DB, opts Options) (*Server, error) {
	if opts.RankingSize <= 0 {
		opts.RankingSize = aggregate.DefaultRankingSize
	}
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = 20
	}
	alloc := snap.Allocations()
	sessions, err := nightsim.NewRegistry(opts.SessionLimit, func() *nightsim.Board {
		return nightsim.NewBoard(alloc, nightsim.Options{Observer: opts.Observer})
	})
	if err != nil {
		return nil, err
	}
	return &Server{snap: snap, db: database, sessions: sessions, opts: opts}, nil
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/years", s.handleYears)
	mux.HandleFunc("GET /api/results", s.handleResults)
	mux.HandleFunc("GET /api/evolution", s.handleEvolution)

	mux.HandleFunc("POST /api/night", s.handleNightCreate)
	mux.HandleFunc("GET /api/night/{id}", s.handleNightGet)
	mux.HandleFunc("DELETE /api/night/{id}", s.handleNightDelete)
	mux.HandleFunc("POST /api/night/{id}/click", s.handleNightClick)
	mux.HandleFunc("POST /api/night/{id}/reset", s.handleNightReset)

	mux.HandleFunc("GET /charts/results", s.handleResultsChart)
	mux.HandleFunc("GET /charts/results/margins.png", s.handleMarginsPNG)
	mux.HandleFunc("GET /charts/evolution", s.handleEvolutionChart)
	mux.HandleFunc("GET /charts/night/{id}", s.handleNightChart)

	if s.db != nil {
		s.db.AttachAdminRoutes(mux)
	}
	return mux
}

// timed runs one engine query and records its latency and outcome.
func timed[T any](view, params string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	took := time.Since(start)
	monitoring.RecordQuery(view, took, err)
	monitoring.LogQuery(view, params, took, err)
	return v, err
}

// paramError marks a malformed query parameter.
type paramError struct {
	name, value string
	err         error
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.name, e.value, e.err)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw, err: err}
	}
	return v, nil
}

func (s *Server) schemeParam(r *http.Request) (aggregate.Scheme, error) {
	raw := r.URL.Query().Get("scheme")
	if raw == "" {
		return s.opts.DefaultScheme, nil
	}
	scheme, err := aggregate.ParseScheme(raw)
	if err != nil {
		return 0, &paramError{name: "scheme", value: raw, err: err}
	}
	return scheme, nil
}
