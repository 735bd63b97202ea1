package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/election.report/internal/aggregate"
	"github.com/banshee-data/election.report/internal/charts"
	"github.com/banshee-data/election.report/internal/httputil"
	"github.com/banshee-data/election.report/internal/nightsim"
	"github.com/banshee-data/election.report/internal/version"
)

func writeErr(w http.ResponseWriter, err error) {
	var pe *paramError
	if errors.As(err, &pe) {
		httputil.BadRequest(w, pe.Error())
		return
	}
	httputil.WriteError(w, err)
}

const indexHTML = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>US Presidential Elections</title></head>
<body>
<h1>US Presidential Elections %d-%d</h1>
<ul>
<li><a href="/charts/results?year=%d">Results</a> (<a href="/charts/results?year=%d&amp;scheme=banded">banded</a>)</li>
<li><a href="/charts/evolution?start=%d&amp;end=%d">Evolution</a></li>
<li><form method="post" action="/api/night"><button type="submit">New election night</button></form></li>
</ul>
</body></html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	first, last := s.snap.YearRange()
	doc := fmt.Sprintf(indexHTML, first, last, last, last, first, last)
	httputil.WriteBytes(w, "text/html; charset=utf-8", []byte(doc))
}

type healthResponse struct {
	Status   string         `json:"status"`
	Version  version.Info   `json:"version"`
	Years    []int          `json:"years"`
	Rows     int            `json:"rows"`
	Sessions int            `json:"sessions"`
	Tables   map[string]int `json:"tables,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Version:  version.Current(),
		Years:    s.snap.Years(),
		Rows:     s.snap.Len(),
		Sessions: s.sessions.Len(),
	}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		counts, err := s.db.TableCounts(ctx)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		resp.Tables = counts
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string][]int{"years": s.snap.Years()})
}

func (s *Server) resultsQuery(r *http.Request) (*aggregate.ResultsView, aggregate.Scheme, error) {
	_, last := s.snap.YearRange()
	year, err := intParam(r, "year", last)
	if err != nil {
		return nil, 0, err
	}
	scheme, err := s.schemeParam(r)
	if err != nil {
		return nil, 0, err
	}
	n, err := intParam(r, "n", s.opts.RankingSize)
	if err != nil {
		return nil, 0, err
	}
	view, err := timed("results", fmt.Sprintf("year=%d scheme=%s", year, scheme), func() (*aggregate.ResultsView, error) {
		return aggregate.ResolveResults(s.snap, year, scheme, n)
	})
	return view, scheme, err
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	view, _, err := s.resultsQuery(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	httputil.WriteJSONOK(w, view)
}

func (s *Server) evolutionQuery(r *http.Request) (*aggregate.EvolutionView, aggregate.Scheme, error) {
	first, last := s.snap.YearRange()
	start, err := intParam(r, "start", first)
	if err != nil {
		return nil, 0, err
	}
	end, err := intParam(r, "end", last)
	if err != nil {
		return nil, 0, err
	}
	mode, err := aggregate.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		return nil, 0, &paramError{name: "mode", value: r.URL.Query().Get("mode"), err: err}
	}
	scheme, err := s.schemeParam(r)
	if err != nil {
		return nil, 0, err
	}
	n, err := intParam(r, "n", s.opts.RankingSize)
	if err != nil {
		return nil, 0, err
	}
	q := aggregate.EvolutionQuery{StartYear: start, EndYear: end, Mode: mode, Scheme: scheme, N: n}
	view, err := timed("evolution", fmt.Sprintf("start=%d end=%d mode=%s scheme=%s", start, end, mode, scheme), func() (*aggregate.EvolutionView, error) {
		return aggregate.ResolveEvolution(s.snap, q)
	})
	return view, scheme, err
}

func (s *Server) handleEvolution(w http.ResponseWriter, r *http.Request) {
	view, _, err := s.evolutionQuery(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	httputil.WriteJSONOK(w, view)
}

type nightResponse struct {
	ID string `json:"id"`
	nightsim.View
}

func (s *Server) handleNightCreate(w http.ResponseWriter, r *http.Request) {
	id, board := s.sessions.Create()
	view, err := board.View()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Location", "/api/night/"+id)
	httputil.WriteJSON(w, http.StatusCreated, nightResponse{ID: id, View: view})
}

// withBoard resolves the {id} path value to a board.
func (s *Server) withBoard(fn func(w http.ResponseWriter, r *http.Request, id string, b *nightsim.Board)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b, err := s.sessions.Get(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		fn(w, r, id, b)
	}
}

func (s *Server) handleNightGet(w http.ResponseWriter, r *http.Request) {
	s.withBoard(func(w http.ResponseWriter, r *http.Request, id string, b *nightsim.Board) {
		view, err := b.View()
		if err != nil {
			writeErr(w, err)
			return
		}
		httputil.WriteJSONOK(w, nightResponse{ID: id, View: view})
	})(w, r)
}

func (s *Server) handleNightDelete(w http.ResponseWriter, r *http.Request) {
	s.withBoard(func(w http.ResponseWriter, r *http.Request, id string, _ *nightsim.Board) {
		s.sessions.Delete(id)
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}

func (s *Server) handleNightClick(w http.ResponseWriter, r *http.Request) {
	s.withBoard(func(w http.ResponseWriter, r *http.Request, id string, b *nightsim.Board) {
		state := r.URL.Query().Get("state")
		if state == "" {
			httputil.BadRequest(w, "missing state parameter")
			return
		}
		view, err := timed("night", "click="+state, func() (nightsim.View, error) {
			return b.Click(state)
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		httputil.WriteJSONOK(w, nightResponse{ID: id, View: view})
	})(w, r)
}

func (s *Server) handleNightReset(w http.ResponseWriter, r *http.Request) {
	s.withBoard(func(w http.ResponseWriter, r *http.Request, id string, b *nightsim.Board) {
		view, err := b.Reset()
		if err != nil {
			writeErr(w, err)
			return
		}
		httputil.WriteJSONOK(w, nightResponse{ID: id, View: view})
	})(w, r)
}

const htmlContentType = "text/html; charset=utf-8"

func (s *Server) handleResultsChart(w http.ResponseWriter, r *http.Request) {
	view, scheme, err := s.resultsQuery(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	page, err := s.opts.Charts.ResultsPage(view, scheme)
	if err != nil {
		writeErr(w, err)
		return
	}
	httputil.WriteBytes(w, htmlContentType, page)
}

func (s *Server) handleMarginsPNG(w http.ResponseWriter, r *http.Request) {
	view, _, err := s.resultsQuery(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	img, err := charts.MarginHistogram(view, s.opts.HistogramBins)
	if err != nil {
		writeErr(w, err)
		return
	}
	httputil.WriteBytes(w, "image/png", img)
}

func (s *Server) handleEvolutionChart(w http.ResponseWriter, r *http.Request) {
	view, scheme, err := s.evolutionQuery(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	page, err := s.opts.Charts.EvolutionPage(view, scheme)
	if err != nil {
		writeErr(w, err)
		return
	}
	httputil.WriteBytes(w, htmlContentType, page)
}

func (s *Server) handleNightChart(w http.ResponseWriter, r *http.Request) {
	s.withBoard(func(w http.ResponseWriter, r *http.Request, id string, b *nightsim.Board) {
		view, err := b.View()
		if err != nil {
			writeErr(w, err)
			return
		}
		page, err := s.opts.Charts.NightPage(id, view)
		if err != nil {
			writeErr(w, err)
			return
		}
		httputil.WriteBytes(w, htmlContentType, page)
	})(w, r)
}
