// Package charts renders the dashboard views as go-echarts HTML pages and
// the margin distribution as a gonum/plot PNG.
package charts

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/election.report/internal/aggregate"
	"github.com/banshee-data/election.report/internal/nightsim"
	"github.com/banshee-data/election.report/internal/results"
)

// DefaultMapType is the echarts map registered for the state choropleths.
const DefaultMapType = "USA"

// continuousColors is the diverging blue-white-red scale for REP/DEM share
// changes.
var continuousColors = []string{"#053061", "#2166ac", "#92c5de", "#f7f7f7", "#f4a582", "#b2182b", "#67001f"}

// Renderer builds chart pages. The zero value uses the go-echarts asset host
// and DefaultMapType.
type Renderer struct {
	AssetsHost string
	MapType    string
}

func (r Renderer) mapType() string {
	if r.MapType == "" {
		return DefaultMapType
	}
	return r.MapType
}

func (r Renderer) init(title, height string) opts.Initialization {
	return opts.Initialization{PageTitle: title, Width: "100%", Height: height, AssetsHost: r.AssetsHost}
}

func (r Renderer) render(cs ...components.Charter) ([]byte, error) {
	page := components.NewPage()
	if r.AssetsHost != "" {
		page.SetAssetsHost(r.AssetsHost)
	}
	page.AddCharts(cs...)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render error: %w", err)
	}
	return buf.Bytes(), nil
}

// categoryMap colors each state by the position of its category in legend.
// The visual map is continuous with one color stop per legend entry, so every
// integer value lands exactly on its category's color.
func (r Renderer) categoryMap(title, subtitle string, legend []aggregate.Category, names []string, cats []aggregate.Category) *charts.Map {
	index := make(map[aggregate.Category]int, len(legend))
	colors := make([]string, 0, len(legend)+1)
	labels := make([]string, 0, len(legend))
	for i, c := range legend {
		index[c] = i
		colors = append(colors, c.Color())
		labels = append(labels, string(c))
	}
	maxIdx := float32(len(legend) - 1)
	if maxIdx < 1 {
		maxIdx = 1
		colors = append(colors, colors[len(colors)-1])
	}

	data := make([]opts.MapData, 0, len(names))
	for i, name := range names {
		data = append(data, opts.MapData{Name: name, Value: index[cats[i]]})
	}

	m := charts.NewMap()
	m.RegisterMapType(r.mapType())
	m.SetGlobalOptions(
		charts.WithInitializationOpts(r.init(title, "640px")),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle + "\n" + strings.Join(labels, " · ")}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: "{b}"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(false),
			Calculable: opts.Bool(false),
			Min:        0,
			Max:        maxIdx,
			InRange:    &opts.VisualMapInRange{Color: colors},
		}),
	)
	m.AddSeries(title, data)
	return m
}

// ResultsPage renders the winner map and the states-won pie for one year.
func (r Renderer) ResultsPage(v *aggregate.ResultsView, scheme aggregate.Scheme) ([]byte, error) {
	names := make([]string, len(v.States))
	cats := make([]aggregate.Category, len(v.States))
	for i, s := range v.States {
		names[i], cats[i] = s.State, s.Category
	}
	title := fmt.Sprintf("%d Presidential Election", v.Year)
	subtitle := fmt.Sprintf("Winner: %s · DEM %d states · REP %d states", v.Winner, v.DemCount, v.RepCount)
	m := r.categoryMap(title, subtitle, aggregate.Legend("results", aggregate.ModeMargin, scheme), names, cats)

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(r.init(title, "360px")),
		charts.WithTitleOpts(opts.Title{Title: "States won"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("States won", []opts.PieData{
		{Name: string(results.DEM), Value: v.DemCount, ItemStyle: &opts.ItemStyle{Color: aggregate.CategoryDEM.Color()}},
		{Name: string(results.REP), Value: v.RepCount, ItemStyle: &opts.ItemStyle{Color: aggregate.CategoryREP.Color()}},
	}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c}"}))

	return r.render(m, pie)
}

// EvolutionPage renders the change map between two years. MARGIN mode is
// categorical; REP and DEM modes use a symmetric continuous scale.
func (r Renderer) EvolutionPage(v *aggregate.EvolutionView, scheme aggregate.Scheme) ([]byte, error) {
	title := fmt.Sprintf("%s change %d → %d", v.Mode, v.StartYear, v.EndYear)

	if v.Mode == aggregate.ModeMargin {
		names := make([]string, len(v.Deltas))
		cats := make([]aggregate.Category, len(v.Deltas))
		for i, d := range v.Deltas {
			names[i], cats[i] = d.State, d.Category
		}
		legend := aggregate.Legend("evolution", v.Mode, scheme)
		return r.render(r.categoryMap(title, "Positive values moved toward REP", legend, names, cats))
	}

	bound := float32(math.Ceil(v.MaxAbsChange * 100))
	if bound == 0 {
		bound = 1
	}
	data := make([]opts.MapData, 0, len(v.Deltas))
	for _, d := range v.Deltas {
		data = append(data, opts.MapData{Name: d.State, Value: math.Round(d.Change*10000) / 100})
	}

	m := charts.NewMap()
	m.RegisterMapType(r.mapType())
	m.SetGlobalOptions(
		charts.WithInitializationOpts(r.init(title, "640px")),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("Change in %s vote share, percentage points", v.Mode)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: "{b}: {c}"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        -bound,
			Max:        bound,
			Text:       []string{"+", "-"},
			InRange:    &opts.VisualMapInRange{Color: continuousColors},
		}),
	)
	m.AddSeries(title, data)
	return r.render(m)
}

// NightPage renders an election-night board: the ratings map and a stacked
// bar of electoral votes.
func (r Renderer) NightPage(id string, v nightsim.View) ([]byte, error) {
	ratings := results.Ratings()
	colors := make([]string, len(ratings))
	for i, rt := range ratings {
		colors[i] = rt.Color()
	}

	data := make([]opts.MapData, 0, len(v.States))
	tossup := 0
	for _, s := range v.States {
		data = append(data, opts.MapData{Name: s.State, Value: int(s.Rating)})
		if s.Rating == results.Tossup {
			tossup += s.ElectoralVotes
		}
	}

	title := "Election Night"
	m := charts.NewMap()
	m.RegisterMapType(r.mapType())
	m.SetGlobalOptions(
		charts.WithInitializationOpts(r.init(title, "640px")),
		charts.WithTitleOpts(opts.Title{Title: v.Winner, Subtitle: fmt.Sprintf("DEM %d · REP %d · session %s", v.DemVotes, v.RepVotes, id)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: "{b}"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:    opts.Bool(false),
			Min:     float32(results.DEMSolid),
			Max:     float32(results.REPSolid),
			InRange: &opts.VisualMapInRange{Color: colors},
		}),
	)
	m.AddSeries(title, data)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(r.init(title, "200px")),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Electoral votes (%d to win)", nightsim.WinThreshold+1)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"Electoral votes"}).
		AddSeries("DEM", []opts.BarData{{Value: v.DemVotes}},
			charts.WithBarChartOpts(opts.BarChart{Stack: "votes"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: results.DEMSolid.Color()})).
		AddSeries("Tossup", []opts.BarData{{Value: tossup}},
			charts.WithBarChartOpts(opts.BarChart{Stack: "votes"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: results.Tossup.Color()})).
		AddSeries("REP", []opts.BarData{{Value: v.RepVotes}},
			charts.WithBarChartOpts(opts.BarChart{Stack: "votes"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: results.REPSolid.Color()}))
	bar.XYReversal()

	return r.render(m, bar)
}
