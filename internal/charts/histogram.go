package charts

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/election.report/internal/aggregate"
	"github.com/banshee-data/election.report/internal/results"
)

// MarginHistogram draws the distribution of signed state margins for one
// year as a PNG. DEM wins are negative, REP wins positive.
func MarginHistogram(v *aggregate.ResultsView, bins int) ([]byte, error) {
	if len(v.States) == 0 {
		return nil, fmt.Errorf("no states to plot for %d", v.Year)
	}
	if bins < 1 {
		bins = 20
	}

	values := make(plotter.Values, len(v.States))
	for i, s := range v.States {
		values[i] = s.Margin
		if s.Winner == results.DEM {
			values[i] = -s.Margin
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%d state margins (REP − DEM)", v.Year)
	p.X.Label.Text = "Margin (percentage points)"
	p.Y.Label.Text = "States"

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return nil, fmt.Errorf("failed to build histogram: %w", err)
	}
	h.FillColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	p.Add(h)

	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 0, Y: maxCount(h)}})
	if err != nil {
		return nil, err
	}
	zero.Color = color.Black
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(zero)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to encode histogram: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func maxCount(h *plotter.Histogram) float64 {
	m := 0.0
	for _, b := range h.Bins {
		if b.Weight > m {
			m = b.Weight
		}
	}
	return m
}
