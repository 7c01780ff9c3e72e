package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SaveSpeedHistogramPNG writes a histogram of derived speeds to a PNG
// file, for offline reports where the HTML chart is inconvenient.
func SaveSpeedHistogramPNG(path string, speeds []float64, bins int) error {
	if len(speeds) == 0 {
		return fmt.Errorf("no speeds to plot")
	}
	if bins <= 0 {
		bins = 16
	}

	p := plot.New()
	p.Title.Text = "Derived Speed Distribution"
	p.X.Label.Text = "speed (km/h)"
	p.Y.Label.Text = "points"

	values := make(plotter.Values, len(speeds))
	copy(values, speeds)

	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(hist)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
