package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// defaultSpeedBin is the bucket width of the speed distribution chart.
const defaultSpeedBin = 10.0

// SpeedDistributionChart builds a bar chart of derived speeds bucketed
// into fixed-width bins. Speeds and threshold are expected in the unit
// named by unit; the threshold draws the anomaly cutoff into the
// subtitle so a rendered chart is self-describing.
func SpeedDistributionChart(speeds []float64, threshold float64, unit string) *charts.Bar {
	labels, counts := binSpeeds(speeds, defaultSpeedBin)

	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		data[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Derived Speed Distribution", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Derived Speed Distribution",
			Subtitle: fmt.Sprintf("points=%d anomaly threshold=%.0f %s", len(speeds), threshold, unit),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "speed (" + unit + ")"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "points"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("points", data)

	return bar
}

// RenderSpeedChart writes the speed distribution chart as a standalone
// HTML document.
func RenderSpeedChart(w io.Writer, speeds []float64, threshold float64, unit string) error {
	if err := SpeedDistributionChart(speeds, threshold, unit).Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// binSpeeds buckets speeds into fixed-width bins starting at zero and
// returns parallel label and count slices. Negative speeds cannot occur;
// an empty input yields a single empty bin.
func binSpeeds(speeds []float64, width float64) ([]string, []int) {
	maxSpeed := 0.0
	for _, s := range speeds {
		if s > maxSpeed {
			maxSpeed = s
		}
	}

	bins := int(math.Floor(maxSpeed/width)) + 1
	counts := make([]int, bins)
	for _, s := range speeds {
		idx := int(math.Floor(s / width))
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	labels := make([]string, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.0f-%.0f", float64(i)*width, float64(i+1)*width)
	}
	return labels, counts
}
