package charts

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/carlot-cli/internal/dataset"
)

// Bin is one histogram bucket covering [Lo, Hi); the last bucket includes Hi.
type Bin struct {
	Lo, Hi float64
	Count  int
}

// Histogram splits vals into n equal-width bins between their min and max.
func Histogram(vals []float64, n int) []Bin {
	if len(vals) == 0 {
		return nil
	}
	if n <= 0 {
		n = DefaultBins
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(vals)}}
	}
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[n-1].Hi = hi
	for _, v := range vals {
		k := int((v - lo) / width)
		if k >= n {
			k = n - 1
		}
		bins[k].Count++
	}
	return bins
}

// RenderHistogram draws req over t as a PNG bar chart.
func RenderHistogram(w io.Writer, t *dataset.Table, req HistogramRequest) error {
	vals, err := numbers(t, req.Column)
	if err != nil {
		return err
	}
	if len(vals) == 0 {
		return ErrEmptyView
	}
	bins := Histogram(vals, req.Bins)
	width, height := size(req.Width, req.Height)

	// label about ten bars so the axis stays readable
	every := len(bins)/10 + 1
	bars := make([]chart.Value, len(bins))
	maxCount := 0
	for i, b := range bins {
		maxCount = max(maxCount, b.Count)
		bars[i] = chart.Value{Value: float64(b.Count)}
		if i%every == 0 {
			bars[i].Label = compact(b.Lo)
		}
	}
	barWidth := (width - 80) / len(bins)
	if barWidth < 2 {
		barWidth = 2
	}
	bc := chart.BarChart{
		Title:      req.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		BarWidth:   barWidth * 4 / 5,
		BarSpacing: barWidth / 5,
		Bars:       bars,
	}
	// counts start at zero; a fixed range also keeps equal-height bars drawable
	bc.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: math.Max(float64(maxCount), 1)}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}

// compact renders axis labels like 12.5k.
func compact(v float64) string {
	switch {
	case math.Abs(v) >= 1e6:
		return dataset.FormatFloat(math.Round(v/1e5)/10) + "M"
	case math.Abs(v) >= 1e3:
		return dataset.FormatFloat(math.Round(v/1e2)/10) + "k"
	default:
		return dataset.FormatFloat(math.Round(v*10) / 10)
	}
}
