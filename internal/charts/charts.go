// Package charts renders declarative chart requests over a table as PNG.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/carlot-cli/internal/dataset"
)

// ErrEmptyView is returned when a chart has no data points to draw.
var ErrEmptyView = errors.New("no rows to chart")

const (
	DefaultWidth  = 1024
	DefaultHeight = 576
	DefaultBins   = 50
)

// HistogramRequest bins a numeric column.
type HistogramRequest struct {
	Column string
	Bins   int
	Title  string
	Width  int
	Height int
}

// PriceHistogram is the price distribution chart of the listings dashboard.
func PriceHistogram(bins int) HistogramRequest {
	return HistogramRequest{Column: dataset.ColPrice, Bins: bins, Title: "Histogram of Vehicle Prices"}
}

// ScatterRequest plots Y against X, one series per ColorBy value.
type ScatterRequest struct {
	X, Y    string
	ColorBy string
	Title   string
	Width   int
	Height  int
}

// MileagePrice is the odometer vs price chart colored by vehicle type.
func MileagePrice() ScatterRequest {
	return ScatterRequest{X: dataset.ColOdometer, Y: dataset.ColPrice, ColorBy: dataset.ColType, Title: "Mileage vs Price"}
}

func size(w, h int) (int, int) {
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// numbers collects the parseable values of a column.
func numbers(t *dataset.Table, column string) ([]float64, error) {
	j, ok := t.Index(column)
	if !ok {
		return nil, &dataset.SchemaError{Column: column, Reason: "column not found"}
	}
	var out []float64
	for i := 0; i < t.Len(); i++ {
		if v, ok := t.Float(i, j); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// paddedRange widens a degenerate range so the axis can be drawn.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.05, 1)
		lo, hi = lo-pad, hi+pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// RenderScatter draws req over t as PNG.
func RenderScatter(w io.Writer, t *dataset.Table, req ScatterRequest) error {
	xj, ok := t.Index(req.X)
	if !ok {
		return &dataset.SchemaError{Column: req.X, Reason: "column not found"}
	}
	yj, ok := t.Index(req.Y)
	if !ok {
		return &dataset.SchemaError{Column: req.Y, Reason: "column not found"}
	}
	cj := -1
	if req.ColorBy != "" {
		if cj, ok = t.Index(req.ColorBy); !ok {
			return &dataset.SchemaError{Column: req.ColorBy, Reason: "column not found"}
		}
	}

	type points struct{ xs, ys []float64 }
	byGroup := map[string]*points{}
	xMin, xMax := math.Inf(1), math.Inf(-1)
	yMin, yMax := math.Inf(1), math.Inf(-1)
	n := 0
	for i := 0; i < t.Len(); i++ {
		x, okx := t.Float(i, xj)
		y, oky := t.Float(i, yj)
		if !okx || !oky {
			continue
		}
		key := ""
		if cj >= 0 {
			key = t.Cell(i, cj).Value
		}
		p := byGroup[key]
		if p == nil {
			p = &points{}
			byGroup[key] = p
		}
		p.xs = append(p.xs, x)
		p.ys = append(p.ys, y)
		xMin, xMax = math.Min(xMin, x), math.Max(xMax, x)
		yMin, yMax = math.Min(yMin, y), math.Max(yMax, y)
		n++
	}
	if n == 0 {
		return ErrEmptyView
	}

	keys := make([]string, 0, len(byGroup))
	for k := range byGroup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	series := make([]chart.Series, 0, len(keys))
	for i, k := range keys {
		p := byGroup[k]
		name := k
		if name == "" {
			name = req.Y
		}
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: p.xs,
			YValues: p.ys,
			Style:   pointStyle(chart.GetDefaultColor(i)),
		})
	}

	width, height := size(req.Width, req.Height)
	ch := chart.Chart{
		Title:      req.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: req.X, Range: paddedRange(xMin, xMax)},
		YAxis:      chart.YAxis{Name: req.Y, Range: paddedRange(yMin, yMax)},
		Series:     series,
	}
	if cj >= 0 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    3,
		DotColor:    col,
	}
}
