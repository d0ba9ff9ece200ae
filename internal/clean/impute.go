// Package clean fills missing cells of a listings table with per-column statistics.
package clean

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/carlot-cli/internal/dataset"
)

// CylinderPolicy selects how missing cylinders are filled.
type CylinderPolicy string

const (
	// CylindersGlobal fills with the median over the whole table.
	CylindersGlobal CylinderPolicy = "global"
	// CylindersGrouped fills with the median of the same (model, model_year)
	// group, falling back to the global median for groups with no observations.
	CylindersGrouped CylinderPolicy = "grouped"
)

// ParseCylinderPolicy accepts "global" or "grouped" (case-insensitive).
func ParseCylinderPolicy(s string) (CylinderPolicy, error) {
	switch CylinderPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case CylindersGlobal:
		return CylindersGlobal, nil
	case CylindersGrouped, "":
		return CylindersGrouped, nil
	default:
		return "", fmt.Errorf("unsupported cylinder policy: %s (use grouped|global)", s)
	}
}

// Options controls imputation.
type Options struct {
	Cylinders CylinderPolicy
}

// DefaultOptions uses grouped cylinder imputation.
func DefaultOptions() Options {
	return Options{Cylinders: CylindersGrouped}
}

// Strategy names how a column was filled.
type Strategy string

const (
	StrategyMedian        Strategy = "median"
	StrategyGroupedMedian Strategy = "grouped_median"
	StrategyMode          Strategy = "mode"
	StrategyConstant      Strategy = "constant"
)

// Fill describes the imputation applied to one column.
type Fill struct {
	Column   string
	Strategy Strategy
	// Value is the fill value; empty for grouped fills, which vary per group.
	Value  string
	Filled int
}

// Report summarizes a Clean run.
type Report struct {
	Fills []Fill
	// GroupFallbacks counts grouped cylinder fills that used the global median.
	GroupFallbacks int
	// Missing holds per-column missing counts after cleaning.
	Missing []dataset.ColumnCount
}

// TotalFilled sums filled cells across columns.
func (r *Report) TotalFilled() int {
	n := 0
	for _, f := range r.Fills {
		n += f.Filled
	}
	return n
}

// NotFourWD is the value written into missing is_4wd cells: an absent flag
// is read as "not 4WD".
const NotFourWD = "0"

// LoadAndClean loads path and returns the cleaned table.
func LoadAndClean(path string, lopt dataset.LoadOptions, opt Options) (*dataset.Table, *Report, error) {
	t, err := dataset.Load(path, lopt)
	if err != nil {
		return nil, nil, err
	}
	return Clean(t, opt)
}

// Clean returns a copy of t with model_year, cylinders, odometer, paint_color
// and is_4wd fully populated. t is not modified. Every statistic is computed
// from t before any cell is written, so column order does not matter.
func Clean(t *dataset.Table, opt Options) (*dataset.Table, *Report, error) {
	if opt.Cylinders == "" {
		opt.Cylinders = CylindersGrouped
	}
	required := []string{dataset.ColModelYear, dataset.ColCylinders, dataset.ColOdometer, dataset.ColPaintColor, dataset.ColIs4WD}
	if opt.Cylinders == CylindersGrouped {
		required = append(required, dataset.ColModel)
	}
	if err := t.Require(required...); err != nil {
		return nil, nil, err
	}

	yearCol, _ := t.Index(dataset.ColModelYear)
	cylCol, _ := t.Index(dataset.ColCylinders)
	odoCol, _ := t.Index(dataset.ColOdometer)
	colorCol, _ := t.Index(dataset.ColPaintColor)
	flagCol, _ := t.Index(dataset.ColIs4WD)

	yearMed, err := columnMedian(t, yearCol, dataset.ColModelYear)
	if err != nil {
		return nil, nil, err
	}
	odoMed, err := columnMedian(t, odoCol, dataset.ColOdometer)
	if err != nil {
		return nil, nil, err
	}
	cylMed, err := columnMedian(t, cylCol, dataset.ColCylinders)
	if err != nil {
		return nil, nil, err
	}
	colorMode, err := columnMode(t, colorCol, dataset.ColPaintColor)
	if err != nil {
		return nil, nil, err
	}
	var groups map[string]float64
	if opt.Cylinders == CylindersGrouped {
		groups = groupMedians(t, cylCol)
	}

	out := t.Clone()
	rep := &Report{}

	rep.Fills = append(rep.Fills, fillConstant(out, yearCol, dataset.ColModelYear, StrategyMedian, dataset.Number(yearMed)))

	cyl := Fill{Column: dataset.ColCylinders, Strategy: StrategyMedian, Value: dataset.FormatFloat(cylMed)}
	if opt.Cylinders == CylindersGrouped {
		cyl.Strategy = StrategyGroupedMedian
		cyl.Value = ""
	}
	for i := 0; i < t.Len(); i++ {
		if t.Cell(i, cylCol).Valid {
			continue
		}
		v := cylMed
		if groups != nil {
			if m, ok := groups[groupKey(t, i)]; ok {
				v = m
			} else {
				rep.GroupFallbacks++
			}
		}
		out.Set(i, cylCol, dataset.Number(v))
		cyl.Filled++
	}
	rep.Fills = append(rep.Fills, cyl)

	rep.Fills = append(rep.Fills, fillConstant(out, odoCol, dataset.ColOdometer, StrategyMedian, dataset.Number(odoMed)))
	rep.Fills = append(rep.Fills, fillConstant(out, colorCol, dataset.ColPaintColor, StrategyMode, dataset.Text(colorMode)))
	rep.Fills = append(rep.Fills, fillConstant(out, flagCol, dataset.ColIs4WD, StrategyConstant, dataset.Text(NotFourWD)))

	out.Refresh()
	rep.Missing = out.MissingCounts()
	return out, rep, nil
}

func fillConstant(t *dataset.Table, col int, name string, s Strategy, c dataset.Cell) Fill {
	f := Fill{Column: name, Strategy: s, Value: c.Value}
	for i := 0; i < t.Len(); i++ {
		if !t.Cell(i, col).Valid {
			t.Set(i, col, c)
			f.Filled++
		}
	}
	return f
}

// columnMedian fails only when the column has rows to fill but nothing observed.
func columnMedian(t *dataset.Table, col int, name string) (float64, error) {
	var vals []float64
	missing := 0
	for i := 0; i < t.Len(); i++ {
		if v, ok := t.Float(i, col); ok {
			vals = append(vals, v)
		} else {
			missing++
		}
	}
	m, ok := Median(vals)
	if !ok && missing > 0 {
		return 0, &dataset.SchemaError{Column: name, Reason: "no observed values to compute a median"}
	}
	return m, nil
}

func columnMode(t *dataset.Table, col int, name string) (string, error) {
	var vals []string
	missing := 0
	for i := 0; i < t.Len(); i++ {
		if c := t.Cell(i, col); c.Valid {
			vals = append(vals, c.Value)
		} else {
			missing++
		}
	}
	m, ok := Mode(vals)
	if !ok && missing > 0 {
		return "", &dataset.SchemaError{Column: name, Reason: "no observed values to compute a mode"}
	}
	return m, nil
}

// groupMedians computes the cylinders median per (model, model_year) group from
// the source values. Rows lacking model or model_year belong to no group.
func groupMedians(t *dataset.Table, cylCol int) map[string]float64 {
	samples := map[string][]float64{}
	for i := 0; i < t.Len(); i++ {
		v, ok := t.Float(i, cylCol)
		if !ok {
			continue
		}
		k := groupKey(t, i)
		if k == "" {
			continue
		}
		samples[k] = append(samples[k], v)
	}
	out := make(map[string]float64, len(samples))
	for k, vals := range samples {
		if m, ok := Median(vals); ok {
			out[k] = m
		}
	}
	return out
}

// groupKey joins model and the numeric model_year so "2010" and "2010.0" agree.
func groupKey(t *dataset.Table, i int) string {
	modelCol, _ := t.Index(dataset.ColModel)
	yearCol, _ := t.Index(dataset.ColModelYear)
	model := t.Cell(i, modelCol)
	year, ok := t.Float(i, yearCol)
	if !model.Valid || !ok {
		return ""
	}
	return model.Value + "\x00" + dataset.FormatFloat(year)
}
