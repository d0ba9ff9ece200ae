package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/carlot-cli/internal/clean"
	"github.com/KaramelBytes/carlot-cli/internal/dataset"
	"github.com/KaramelBytes/carlot-cli/internal/filter"
)

// Options controls report contents.
type Options struct {
	// SampleRows determines how many head rows to include in the report.
	SampleRows int
	// GroupBy computes per-group numeric summaries for the given column names.
	GroupBy []string
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for listings reports.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Summary holds the scalars a dashboard header shows.
type Summary struct {
	Rows     int                `json:"rows"`
	Columns  int                `json:"columns"`
	Price    *filter.PriceRange `json:"price,omitempty"`
	Filtered bool               `json:"filtered"`
}

// Summarize returns row count, column count and the price bounds of t.
func Summarize(t *dataset.Table) Summary {
	s := Summary{Rows: t.Len(), Columns: t.NumColumns()}
	if r, ok := filter.Bounds(t); ok {
		s.Price = &r
	}
	return s
}

// Report is a markdown-friendly analysis of a listings table or view.
type Report struct {
	Name     string
	Rows     int
	Summary  Summary
	Filters  string
	Cols     []ColumnSummary
	Samples  [][]string
	Header   []string
	Warnings []string
	Groups   []GroupResult
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	Std    float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []clean.CategoryCount
	ExampleTexts []string
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// categoricalLimit is the most distinct values a text column may have and
// still be reported as categorical.
const categoricalLimit = 64

// Analyze summarizes every column of t.
func Analyze(t *dataset.Table, opt Options) *Report {
	rep := &Report{Name: t.Name, Rows: t.Len(), Summary: Summarize(t), Header: t.Columns()}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	for i := 0; i < t.Len() && i < sampleRows; i++ {
		rep.Samples = append(rep.Samples, t.Strings(i))
	}

	rep.Cols = make([]ColumnSummary, 0, t.NumColumns())
	for j, name := range t.Columns() {
		s := ColumnSummary{Name: name}
		var nums []float64
		var texts []string
		for i := 0; i < t.Len(); i++ {
			c := t.Cell(i, j)
			if !c.Valid {
				s.Missing++
				continue
			}
			s.NonNull++
			if t.Kind(j) == dataset.KindNumeric {
				v, _ := t.Float(i, j)
				nums = append(nums, v)
			} else {
				texts = append(texts, c.Value)
			}
		}
		switch {
		case s.NonNull == 0:
			s.Kind = "empty"
		case t.Kind(j) == dataset.KindNumeric:
			s.Kind = "numeric"
			numericStats(&s, nums, opt)
		default:
			tops := clean.Counts(texts)
			s.Unique = len(tops)
			if s.Unique <= categoricalLimit || s.Unique*4 <= s.NonNull {
				s.Kind = "categorical"
				if len(tops) > 8 {
					tops = tops[:8]
				}
				s.TopValues = tops
			} else {
				s.Kind = "text"
				for _, v := range texts {
					if len(s.ExampleTexts) >= 3 {
						break
					}
					s.ExampleTexts = append(s.ExampleTexts, v)
				}
			}
		}
		rep.Cols = append(rep.Cols, s)
	}

	for _, cc := range t.MissingCounts() {
		if cc.Count > 0 && imputed(cc.Column) {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s still has %d missing values", cc.Column, cc.Count))
		}
	}
	if len(opt.GroupBy) > 0 {
		rep.Groups = groupBy(t, opt.GroupBy, &rep.Warnings)
	}
	return rep
}

func imputed(col string) bool {
	switch col {
	case dataset.ColModelYear, dataset.ColCylinders, dataset.ColOdometer, dataset.ColPaintColor, dataset.ColIs4WD:
		return true
	}
	return false
}

func numericStats(s *ColumnSummary, nums []float64, opt Options) {
	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	// Welford
	var mean, m2 float64
	for n, x := range nums {
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
		delta := x - mean
		mean += delta / float64(n+1)
		m2 += delta * (x - mean)
	}
	s.Mean = mean
	if len(nums) > 1 {
		s.Std = math.Sqrt(m2 / float64(len(nums)-1))
	}
	s.Median, _ = clean.Median(nums)
	if !opt.Outliers || len(nums) < 8 {
		return
	}
	median, mad := medianMAD(nums)
	thr := opt.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}
	s.OutlierThreshold = thr
	if mad == 0 {
		return
	}
	for _, v := range nums {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			s.OutliersCount++
		}
		if az > s.OutliersMaxAbsZ {
			s.OutliersMaxAbsZ = az
		}
	}
}

func groupBy(t *dataset.Table, names []string, warnings *[]string) []GroupResult {
	var idx []int
	for _, name := range names {
		j, ok := t.Index(strings.TrimSpace(name))
		if !ok {
			*warnings = append(*warnings, fmt.Sprintf("group-by column %q not found", name))
			continue
		}
		idx = append(idx, j)
	}
	if len(idx) == 0 {
		return nil
	}
	columns := t.Columns()
	groups := map[string]*GroupResult{}
	for i := 0; i < t.Len(); i++ {
		parts := make([]string, 0, len(idx))
		for _, j := range idx {
			parts = append(parts, fmt.Sprintf("%s=%s", columns[j], safeVal(t.Cell(i, j).Value)))
		}
		key := strings.Join(parts, " | ")
		g := groups[key]
		if g == nil {
			g = &GroupResult{Key: key, Metrics: map[string]NumSummary{}}
			groups[key] = g
		}
		g.Size++
		for j, name := range columns {
			if t.Kind(j) != dataset.KindNumeric {
				continue
			}
			x, ok := t.Float(i, j)
			if !ok {
				continue
			}
			m, seen := g.Metrics[name]
			if !seen || x < m.Min {
				m.Min = x
			}
			if !seen || x > m.Max {
				m.Max = x
			}
			// running mean
			m.Count++
			m.Mean += (x - m.Mean) / float64(m.Count)
			g.Metrics[name] = m
		}
	}
	out := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Filters != "" {
		b.WriteString(fmt.Sprintf("Filters: %s\n", r.Filters))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))
	if p := r.Summary.Price; p != nil {
		b.WriteString(fmt.Sprintf("Price: %s .. %s\n", dataset.FormatFloat(p.Min), dataset.FormatFloat(p.Max)))
	}
	b.WriteString("\n[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Median, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(" — e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD ROWS]\n")
		b.WriteString(MarkdownTable(r.Header, r.Samples))
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// MarkdownTable renders rows under header as a pipe table.
func MarkdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(h))
	}
	b.WriteString(" |\n| ")
	for i := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if r := []rune(val); len(r) > 80 {
				val = string(r[:77]) + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	median, ok := clean.Median(vals)
	if !ok {
		return 0, 0
	}
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - median)
	}
	mad, _ = clean.Median(dev)
	return
}
