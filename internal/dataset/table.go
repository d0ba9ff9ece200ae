// Package dataset holds the in-memory listings table and its flat-file codec.
package dataset

import (
	"sort"
	"strconv"
	"strings"
)

// Column names the cleaning and filtering steps rely on.
const (
	ColPrice      = "price"
	ColModelYear  = "model_year"
	ColModel      = "model"
	ColCylinders  = "cylinders"
	ColOdometer   = "odometer"
	ColPaintColor = "paint_color"
	ColIs4WD      = "is_4wd"
	ColType       = "type"
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
)

func (k Kind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "text"
}

// Cell is a raw field value. Valid is false for missing cells.
type Cell struct {
	Value string
	Valid bool
}

// Missing is the zero Cell.
var Missing = Cell{}

// Text returns a present cell holding s.
func Text(s string) Cell { return Cell{Value: s, Valid: true} }

// Number returns a present cell holding f in its shortest decimal form.
func Number(f float64) Cell { return Text(FormatFloat(f)) }

// FormatFloat renders f without trailing zeros ("2010", "2.5").
func FormatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Table is an ordered collection of rows sharing one column set.
// A Table returned by Subset shares row storage with its parent and must be
// treated as read-only.
type Table struct {
	Name    string
	columns []string
	index   map[string]int
	kinds   []Kind
	rows    [][]Cell
}

// New builds a table. Rows must have len(columns) cells each.
func New(name string, columns []string, rows [][]Cell) *Table {
	t := &Table{
		Name:    name,
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    rows,
	}
	for i, c := range t.columns {
		t.index[c] = i
	}
	t.kinds = inferKinds(t.columns, rows)
	return t
}

func inferKinds(columns []string, rows [][]Cell) []Kind {
	kinds := make([]Kind, len(columns))
	for j := range columns {
		seen := 0
		numeric := true
		for _, r := range rows {
			c := r[j]
			if !c.Valid {
				continue
			}
			seen++
			if _, err := strconv.ParseFloat(c.Value, 64); err != nil {
				numeric = false
				break
			}
		}
		if numeric && seen > 0 {
			kinds[j] = KindNumeric
		}
	}
	return kinds
}

// Columns returns a copy of the column names in file order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Len is the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// NumColumns is the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// Index returns the position of a column.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Kind returns the inferred kind of column j.
func (t *Table) Kind(j int) Kind { return t.kinds[j] }

// Cell returns the cell at row i, column j.
func (t *Table) Cell(i, j int) Cell { return t.rows[i][j] }

// Row returns a copy of row i.
func (t *Table) Row(i int) []Cell { return append([]Cell(nil), t.rows[i]...) }

// Float parses the cell at (i, j). ok is false for missing or non-numeric cells.
func (t *Table) Float(i, j int) (float64, bool) {
	c := t.rows[i][j]
	if !c.Valid {
		return 0, false
	}
	f, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Strings returns row i as plain strings, missing cells as "".
func (t *Table) Strings(i int) []string {
	out := make([]string, len(t.columns))
	for j, c := range t.rows[i] {
		if c.Valid {
			out[j] = c.Value
		}
	}
	return out
}

// Clone deep-copies the table so the copy can be mutated.
func (t *Table) Clone() *Table {
	rows := make([][]Cell, len(t.rows))
	for i, r := range t.rows {
		rows[i] = append([]Cell(nil), r...)
	}
	c := &Table{
		Name:    t.Name,
		columns: t.Columns(),
		index:   make(map[string]int, len(t.index)),
		kinds:   append([]Kind(nil), t.kinds...),
		rows:    rows,
	}
	for k, v := range t.index {
		c.index[k] = v
	}
	return c
}

// Set overwrites one cell. Only call on a table you own (see Clone).
func (t *Table) Set(i, j int, c Cell) { t.rows[i][j] = c }

// Refresh re-infers column kinds after cells were rewritten.
func (t *Table) Refresh() { t.kinds = inferKinds(t.columns, t.rows) }

// Subset returns a read-only table holding the given rows in the given order.
// Column kinds are inherited from t.
func (t *Table) Subset(rows []int) *Table {
	sub := make([][]Cell, len(rows))
	for k, i := range rows {
		sub[k] = t.rows[i]
	}
	return &Table{
		Name:    t.Name,
		columns: t.columns,
		index:   t.index,
		kinds:   t.kinds,
		rows:    sub,
	}
}

// Head returns the first n rows as a read-only table.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.rows) {
		n = len(t.rows)
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.Subset(idx)
}

// ColumnCount pairs a column name with a count.
type ColumnCount struct {
	Column string
	Count  int
}

// MissingCounts reports missing cells per column in column order.
func (t *Table) MissingCounts() []ColumnCount {
	out := make([]ColumnCount, len(t.columns))
	for j, name := range t.columns {
		out[j].Column = name
		for _, r := range t.rows {
			if !r[j].Valid {
				out[j].Count++
			}
		}
	}
	return out
}

// Require returns a SchemaError naming the first absent column.
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if !t.Has(c) {
			return &SchemaError{Column: c, Reason: "column not found"}
		}
	}
	return nil
}

// Distinct lists the present values of a column, sorted.
func (t *Table) Distinct(name string) []string {
	j, ok := t.index[name]
	if !ok {
		return nil
	}
	seen := map[string]struct{}{}
	for _, r := range t.rows {
		if r[j].Valid {
			seen[r[j].Value] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// String renders a short description, e.g. "vehicles_us.csv (51525 rows x 13 columns)".
func (t *Table) String() string {
	var b strings.Builder
	name := t.Name
	if name == "" {
		name = "(unnamed)"
	}
	b.WriteString(name)
	b.WriteString(" (")
	b.WriteString(strconv.Itoa(t.Len()))
	b.WriteString(" rows x ")
	b.WriteString(strconv.Itoa(t.NumColumns()))
	b.WriteString(" columns)")
	return b.String()
}
