// Package filter derives read-only views of a cleaned listings table.
package filter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/carlot-cli/internal/dataset"
)

// PriceRange is an inclusive bound on price.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether p lies inside the range.
func (r PriceRange) Contains(p float64) bool { return p >= r.Min && p <= r.Max }

// Filters is the set of predicates a view must satisfy. Unset predicates do
// not narrow the result.
type Filters struct {
	// Price nil means the table's own bounds (no narrowing). Bounds outside
	// the table's min/max are used as given; rows simply fail to match.
	Price *PriceRange
	// Types nil means any type. A non-nil empty slice matches nothing.
	Types []string
	// Where is an optional boolean expression evaluated per row.
	Where string
}

// AllTypes reports whether no type predicate is active.
func (f Filters) AllTypes() bool { return f.Types == nil }

// Validate checks bounds and compiles the Where expression.
func (f Filters) Validate() error {
	if f.Price != nil {
		if math.IsNaN(f.Price.Min) || math.IsNaN(f.Price.Max) {
			return &ConfigError{Field: "price_range", Reason: "bounds must be numbers"}
		}
		if f.Price.Min > f.Price.Max {
			return &ConfigError{Field: "price_range", Reason: fmt.Sprintf("min %s is greater than max %s",
				dataset.FormatFloat(f.Price.Min), dataset.FormatFloat(f.Price.Max))}
		}
	}
	if strings.TrimSpace(f.Where) != "" {
		if _, err := compileWhere(f.Where, coreColumns); err != nil {
			return err
		}
	}
	return nil
}

// Key is a canonical string for caching: equal filters yield equal keys.
func (f Filters) Key() string {
	var b strings.Builder
	if f.Price != nil {
		fmt.Fprintf(&b, "price=%s..%s;", dataset.FormatFloat(f.Price.Min), dataset.FormatFloat(f.Price.Max))
	}
	if f.Types != nil {
		types := append([]string(nil), f.Types...)
		sort.Strings(types)
		fmt.Fprintf(&b, "types=%q;", types)
	}
	if w := strings.TrimSpace(f.Where); w != "" {
		fmt.Fprintf(&b, "where=%q;", w)
	}
	return b.String()
}

// String renders the active predicates for humans.
func (f Filters) String() string {
	var parts []string
	if f.Price != nil {
		parts = append(parts, fmt.Sprintf("price %s..%s", dataset.FormatFloat(f.Price.Min), dataset.FormatFloat(f.Price.Max)))
	}
	if f.Types != nil {
		if len(f.Types) == 0 {
			parts = append(parts, "types (none)")
		} else {
			parts = append(parts, "types "+strings.Join(f.Types, ","))
		}
	}
	if w := strings.TrimSpace(f.Where); w != "" {
		parts = append(parts, "where "+w)
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, "; ")
}

// View is a filtered, read-only projection of a table.
type View struct {
	*dataset.Table
	Filters Filters
	// Rows maps view positions to source row indices.
	Rows []int
}

// Bounds returns min and max price over rows with a price. ok is false when
// no row has one.
func Bounds(t *dataset.Table) (r PriceRange, ok bool) {
	j, has := t.Index(dataset.ColPrice)
	if !has {
		return PriceRange{}, false
	}
	r = PriceRange{Min: math.Inf(1), Max: math.Inf(-1)}
	for i := 0; i < t.Len(); i++ {
		p, valid := t.Float(i, j)
		if !valid {
			continue
		}
		ok = true
		r.Min = math.Min(r.Min, p)
		r.Max = math.Max(r.Max, p)
	}
	if !ok {
		return PriceRange{}, false
	}
	return r, true
}

// Apply keeps the rows of t that satisfy every active predicate, in source
// order. t is not modified and repeated calls yield identical views.
func Apply(t *dataset.Table, f Filters) (*View, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var preds []predicate
	if f.Price != nil {
		if err := t.Require(dataset.ColPrice); err != nil {
			return nil, err
		}
		preds = append(preds, priceBetween(t, *f.Price))
	}
	if f.Types != nil {
		if err := t.Require(dataset.ColType); err != nil {
			return nil, err
		}
		preds = append(preds, typeIn(t, f.Types))
	}
	if strings.TrimSpace(f.Where) != "" {
		p, err := whereExpr(t, f.Where)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	rows := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if matchAll(preds, i) {
			rows = append(rows, i)
		}
	}
	return &View{Table: t.Subset(rows), Filters: f, Rows: rows}, nil
}

type predicate func(row int) bool

func matchAll(preds []predicate, row int) bool {
	for _, p := range preds {
		if !p(row) {
			return false
		}
	}
	return true
}

// priceBetween never matches rows without a price.
func priceBetween(t *dataset.Table, r PriceRange) predicate {
	j, _ := t.Index(dataset.ColPrice)
	return func(i int) bool {
		p, ok := t.Float(i, j)
		return ok && r.Contains(p)
	}
}

func typeIn(t *dataset.Table, types []string) predicate {
	j, _ := t.Index(dataset.ColType)
	set := make(map[string]struct{}, len(types))
	for _, ty := range types {
		set[ty] = struct{}{}
	}
	return func(i int) bool {
		c := t.Cell(i, j)
		if !c.Valid {
			return false
		}
		_, ok := set[c.Value]
		return ok
	}
}
