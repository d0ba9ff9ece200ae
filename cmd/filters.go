package cmd

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/KaramelBytes/carlot-cli/internal/filter"
)

// filterFlags binds the view predicates shared by filter, summary and chart.
type filterFlags struct {
	priceMin float64
	priceMax float64
	types    []string
	where    string
}

func (ff *filterFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&ff.priceMin, "price-min", 0, "lower price bound, inclusive (requires --price-max)")
	fs.Float64Var(&ff.priceMax, "price-max", 0, "upper price bound, inclusive (requires --price-min)")
	fs.StringSliceVar(&ff.types, "types", nil, "vehicle types to keep, comma-separated; an empty value keeps none")
	fs.StringVar(&ff.where, "where", "", `row expression, e.g. 'odometer < 100000 && paint_color == "white"'`)
}

// filters converts the parsed flags. Unset flags leave the predicate off.
func (ff *filterFlags) filters(fs *pflag.FlagSet) (filter.Filters, error) {
	var f filter.Filters
	minSet, maxSet := fs.Changed("price-min"), fs.Changed("price-max")
	if minSet != maxSet {
		return f, &filter.ConfigError{Field: "price_range", Reason: "--price-min and --price-max must be given together"}
	}
	if minSet {
		f.Price = &filter.PriceRange{Min: ff.priceMin, Max: ff.priceMax}
	}
	if fs.Changed("types") {
		f.Types = []string{}
		for _, t := range ff.types {
			if t = strings.TrimSpace(t); t != "" {
				f.Types = append(f.Types, t)
			}
		}
	}
	f.Where = ff.where
	return f, f.Validate()
}
