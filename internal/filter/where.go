package filter

import (
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/KaramelBytes/carlot-cli/internal/dataset"
)

// coreColumns are always visible to expressions, even before a table is known.
var coreColumns = []string{
	dataset.ColPrice, dataset.ColModelYear, dataset.ColModel, dataset.ColCylinders,
	dataset.ColOdometer, dataset.ColPaintColor, dataset.ColIs4WD, dataset.ColType,
}

// compileWhere compiles src as a boolean expression. Builtins named like a
// column (type) are disabled so the column wins.
func compileWhere(src string, columns []string) (*vm.Program, error) {
	opts := []expr.Option{expr.AsBool()}
	for _, name := range columns {
		opts = append(opts, expr.DisableBuiltin(name))
	}
	program, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, &ConfigError{Field: "where", Reason: "invalid expression", Err: err}
	}
	return program, nil
}

// whereExpr evaluates src against each row. Numeric columns are exposed as
// float64, text columns as string, missing cells as nil. A row whose
// evaluation fails does not match.
func whereExpr(t *dataset.Table, src string) (predicate, error) {
	program, err := compileWhere(src, append(t.Columns(), coreColumns...))
	if err != nil {
		return nil, err
	}
	columns := t.Columns()
	env := make(map[string]any, len(columns))
	return func(i int) bool {
		for j, name := range columns {
			c := t.Cell(i, j)
			switch {
			case !c.Valid:
				env[name] = nil
			case t.Kind(j) == dataset.KindNumeric:
				v, _ := t.Float(i, j)
				env[name] = v
			default:
				env[name] = c.Value
			}
		}
		out, err := expr.Run(program, env)
		if err != nil {
			slog.Debug("where expression failed", "row", i, "error", err)
			return false
		}
		b, ok := out.(bool)
		return ok && b
	}, nil
}
