package dataset

import "fmt"

// LoadError indicates the source could not be opened or parsed.
type LoadError struct {
	Path   string
	Line   int    // 1-based line in the file; 0 when not applicable
	Column string // offending column, if known
	Err    error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "load failed"
	}
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("load %s: line %d, column %q: %v", e.Path, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("load %s: line %d: %v", e.Path, e.Line, e.Err)
	default:
		return fmt.Sprintf("load %s: %v", e.Path, e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// SchemaError indicates a column required by a later step is absent or unusable.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: column %q: %s", e.Column, e.Reason)
}
