package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadOptions controls how a flat file is read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, picks tab for .tsv files and comma otherwise.
	Delimiter rune
	// NullTokens are field values treated as missing, in addition to "".
	NullTokens []string
}

// DefaultNullTokens are the spellings of "missing" seen in listings exports.
var DefaultNullTokens = []string{"NA", "N/A", "NaN", "nan", "null", "NULL", "None", "<NA>"}

// DefaultLoadOptions returns comma/tab sniffing and the default null tokens.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{NullTokens: append([]string(nil), DefaultNullTokens...)}
}

// numericColumns must hold numbers wherever they are present.
var numericColumns = map[string]bool{
	ColPrice:     true,
	ColModelYear: true,
	ColCylinders: true,
	ColOdometer:  true,
	ColIs4WD:     true,
}

// Load reads a delimited file with a header row. Any malformed row fails the
// whole load with a *LoadError.
func Load(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = SniffDelimiter(path)
	}
	t, err := read(f, path, opt)
	if err != nil {
		return nil, err
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// Read parses delimited data from r. name is used in diagnostics.
func Read(r io.Reader, name string, opt LoadOptions) (*Table, error) {
	if opt.Delimiter == 0 {
		opt.Delimiter = ','
	}
	t, err := read(r, name, opt)
	if err != nil {
		return nil, err
	}
	t.Name = name
	return t, nil
}

func read(src io.Reader, path string, opt LoadOptions) (*Table, error) {
	r := csv.NewReader(src)
	r.Comma = opt.Delimiter
	r.TrimLeadingSpace = true
	// FieldsPerRecord 0: every row must match the header width.

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Path: path, Err: errors.New("empty file: missing header row")}
		}
		return nil, parseErr(path, err)
	}
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			return nil, &LoadError{Path: path, Line: 1, Err: fmt.Errorf("header field %d is empty", i+1)}
		}
		if seen[name] {
			return nil, &LoadError{Path: path, Line: 1, Column: name, Err: errors.New("duplicate column")}
		}
		seen[name] = true
		columns[i] = name
	}

	nulls := make(map[string]bool, len(opt.NullTokens))
	for _, tok := range opt.NullTokens {
		nulls[tok] = true
	}

	var rows [][]Cell
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, parseErr(path, err)
		}
		line, _ := r.FieldPos(0)
		row := make([]Cell, len(columns))
		for j, raw := range rec {
			v := strings.TrimSpace(raw)
			if v == "" || nulls[v] {
				continue
			}
			name := columns[j]
			if name == ColIs4WD {
				if fv, ok := parseFlag(v); ok {
					v = fv
				}
			}
			if numericColumns[name] {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, &LoadError{Path: path, Line: line, Column: name, Err: fmt.Errorf("not a number: %q", v)}
				}
				if math.IsNaN(f) || math.IsInf(f, 0) {
					return nil, &LoadError{Path: path, Line: line, Column: name, Err: fmt.Errorf("not a finite number: %q", v)}
				}
			}
			row[j] = Text(v)
		}
		rows = append(rows, row)
	}
	return New("", columns, rows), nil
}

func parseErr(path string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &LoadError{Path: path, Line: pe.Line, Err: pe.Err}
	}
	return &LoadError{Path: path, Err: err}
}

// parseFlag normalizes boolean-like spellings of is_4wd to 1/0.
func parseFlag(v string) (string, bool) {
	switch strings.ToLower(v) {
	case "true", "yes", "y", "t":
		return "1", true
	case "false", "no", "n", "f":
		return "0", true
	}
	return v, false
}

// SniffDelimiter picks the delimiter from the file name: tab for .tsv, comma otherwise.
func SniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// ParseDelimiter maps a user-facing delimiter name to a rune. "" means auto.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %q (use ',' | ';' | 'tab')", s)
	}
}
