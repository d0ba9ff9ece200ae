package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/KaramelBytes/carlot-cli/internal/analysis"
	"github.com/KaramelBytes/carlot-cli/internal/charts"
	"github.com/KaramelBytes/carlot-cli/internal/dataset"
	"github.com/KaramelBytes/carlot-cli/internal/filter"
	"github.com/KaramelBytes/carlot-cli/internal/logging"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SummaryResponse struct {
	Table   analysis.Summary `json:"table"`
	View    analysis.Summary `json:"view"`
	Filters string           `json:"filters"`
}

type TypesResponse struct {
	Types []string `json:"types"`
}

type RowsResponse struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	// Count is the number of rows in the view; Rows may hold fewer when limited.
	Count   int    `json:"count"`
	Total   int    `json:"total"`
	Filters string `json:"filters"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// ParseFilters reads price_min, price_max, types and where from the query.
// A present but empty types parameter selects no types.
func ParseFilters(r *http.Request) (filter.Filters, error) {
	q := r.URL.Query()
	var f filter.Filters

	minS, maxS := strings.TrimSpace(q.Get("price_min")), strings.TrimSpace(q.Get("price_max"))
	if minS != "" || maxS != "" {
		if minS == "" || maxS == "" {
			return f, &filter.ConfigError{Field: "price_range", Reason: "price_min and price_max must be given together"}
		}
		lo, err := strconv.ParseFloat(minS, 64)
		if err != nil {
			return f, &filter.ConfigError{Field: "price_range", Reason: "price_min is not a number", Err: err}
		}
		hi, err := strconv.ParseFloat(maxS, 64)
		if err != nil {
			return f, &filter.ConfigError{Field: "price_range", Reason: "price_max is not a number", Err: err}
		}
		f.Price = &filter.PriceRange{Min: lo, Max: hi}
	}
	if vals, ok := q["types"]; ok {
		f.Types = []string{}
		for _, v := range vals {
			for _, ty := range strings.Split(v, ",") {
				if ty = strings.TrimSpace(ty); ty != "" {
					f.Types = append(f.Types, ty)
				}
			}
		}
	}
	f.Where = q.Get("where")
	return f, nil
}

// view derives the filtered view for r, writing the error response itself.
func (s *Server) view(w http.ResponseWriter, r *http.Request) (*filter.View, bool) {
	f, err := ParseFilters(r)
	if err == nil {
		var v *filter.View
		if v, err = filter.Apply(s.table, f); err == nil {
			return v, true
		}
	}
	logging.FromContext(r.Context()).Info("filter rejected", "error", err)
	var ce *filter.ConfigError
	var se *dataset.SchemaError
	switch {
	case errors.As(err, &ce), errors.As(err, &se):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
	return nil, false
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rows": s.table.Len()})
}

func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, r)
	if !ok {
		return
	}
	resp := SummaryResponse{
		Table:   analysis.Summarize(s.table),
		View:    analysis.Summarize(v.Table),
		Filters: v.Filters.String(),
	}
	resp.View.Filtered = v.Filters.Key() != ""
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Types(w http.ResponseWriter, r *http.Request) {
	types := s.table.Distinct(dataset.ColType)
	if types == nil {
		types = []string{}
	}
	writeJSON(w, http.StatusOK, TypesResponse{Types: types})
}

func (s *Server) Rows(w http.ResponseWriter, r *http.Request) {
	limit := s.opt.HeadRows
	if ls := r.URL.Query().Get("limit"); ls != "" {
		n, err := strconv.Atoi(ls)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	v, ok := s.view(w, r)
	if !ok {
		return
	}
	head := v.Table
	if limit > 0 {
		head = v.Head(limit)
	}
	resp := RowsResponse{
		Columns: v.Columns(),
		Rows:    make([][]any, head.Len()),
		Count:   v.Len(),
		Total:   s.table.Len(),
		Filters: v.Filters.String(),
	}
	for i := range resp.Rows {
		row := make([]any, head.NumColumns())
		for j := range row {
			if c := head.Cell(i, j); c.Valid {
				row[j] = c.Value
			}
		}
		resp.Rows[i] = row
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) PriceHistogram(w http.ResponseWriter, r *http.Request) {
	req := charts.PriceHistogram(s.opt.HistogramBins)
	req.Width, req.Height = s.opt.ChartWidth, s.opt.ChartHeight
	if bs := r.URL.Query().Get("bins"); bs != "" {
		n, err := strconv.Atoi(bs)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("bins must be a positive integer"))
			return
		}
		req.Bins = n
	}
	s.renderPNG(w, r, func(v *filter.View, buf *bytes.Buffer) error {
		return charts.RenderHistogram(buf, v.Table, req)
	})
}

func (s *Server) MileagePrice(w http.ResponseWriter, r *http.Request) {
	req := charts.MileagePrice()
	req.Width, req.Height = s.opt.ChartWidth, s.opt.ChartHeight
	s.renderPNG(w, r, func(v *filter.View, buf *bytes.Buffer) error {
		return charts.RenderScatter(buf, v.Table, req)
	})
}

func (s *Server) renderPNG(w http.ResponseWriter, r *http.Request, render func(*filter.View, *bytes.Buffer) error) {
	v, ok := s.view(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render(v, &buf); err != nil {
		var se *dataset.SchemaError
		switch {
		case errors.Is(err, charts.ErrEmptyView):
			writeError(w, http.StatusUnprocessableEntity, err)
		case errors.As(err, &se):
			writeError(w, http.StatusBadRequest, err)
		default:
			logging.FromContext(r.Context()).Error("chart render failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
