package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/carlot-cli/internal/dataset"
)

const listings = `price,model_year,model,odometer,paint_color,is_4wd,type
9400,2011,bmw x5,145000,black,1,suv
15000,2014,honda civic,40000,white,0,sedan
18000,2015,jeep wrangler,,white,1,suv
15000,2012,toyota rav4,98000,red,1,suv
25500,2017,ford f-150,88705,white,1,pickup
12000,2013,ford escape,130000,silver,0,suv
`

func newServer(t *testing.T) *Server {
	t.Helper()
	tbl, err := dataset.Read(strings.NewReader(listings), "listings.csv", dataset.DefaultLoadOptions())
	require.NoError(t, err)
	return New(tbl, Options{HistogramBins: 10, ChartWidth: 640, ChartHeight: 360, HeadRows: 5}, nil)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	rec := get(t, newServer(t), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(6), body["rows"])
}

func TestRows_CombinedFilters(t *testing.T) {
	rec := get(t, newServer(t), "/api/rows?price_min=10000&price_max=20000&types=suv")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RowsResponse](t, rec)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, 6, resp.Total)
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, "18000", resp.Rows[0][0])
	assert.Nil(t, resp.Rows[0][3], "missing odometer serialises as null")
	assert.Equal(t, "price 10000..20000; types suv", resp.Filters)
}

func TestRows_Limit(t *testing.T) {
	s := newServer(t)

	resp := decode[RowsResponse](t, get(t, s, "/api/rows"))
	assert.Equal(t, 6, resp.Count)
	assert.Len(t, resp.Rows, 5)

	resp = decode[RowsResponse](t, get(t, s, "/api/rows?limit=2"))
	assert.Len(t, resp.Rows, 2)

	resp = decode[RowsResponse](t, get(t, s, "/api/rows?limit=0"))
	assert.Len(t, resp.Rows, 6)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/rows?limit=-1").Code)
}

func TestRows_EmptyTypesSelectsNothing(t *testing.T) {
	rec := get(t, newServer(t), "/api/rows?types=")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RowsResponse](t, rec)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Rows)
	assert.Empty(t, resp.Rows)
}

func TestRows_RejectsBadFilters(t *testing.T) {
	s := newServer(t)
	cases := map[string]string{
		"lone bound":     "/api/rows?price_min=100",
		"inverted range": "/api/rows?price_min=5&price_max=1",
		"not a number":   "/api/rows?price_min=cheap&price_max=10",
		"bad where":      "/api/rows?where=" + url.QueryEscape("price >"),
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := get(t, s, target)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestRows_Where(t *testing.T) {
	rec := get(t, newServer(t), "/api/rows?where="+url.QueryEscape("is_4wd == 0"))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RowsResponse](t, rec)
	assert.Equal(t, 2, resp.Count)
}

func TestRows_WhereOnType(t *testing.T) {
	rec := get(t, newServer(t), "/api/rows?where="+url.QueryEscape(`type == "pickup"`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[RowsResponse](t, rec)
	assert.Equal(t, 1, resp.Count)
}

func TestTypes(t *testing.T) {
	resp := decode[TypesResponse](t, get(t, newServer(t), "/api/types"))
	assert.Equal(t, []string{"pickup", "sedan", "suv"}, resp.Types)
}

func TestSummary(t *testing.T) {
	s := newServer(t)

	resp := decode[SummaryResponse](t, get(t, s, "/api/summary"))
	assert.Equal(t, 6, resp.Table.Rows)
	require.NotNil(t, resp.Table.Price)
	assert.Equal(t, 9400.0, resp.Table.Price.Min)
	assert.Equal(t, 25500.0, resp.Table.Price.Max)
	assert.False(t, resp.View.Filtered)
	assert.Equal(t, "no filters", resp.Filters)

	resp = decode[SummaryResponse](t, get(t, s, "/api/summary?types=sedan"))
	assert.Equal(t, 1, resp.View.Rows)
	assert.True(t, resp.View.Filtered)
	require.NotNil(t, resp.View.Price)
	assert.Equal(t, 15000.0, resp.View.Price.Min)
}

func TestCharts(t *testing.T) {
	s := newServer(t)
	for _, path := range []string{"/charts/price-histogram.png", "/charts/odometer-price.png", "/charts/price-histogram.png?bins=3"} {
		rec := get(t, s, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")), path)
	}
	rec := get(t, s, "/charts/price-histogram.png?price_min=15000&price_max=15000")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, s, "/charts/price-histogram.png?types=").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/charts/price-histogram.png?bins=zero").Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	res, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	cancel()
	assert.NoError(t, <-done)
}
