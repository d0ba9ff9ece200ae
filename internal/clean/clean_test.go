package clean

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/carlot-cli/internal/dataset"
)

func readTable(t *testing.T, csv string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.Read(strings.NewReader(csv), "fixture.csv", dataset.DefaultLoadOptions())
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, tbl *dataset.Table, name string) []string {
	t.Helper()
	j, ok := tbl.Index(name)
	require.True(t, ok, "column %s", name)
	out := make([]string, tbl.Len())
	for i := range out {
		out[i] = tbl.Cell(i, j).Value
	}
	return out
}

func TestMedian(t *testing.T) {
	m, ok := Median([]float64{4, 1, 3, 2})
	require.True(t, ok)
	assert.Equal(t, 2.5, m)

	m, ok = Median([]float64{5, 1, 3})
	require.True(t, ok)
	assert.Equal(t, 3.0, m)

	_, ok = Median(nil)
	assert.False(t, ok)
}

func TestModeTieIsDeterministic(t *testing.T) {
	vals := []string{"red", "blue", "red", "blue"}
	first, ok := Mode(vals)
	require.True(t, ok)
	assert.Equal(t, "blue", first)
	for i := 0; i < 20; i++ {
		got, _ := Mode(vals)
		assert.Equal(t, first, got)
	}
}

const fixture = `price,model_year,model,cylinders,odometer,paint_color,is_4wd,type
10000,2010,X,4,1,red,1,suv
11000,2010,X,,2,blue,,suv
12000,2010,X,6,3,red,,sedan
13000,,Y,8,4,blue,1,pickup
14000,2012,Z,,,,,truck
`

func TestClean_FillsEveryImputedColumn(t *testing.T) {
	for _, policy := range []CylinderPolicy{CylindersGlobal, CylindersGrouped} {
		t.Run(string(policy), func(t *testing.T) {
			src := readTable(t, fixture)
			out, rep, err := Clean(src, Options{Cylinders: policy})
			require.NoError(t, err)

			for _, cc := range out.MissingCounts() {
				switch cc.Column {
				case dataset.ColModelYear, dataset.ColCylinders, dataset.ColOdometer, dataset.ColPaintColor, dataset.ColIs4WD:
					assert.Zero(t, cc.Count, "column %s", cc.Column)
				}
			}
			assert.Equal(t, out.MissingCounts(), rep.Missing)
		})
	}
}

func TestClean_DoesNotMutateSource(t *testing.T) {
	src := readTable(t, fixture)
	before := src.MissingCounts()
	_, _, err := Clean(src, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, before, src.MissingCounts())
}

func TestClean_MediansAndConstants(t *testing.T) {
	src := readTable(t, fixture)
	out, rep, err := Clean(src, Options{Cylinders: CylindersGlobal})
	require.NoError(t, err)

	// model_year observed [2010,2010,2010,2012] -> 2010
	assert.Equal(t, "2010", column(t, out, dataset.ColModelYear)[3])
	// odometer observed [1,2,3,4] -> 2.5
	assert.Equal(t, "2.5", column(t, out, dataset.ColOdometer)[4])
	// cylinders observed [4,6,8] -> 6
	cyl := column(t, out, dataset.ColCylinders)
	assert.Equal(t, "6", cyl[1])
	assert.Equal(t, "6", cyl[4])
	// paint_color red:2 blue:2 -> blue (smallest on tie)
	assert.Equal(t, "blue", column(t, out, dataset.ColPaintColor)[4])
	flags := column(t, out, dataset.ColIs4WD)
	assert.Equal(t, []string{"1", "0", "0", "1", "0"}, flags)

	assert.Equal(t, 1+2+1+1+3, rep.TotalFilled())
	assert.Zero(t, rep.GroupFallbacks)
}

func TestClean_GroupedCylinders(t *testing.T) {
	src := readTable(t, fixture)
	out, rep, err := Clean(src, DefaultOptions())
	require.NoError(t, err)

	cyl := column(t, out, dataset.ColCylinders)
	// (X, 2010) observed [4, 6] -> 5
	assert.Equal(t, "5", cyl[1])
	// (Z, 2012) has no observations -> global median of [4,6,8]
	assert.Equal(t, "6", cyl[4])
	assert.Equal(t, 1, rep.GroupFallbacks)

	var fill Fill
	for _, f := range rep.Fills {
		if f.Column == dataset.ColCylinders {
			fill = f
		}
	}
	assert.Equal(t, StrategyGroupedMedian, fill.Strategy)
	assert.Equal(t, 2, fill.Filled)
}

func TestClean_GroupKeyNormalizesYear(t *testing.T) {
	src := readTable(t, `price,model_year,model,cylinders,odometer,paint_color,is_4wd,type
1,2010.0,X,4,1,red,1,suv
2,2010,X,,1,red,1,suv
3,2011,Y,10,1,red,1,suv
`)
	out, _, err := Clean(src, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "4", column(t, out, dataset.ColCylinders)[1])
}

func TestClean_MissingYearUsesGlobalFallback(t *testing.T) {
	src := readTable(t, `price,model_year,model,cylinders,odometer,paint_color,is_4wd,type
1,2010,X,4,1,red,1,suv
2,,X,,1,red,1,suv
3,2011,Y,8,1,red,1,suv
`)
	out, rep, err := Clean(src, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "6", column(t, out, dataset.ColCylinders)[1])
	assert.Equal(t, 1, rep.GroupFallbacks)
}

func TestClean_SchemaErrors(t *testing.T) {
	t.Run("absent imputed column", func(t *testing.T) {
		src := readTable(t, "price,model_year,model,cylinders,odometer,is_4wd,type\n1,2010,X,4,1,1,suv\n")
		_, _, err := Clean(src, DefaultOptions())
		var se *dataset.SchemaError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, dataset.ColPaintColor, se.Column)
	})
	t.Run("model only required when grouped", func(t *testing.T) {
		src := readTable(t, "price,model_year,cylinders,odometer,paint_color,is_4wd,type\n1,2010,4,1,red,1,suv\n")
		_, _, err := Clean(src, DefaultOptions())
		var se *dataset.SchemaError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, dataset.ColModel, se.Column)

		_, _, err = Clean(src, Options{Cylinders: CylindersGlobal})
		require.NoError(t, err)
	})
	t.Run("nothing observed", func(t *testing.T) {
		src := readTable(t, "price,model_year,model,cylinders,odometer,paint_color,is_4wd,type\n1,2010,X,,1,red,1,suv\n")
		_, _, err := Clean(src, DefaultOptions())
		var se *dataset.SchemaError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, dataset.ColCylinders, se.Column)
	})
}

func TestClean_EmptyTable(t *testing.T) {
	src := readTable(t, "price,model_year,model,cylinders,odometer,paint_color,is_4wd,type\n")
	out, rep, err := Clean(src, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, out.Len())
	assert.Zero(t, rep.TotalFilled())
}

func TestLoadAndClean(t *testing.T) {
	p := filepath.Join(t.TempDir(), "vehicles_us.csv")
	require.NoError(t, os.WriteFile(p, []byte(fixture), 0o644))
	out, _, err := LoadAndClean(p, dataset.DefaultLoadOptions(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "vehicles_us.csv", out.Name)

	_, _, err = LoadAndClean(filepath.Join(t.TempDir(), "missing.csv"), dataset.DefaultLoadOptions(), DefaultOptions())
	var le *dataset.LoadError
	assert.True(t, errors.As(err, &le))
}

func TestParseCylinderPolicy(t *testing.T) {
	p, err := ParseCylinderPolicy("GLOBAL")
	require.NoError(t, err)
	assert.Equal(t, CylindersGlobal, p)
	p, err = ParseCylinderPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CylindersGrouped, p)
	_, err = ParseCylinderPolicy("mean")
	assert.Error(t, err)
}
