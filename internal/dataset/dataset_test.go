package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingsCSV = `price,model_year,model,condition,cylinders,fuel,odometer,transmission,type,paint_color,is_4wd,date_posted,days_listed
9400,2011,bmw x5,good,6,gas,145000,automatic,SUV,,1.0,2018-06-23,19
25500,,ford f-150,good,6,gas,88705,automatic,pickup,white,1.0,2018-10-19,50
5500,2013,hyundai sonata,like new,4,gas,110000,automatic,sedan,red,,2019-02-07,79
1500,2003,ford f-150,fair,8,gas,,automatic,pickup,NaN,,2019-03-22,9
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_ParsesHeaderAndMissingCells(t *testing.T) {
	p := writeFile(t, "vehicles_us.csv", listingsCSV)

	tbl, err := Load(p, DefaultLoadOptions())
	require.NoError(t, err)

	assert.Equal(t, "vehicles_us.csv", tbl.Name)
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, 13, tbl.NumColumns())

	pc, ok := tbl.Index(ColPaintColor)
	require.True(t, ok)
	assert.False(t, tbl.Cell(0, pc).Valid, "empty field is missing")
	assert.False(t, tbl.Cell(3, pc).Valid, "NaN token is missing")
	assert.Equal(t, Text("white"), tbl.Cell(1, pc))

	price, _ := tbl.Index(ColPrice)
	assert.Equal(t, KindNumeric, tbl.Kind(price))
	assert.Equal(t, KindText, tbl.Kind(pc))

	v, ok := tbl.Float(0, price)
	require.True(t, ok)
	assert.Equal(t, 9400.0, v)
}

func TestLoad_MissingCounts(t *testing.T) {
	p := writeFile(t, "vehicles_us.csv", listingsCSV)
	tbl, err := Load(p, DefaultLoadOptions())
	require.NoError(t, err)

	got := map[string]int{}
	for _, cc := range tbl.MissingCounts() {
		got[cc.Column] = cc.Count
	}
	assert.Equal(t, 1, got[ColModelYear])
	assert.Equal(t, 1, got[ColOdometer])
	assert.Equal(t, 2, got[ColPaintColor])
	assert.Equal(t, 2, got[ColIs4WD])
	assert.Equal(t, 0, got[ColPrice])
}

func TestLoad_FlagSpellingsNormalized(t *testing.T) {
	tbl, err := Read(strings.NewReader("price,is_4wd\n1,True\n2,no\n3,1\n"), "flags", DefaultLoadOptions())
	require.NoError(t, err)
	j, _ := tbl.Index(ColIs4WD)
	assert.Equal(t, "1", tbl.Cell(0, j).Value)
	assert.Equal(t, "0", tbl.Cell(1, j).Value)
	assert.Equal(t, "1", tbl.Cell(2, j).Value)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), DefaultLoadOptions())
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
	t.Run("ragged row fails whole load", func(t *testing.T) {
		p := writeFile(t, "bad.csv", "price,type\n100,suv\n200\n")
		_, err := Load(p, DefaultLoadOptions())
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, 3, le.Line)
	})
	t.Run("non numeric price", func(t *testing.T) {
		p := writeFile(t, "bad.csv", "price,type\n100,suv\nabc,sedan\n")
		_, err := Load(p, DefaultLoadOptions())
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, ColPrice, le.Column)
		assert.Equal(t, 3, le.Line)
		assert.Contains(t, err.Error(), `column "price"`)
	})
	t.Run("non finite odometer", func(t *testing.T) {
		opt := LoadOptions{NullTokens: []string{"NA"}}
		for _, v := range []string{"NaN", "Inf", "-inf"} {
			p := writeFile(t, "inf.csv", "price,odometer\n100,5000\n200,"+v+"\n")
			_, err := Load(p, opt)
			var le *LoadError
			require.True(t, errors.As(err, &le), v)
			assert.Equal(t, ColOdometer, le.Column)
			assert.Equal(t, 3, le.Line)
		}
	})
	t.Run("empty file", func(t *testing.T) {
		p := writeFile(t, "empty.csv", "")
		_, err := Load(p, DefaultLoadOptions())
		var le *LoadError
		require.True(t, errors.As(err, &le))
	})
	t.Run("duplicate header", func(t *testing.T) {
		p := writeFile(t, "dup.csv", "price,price\n1,2\n")
		_, err := Load(p, DefaultLoadOptions())
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, ColPrice, le.Column)
	})
}

func TestLoad_TSVSniffed(t *testing.T) {
	p := writeFile(t, "listings.tsv", "price\ttype\n100\tsuv\n")
	tbl, err := Load(p, DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"price", "type"}, tbl.Columns())
}

func TestRequire(t *testing.T) {
	tbl := New("t", []string{"price"}, nil)
	require.NoError(t, tbl.Require(ColPrice))
	err := tbl.Require(ColPrice, ColType)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ColType, se.Column)
}

func TestSubsetSharesRowsAndKeepsOrder(t *testing.T) {
	tbl := New("t", []string{"price", "type"}, [][]Cell{
		{Text("1"), Text("a")},
		{Text("2"), Text("b")},
		{Text("3"), Text("c")},
	})
	sub := tbl.Subset([]int{2, 0})
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, []string{"3", "c"}, sub.Strings(0))
	assert.Equal(t, []string{"1", "a"}, sub.Strings(1))
	assert.Equal(t, 3, tbl.Head(10).Len())
	assert.Equal(t, 1, tbl.Head(1).Len())
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := New("t", []string{"paint_color"}, [][]Cell{{Missing}})
	c := tbl.Clone()
	c.Set(0, 0, Text("red"))
	assert.False(t, tbl.Cell(0, 0).Valid)
	assert.True(t, c.Cell(0, 0).Valid)
}

func TestExportRoundTrip(t *testing.T) {
	p := writeFile(t, "vehicles_us.csv", listingsCSV)
	tbl, err := Load(p, DefaultLoadOptions())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "cleaned_vehicles_us.csv")
	require.NoError(t, Export(tbl, out, 0))

	back, err := Load(out, DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns(), back.Columns())
	require.Equal(t, tbl.Len(), back.Len())
	for i := 0; i < tbl.Len(); i++ {
		assert.Equal(t, tbl.Strings(i), back.Strings(i))
	}
}

func TestWriteSemicolon(t *testing.T) {
	tbl := New("t", []string{"price", "type"}, [][]Cell{{Number(15000), Missing}})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tbl, ';'))
	assert.Equal(t, "price;type\n15000;\n", buf.String())
}

func TestDistinct(t *testing.T) {
	tbl := New("t", []string{"type"}, [][]Cell{{Text("suv")}, {Text("sedan")}, {Text("suv")}, {Missing}})
	assert.Equal(t, []string{"sedan", "suv"}, tbl.Distinct(ColType))
	assert.Nil(t, tbl.Distinct("nope"))
}

func TestParseDelimiter(t *testing.T) {
	d, err := ParseDelimiter("tab")
	require.NoError(t, err)
	assert.Equal(t, '\t', d)
	_, err = ParseDelimiter("|")
	assert.Error(t, err)
}
