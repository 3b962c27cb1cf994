package model

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndNumericAccess(t *testing.T) {
	f, e := Parse(strings.NewReader("\ufeffDate,Close,Name\n2024-01-02,10.5,a\n2024-01-03,,b\n2024-01-04,x,c\n"))
	require.NoError(t, e)
	assert.Equal(t, []string{"Date", "Close", "Name"}, f.Columns())
	assert.Equal(t, 3, f.Len())
	c := f.Floats("Close")
	assert.Equal(t, 10.5, c[0])
	assert.True(t, math.IsNaN(c[1]))
	assert.True(t, math.IsNaN(c[2]))
	assert.Nil(t, f.Floats("Open"))
	assert.Equal(t, "", f.Get(0, "Open"))
}

func TestConcatUnionsColumns(t *testing.T) {
	a := NewFrame("Date", "A")
	require.NoError(t, a.Append("d1", "1"))
	b := NewFrame("B", "Date")
	require.NoError(t, b.Append("2", "d2"))

	c := a.Concat(b)
	assert.Equal(t, []string{"Date", "A", "B"}, c.Columns())
	assert.Equal(t, []string{"d1", "1", ""}, c.Row(0))
	assert.Equal(t, []string{"d2", "", "2"}, c.Row(1))
}

func TestDedupKeepFirstAndLast(t *testing.T) {
	f := NewFrame("k", "v")
	for _, r := range [][]string{{"a", "1"}, {"b", "2"}, {"a", "3"}, {"c", "4"}, {"b", "5"}} {
		require.NoError(t, f.Append(r...))
	}

	first := f.Dedup(false, "k")
	assert.Equal(t, []string{"1", "2", "4"}, first.Strings("v"))

	last := f.Dedup(true, "k")
	assert.Equal(t, []string{"3", "4", "5"}, last.Strings("v"))
}

func TestSortByIsStable(t *testing.T) {
	f := NewFrame("d", "v")
	for _, r := range [][]string{{"2024-01-01", "a"}, {"2024-01-03", "b"}, {"2024-01-01", "c"}} {
		require.NoError(t, f.Append(r...))
	}
	s := f.SortBy("d", true)
	assert.Equal(t, []string{"b", "a", "c"}, s.Strings("v"))
	// original untouched
	assert.Equal(t, []string{"a", "b", "c"}, f.Strings("v"))
}

func TestSetFloatsAndDrop(t *testing.T) {
	f := NewFrame("x")
	require.NoError(t, f.Append("1"))
	require.NoError(t, f.Append("2"))
	require.NoError(t, f.SetFloats("y", []float64{math.NaN(), 0.25}))
	assert.Equal(t, []string{"", "0.25"}, f.Strings("y"))
	assert.Error(t, f.SetFloats("z", []float64{1}))

	d := f.Drop("x", "missing")
	assert.Equal(t, []string{"y"}, d.Columns())
	assert.Error(t, f.Append("1", "2", "3"))
}

func TestWriteAndReadCSV(t *testing.T) {
	f := NewFrame("title", "published")
	require.NoError(t, f.Append(`Stocks "rally", again`, "2024-05-01"))
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, f.WriteCSV(path))

	g, e := ReadCSV(path)
	require.NoError(t, e)
	assert.Equal(t, f.Columns(), g.Columns())
	assert.Equal(t, `Stocks "rally", again`, g.Get(0, "title"))
}

func TestRename(t *testing.T) {
	f := NewFrame("a", "b")
	require.NoError(t, f.Rename("a", "c"))
	assert.True(t, f.Has("c"))
	assert.False(t, f.Has("a"))
	assert.Error(t, f.Rename("c", "b"))
	assert.Error(t, f.Rename("zz", "y"))
}
