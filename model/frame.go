package model

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//Frame is a column-ordered table of string cells read from or written to CSV.
//Numeric access treats empty or unparsable cells as NaN.
type Frame struct {
	cols []string
	idx  map[string]int
	rows [][]string
}

//NewFrame creates an empty frame with the given columns.
func NewFrame(cols ...string) *Frame {
	f := &Frame{}
	for _, c := range cols {
		f.addCol(c)
	}
	return f
}

func (f *Frame) addCol(c string) int {
	if f.idx == nil {
		f.idx = make(map[string]int)
	}
	if i, ok := f.idx[c]; ok {
		return i
	}
	f.cols = append(f.cols, c)
	f.idx[c] = len(f.cols) - 1
	for i := range f.rows {
		f.rows[i] = append(f.rows[i], "")
	}
	return len(f.cols) - 1
}

//Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

//Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

//Has reports whether the column exists.
func (f *Frame) Has(col string) bool {
	_, ok := f.idx[col]
	return ok
}

//Col returns the position of the column, or -1.
func (f *Frame) Col(col string) int {
	if i, ok := f.idx[col]; ok {
		return i
	}
	return -1
}

//Append adds a row. Short rows are padded with empty cells, long rows are rejected.
func (f *Frame) Append(vals ...string) error {
	if len(vals) > len(f.cols) {
		return errors.Errorf("row has %d cells but frame has %d columns", len(vals), len(f.cols))
	}
	r := make([]string, len(f.cols))
	copy(r, vals)
	f.rows = append(f.rows, r)
	return nil
}

//AppendMap adds a row from column/value pairs, ignoring unknown columns.
func (f *Frame) AppendMap(vals map[string]string) {
	r := make([]string, len(f.cols))
	for k, v := range vals {
		if i, ok := f.idx[k]; ok {
			r[i] = v
		}
	}
	f.rows = append(f.rows, r)
}

//Row returns a copy of row i.
func (f *Frame) Row(i int) []string {
	return append([]string(nil), f.rows[i]...)
}

//Get returns the cell at row i of col, or "" when the column is absent.
func (f *Frame) Get(i int, col string) string {
	c, ok := f.idx[col]
	if !ok {
		return ""
	}
	return f.rows[i][c]
}

//Set writes a cell, adding the column when absent.
func (f *Frame) Set(i int, col, v string) {
	c := f.addCol(col)
	f.rows[i][c] = v
}

//Strings returns the cells of a column, or nil when the column is absent.
func (f *Frame) Strings(col string) []string {
	c, ok := f.idx[col]
	if !ok {
		return nil
	}
	r := make([]string, len(f.rows))
	for i, row := range f.rows {
		r[i] = row[c]
	}
	return r
}

//Floats returns a column parsed as numbers, or nil when the column is absent.
func (f *Frame) Floats(col string) []float64 {
	c, ok := f.idx[col]
	if !ok {
		return nil
	}
	r := make([]float64, len(f.rows))
	for i, row := range f.rows {
		r[i] = ParseFloat(row[c])
	}
	return r
}

//SetStrings replaces or adds a column. vals must have one entry per row.
func (f *Frame) SetStrings(col string, vals []string) error {
	if len(vals) != len(f.rows) {
		return errors.Errorf("column %s has %d values but frame has %d rows", col, len(vals), len(f.rows))
	}
	c := f.addCol(col)
	for i, v := range vals {
		f.rows[i][c] = v
	}
	return nil
}

//SetFloats replaces or adds a numeric column. NaN is written as an empty cell.
func (f *Frame) SetFloats(col string, vals []float64) error {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = FormatFloat(v)
	}
	return f.SetStrings(col, s)
}

//Rename changes a column name. Renaming onto an existing column is an error.
func (f *Frame) Rename(from, to string) error {
	c, ok := f.idx[from]
	if !ok {
		return errors.Errorf("column %s not found", from)
	}
	if _, dup := f.idx[to]; dup && from != to {
		return errors.Errorf("column %s already exists", to)
	}
	delete(f.idx, from)
	f.cols[c] = to
	f.idx[to] = c
	return nil
}

//Drop returns a new frame without the given columns. Absent columns are ignored.
func (f *Frame) Drop(cols ...string) *Frame {
	skip := make(map[string]bool, len(cols))
	for _, c := range cols {
		skip[c] = true
	}
	var keep []string
	for _, c := range f.cols {
		if !skip[c] {
			keep = append(keep, c)
		}
	}
	return f.Select(keep...)
}

//Select returns a new frame with the given columns in the given order.
//Absent columns come out empty.
func (f *Frame) Select(cols ...string) *Frame {
	n := NewFrame(cols...)
	for _, row := range f.rows {
		r := make([]string, len(n.cols))
		for i, c := range n.cols {
			if j, ok := f.idx[c]; ok {
				r[i] = row[j]
			}
		}
		n.rows = append(n.rows, r)
	}
	return n
}

//Filter returns a new frame holding the rows for which keep returns true.
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	n := NewFrame(f.cols...)
	for i, row := range f.rows {
		if keep(i) {
			n.rows = append(n.rows, append([]string(nil), row...))
		}
	}
	return n
}

//Concat stacks o under f. The result has f's columns followed by
//columns only found in o; missing cells are empty.
func (f *Frame) Concat(o *Frame) *Frame {
	n := NewFrame(f.cols...)
	for _, c := range o.cols {
		n.addCol(c)
	}
	for _, src := range []*Frame{f, o} {
		for _, row := range src.rows {
			r := make([]string, len(n.cols))
			for j, c := range src.cols {
				r[n.idx[c]] = row[j]
			}
			n.rows = append(n.rows, r)
		}
	}
	return n
}

//Dedup removes rows sharing the same values on keys, keeping the first or
//the last occurrence. Surviving rows keep their relative order.
func (f *Frame) Dedup(keepLast bool, keys ...string) *Frame {
	key := func(row []string) string {
		parts := make([]string, len(keys))
		for i, k := range keys {
			if c, ok := f.idx[k]; ok {
				parts[i] = row[c]
			}
		}
		return strings.Join(parts, "\x1f")
	}
	winner := make(map[string]int, len(f.rows))
	for i, row := range f.rows {
		k := key(row)
		if _, seen := winner[k]; !seen || keepLast {
			winner[k] = i
		}
	}
	return f.Filter(func(i int) bool {
		return winner[key(f.rows[i])] == i
	})
}

//SortBy returns a new frame stably sorted on a column by string comparison.
func (f *Frame) SortBy(col string, desc bool) *Frame {
	n := f.Filter(func(int) bool { return true })
	c, ok := n.idx[col]
	if !ok {
		return n
	}
	sort.SliceStable(n.rows, func(i, j int) bool {
		if desc {
			return n.rows[i][c] > n.rows[j][c]
		}
		return n.rows[i][c] < n.rows[j][c]
	})
	return n
}

//Parse parses CSV with a header line.
func Parse(r io.Reader) (*Frame, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = -1
	recs, e := rd.ReadAll()
	if e != nil {
		return nil, errors.WithStack(e)
	}
	if len(recs) == 0 {
		return NewFrame(), nil
	}
	hd := recs[0]
	if len(hd) > 0 {
		hd[0] = strings.TrimPrefix(hd[0], "\ufeff")
	}
	f := NewFrame(hd...)
	if len(f.cols) != len(hd) {
		return nil, errors.Errorf("duplicate column names in header: %v", hd)
	}
	for i, rec := range recs[1:] {
		if e := f.Append(rec...); e != nil {
			return nil, errors.WithMessagef(e, "line %d", i+2)
		}
	}
	return f, nil
}

//ReadCSV loads a CSV file.
func ReadCSV(path string) (*Frame, error) {
	file, e := os.Open(path)
	if e != nil {
		return nil, errors.WithStack(e)
	}
	defer file.Close()
	f, e := Parse(file)
	if e != nil {
		return nil, errors.WithMessage(e, path)
	}
	return f, nil
}

//Write writes the frame as CSV with a header line.
func (f *Frame) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if e := cw.Write(f.cols); e != nil {
		return errors.WithStack(e)
	}
	if e := cw.WriteAll(f.rows); e != nil {
		return errors.WithStack(e)
	}
	return nil
}

//WriteCSV writes the frame to path through a temporary file, creating parent directories.
func (f *Frame) WriteCSV(path string) (e error) {
	if e = os.MkdirAll(filepath.Dir(path), 0755); e != nil {
		return errors.WithStack(e)
	}
	tmp := path + ".tmp"
	file, e := os.Create(tmp)
	if e != nil {
		return errors.WithStack(e)
	}
	if e = f.Write(file); e != nil {
		file.Close()
		os.Remove(tmp)
		return e
	}
	if e = file.Close(); e != nil {
		os.Remove(tmp)
		return errors.WithStack(e)
	}
	return errors.WithStack(os.Rename(tmp, path))
}

//ParseFloat converts a cell to a number, returning NaN for empty or invalid cells.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, e := strconv.ParseFloat(s, 64)
	if e != nil {
		return math.NaN()
	}
	return v
}

//FormatFloat renders a number as a cell, NaN as an empty cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
