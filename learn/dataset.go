package learn

import (
	"math"
	"math/rand"
	"sort"

	"github.com/carusyte/stockpred/model"
	"github.com/pkg/errors"
)

var (
	//TrainExcluded lists the columns never used as training features.
	TrainExcluded = []string{"Date", "symbol", "Name", "Company", "Ticker", "Unnamed: 0", model.ColClose}
	//PredictExcluded lists the columns dropped from a prediction row.
	PredictExcluded = []string{"Date", "Name", "Company", "Ticker", "Unnamed: 0", model.ColClose}
)

//Dataset is a numeric feature matrix with its target.
type Dataset struct {
	Features []string
	X        [][]float64
	Y        []float64
}

//NewDataset extracts features and the Close target from a fused frame.
//Missing targets are forward then backward filled; non-numeric feature cells become 0.
func NewDataset(f *model.Frame) (*Dataset, error) {
	if !f.Has(model.ColClose) {
		return nil, errors.Errorf("target column '%s' not found", model.ColClose)
	}
	y := fillGaps(f.Floats(model.ColClose))
	for _, v := range y {
		if math.IsNaN(v) {
			return nil, errors.Errorf("target column '%s' has no numeric values", model.ColClose)
		}
	}
	fs := f.Drop(TrainExcluded...)
	if len(fs.Columns()) == 0 {
		return nil, errors.New("no feature columns found")
	}
	return &Dataset{Features: fs.Columns(), X: Matrix(fs), Y: y}, nil
}

//Matrix converts every cell of f to a number, with 0 for non-numeric cells.
func Matrix(f *model.Frame) [][]float64 {
	cols := f.Columns()
	x := make([][]float64, f.Len())
	for i := range x {
		x[i] = make([]float64, len(cols))
	}
	for j, c := range cols {
		for i, v := range f.Floats(c) {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				x[i][j] = v
			}
		}
	}
	return x
}

func fillGaps(v []float64) []float64 {
	r := append([]float64(nil), v...)
	last := math.NaN()
	for i := range r {
		if math.IsNaN(r[i]) {
			r[i] = last
		} else {
			last = r[i]
		}
	}
	next := math.NaN()
	for i := len(r) - 1; i >= 0; i-- {
		if math.IsNaN(r[i]) {
			r[i] = next
		} else {
			next = r[i]
		}
	}
	return r
}

//Split shuffles the row indices with seed and holds out ceil(n*testSize) of
//them for testing, keeping at least one row on each side.
func Split(n int, testSize float64, seed int64) (train, test []int, e error) {
	if n < 2 {
		return nil, nil, errors.Errorf("need at least 2 rows to train, got %d", n)
	}
	nt := int(math.Ceil(float64(n) * testSize))
	if nt < 1 {
		nt = 1
	}
	if nt > n-1 {
		nt = n - 1
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = append(test, perm[:nt]...)
	train = append(train, perm[nt:]...)
	sort.Ints(test)
	sort.Ints(train)
	return
}

//Subset picks the rows at idx.
func (d *Dataset) Subset(idx []int) (x [][]float64, y []float64) {
	x = make([][]float64, len(idx))
	y = make([]float64, len(idx))
	for i, k := range idx {
		x[i], y[i] = d.X[k], d.Y[k]
	}
	return
}
