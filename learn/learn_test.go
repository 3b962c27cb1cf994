package learn

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/fusion"
	"github.com/carusyte/stockpred/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	dd, md, cpu := conf.Args.DataDir, conf.Args.Model, conf.Args.CPUUsageThreshold
	t.Cleanup(func() {
		conf.Args.DataDir = dd
		conf.Args.Model = md
		conf.Args.CPUUsageThreshold = cpu
	})
	conf.Args.DataDir = t.TempDir()
	conf.Args.Model.Dir = t.TempDir()
	conf.Args.CPUUsageThreshold = 0
}

func fused(n int) *model.Frame {
	f := model.NewFrame("Date", "a", "b", "Close", "Symbol")
	for i := 0; i < n; i++ {
		f.Append(fmt.Sprintf("2024-01-%02d", i+1), fmt.Sprint(i), fmt.Sprint(i%3), fmt.Sprint(2*i+i%3+1), "MSFT")
	}
	return f
}

func TestNewDataset(t *testing.T) {
	f := model.NewFrame("Date", "Unnamed: 0", "x", "y", "Close", "symbol")
	f.Append("2024-01-01", "0", "1", "abc", "", "MSFT")
	f.Append("2024-01-02", "1", "2", "3", "10", "MSFT")
	f.Append("2024-01-03", "2", "", "4", "", "MSFT")
	f.Append("2024-01-04", "3", "4", "5", "12", "MSFT")
	d, e := NewDataset(f)
	require.NoError(t, e)
	assert.Equal(t, []string{"x", "y"}, d.Features)
	assert.Equal(t, []float64{10, 10, 10, 12}, d.Y)
	assert.Equal(t, [][]float64{{1, 0}, {2, 3}, {0, 4}, {4, 5}}, d.X)

	_, e = NewDataset(model.NewFrame("Date", "x"))
	require.Error(t, e)
	assert.Contains(t, e.Error(), "target column 'Close' not found")

	g := model.NewFrame("x", "Close")
	g.Append("1", "n/a")
	_, e = NewDataset(g)
	assert.Error(t, e)

	h := model.NewFrame("Date", "Close")
	h.Append("2024-01-01", "1")
	_, e = NewDataset(h)
	assert.Error(t, e)
}

func TestSplit(t *testing.T) {
	tr, te, e := Split(10, 0.2, 42)
	require.NoError(t, e)
	assert.Len(t, te, 2)
	assert.Len(t, tr, 8)
	seen := map[int]bool{}
	for _, i := range append(append([]int{}, tr...), te...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	tr2, te2, _ := Split(10, 0.2, 42)
	assert.Equal(t, tr, tr2)
	assert.Equal(t, te, te2)

	tr, te, e = Split(2, 0.9, 1)
	require.NoError(t, e)
	assert.Len(t, tr, 1)
	assert.Len(t, te, 1)

	_, _, e = Split(1, 0.2, 42)
	assert.Error(t, e)
}

func TestEvaluate(t *testing.T) {
	m := Evaluate([]float64{1, 2, 3}, []float64{1, 2, 4})
	assert.InDelta(t, 1./3, m.MAE, 1e-9)
	assert.InDelta(t, 1./3, m.MSE, 1e-9)
	assert.InDelta(t, 33./42, m.R2, 1e-9)

	m = Evaluate([]float64{1}, []float64{2})
	assert.InDelta(t, 1, m.MAE, 1e-9)
	assert.True(t, math.IsNaN(m.R2))
}

func TestLinearFit(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 12; i++ {
		a, b := float64(i), float64((i*7)%5)
		x = append(x, []float64{a, b})
		y = append(y, 2*a-3*b+5)
	}
	l := NewLinear(1e-9)
	require.NoError(t, l.Fit(x, y))
	assert.InDelta(t, 2, l.Coef[0], 1e-6)
	assert.InDelta(t, -3, l.Coef[1], 1e-6)
	assert.InDelta(t, 5, l.Intercept, 1e-6)
	assert.InDelta(t, 2*20-3*1+5, l.Predict([]float64{20, 1}), 1e-5)

	assert.Error(t, NewLinear(0).Fit(nil, nil))
	assert.Error(t, NewLinear(0).Fit([][]float64{{}, {}}, []float64{1, 2}))
}

func TestBuildTree(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	y := []float64{0, 0, 0, 10, 10, 10}
	tree := BuildTree(x, y, []int{0, 1, 2, 3, 4, 5}, TreeParams{}, rand.New(rand.NewSource(1)))
	require.Len(t, tree.Nodes, 3)
	assert.False(t, tree.Nodes[0].Leaf)
	assert.Equal(t, 3.5, tree.Nodes[0].Threshold)
	assert.Equal(t, 0., tree.Predict([]float64{2}))
	assert.Equal(t, 0., tree.Predict([]float64{3.5}))
	assert.Equal(t, 10., tree.Predict([]float64{5}))

	stump := BuildTree(x, y, []int{0, 1, 2, 3, 4, 5}, TreeParams{MinSamplesLeaf: 4}, rand.New(rand.NewSource(1)))
	require.Len(t, stump.Nodes, 1)
	assert.Equal(t, 5., stump.Predict([]float64{1}))
}

func TestForestIndependentOfPoolSize(t *testing.T) {
	setup(t)
	c := conf.Args.Concurrency
	defer func() { conf.Args.Concurrency = c }()
	var x [][]float64
	var y []float64
	for i := 0; i < 30; i++ {
		x = append(x, []float64{float64(i), float64(i % 4)})
		y = append(y, float64(i*i%17))
	}
	conf.Args.Concurrency = 1
	f1 := NewForest(12, 42, TreeParams{MinSamplesLeaf: 1})
	require.NoError(t, f1.Fit(x, y))
	conf.Args.Concurrency = 4
	f2 := NewForest(12, 42, TreeParams{MinSamplesLeaf: 1})
	require.NoError(t, f2.Fit(x, y))
	for _, s := range x {
		assert.Equal(t, f1.Predict(s), f2.Predict(s))
	}
	assert.Error(t, NewForest(0, 42, TreeParams{}).Fit(x, y))
}

func TestArtifact(t *testing.T) {
	setup(t)
	a := &Artifact{Kind: conf.LINEAR, Features: []string{"a", "b"}, Linear: &Linear{Coef: []float64{1, 2}, Intercept: 3}}
	v, e := a.PredictMap(map[string]interface{}{"a": 1., "b": "2", "c": "ignored"})
	require.NoError(t, e)
	assert.Equal(t, 8., v)

	_, e = a.PredictMap(map[string]interface{}{"a": 1.})
	require.Error(t, e)
	assert.Contains(t, e.Error(), "b")

	_, e = a.PredictMap(map[string]interface{}{"a": 1., "b": "x"})
	assert.Error(t, e)

	_, e = a.Predict([]float64{1})
	require.Error(t, e)
	assert.Equal(t, "Expected 2 features, got 1.", e.Error())

	path := filepath.Join(conf.Args.Model.Dir, "m.gob.gz")
	require.NoError(t, a.Save(path))
	b, e := Load(path)
	require.NoError(t, e)
	assert.Equal(t, a.Features, b.Features)
	v, e = b.Predict([]float64{2, 2})
	require.NoError(t, e)
	assert.Equal(t, 9., v)

	_, e = Load(filepath.Join(conf.Args.Model.Dir, "absent"))
	assert.Error(t, e)
}

func TestTrainAndPredictLatest(t *testing.T) {
	setup(t)
	conf.Args.Model.Kind = conf.LINEAR
	conf.Args.Model.Ridge = 1e-9
	require.NoError(t, os.MkdirAll(fusion.Dir(), 0755))
	src := filepath.Join(fusion.Dir(), "MSFT_2024-01-20_fused.csv")
	require.NoError(t, fused(20).WriteCSV(src))

	a, run, e := Train("")
	require.NoError(t, e)
	assert.Equal(t, []string{"a", "b", "Symbol"}, a.Features)
	assert.Equal(t, conf.LINEAR, run.Model)
	assert.Equal(t, 20, run.Rows)
	assert.Equal(t, 3, run.Features)
	assert.Equal(t, src, run.Source)
	assert.InDelta(t, 0, run.MAE, 1e-4)
	assert.InDelta(t, 1, run.R2, 1e-4)
	assert.NotEmpty(t, run.RunID)
	_, e = os.Stat(conf.Args.ModelPath())
	require.NoError(t, e)

	p, e := PredictLatest("MSFT")
	require.NoError(t, e)
	assert.Equal(t, "MSFT", p.Symbol)
	assert.Equal(t, conf.LINEAR, p.Model)
	assert.InDelta(t, 2*19+1+1, p.Value, 1e-3)

	_, e = PredictLatest("AAPL")
	assert.Error(t, e)

	p, e = PredictLatest("")
	require.NoError(t, e)
	assert.Equal(t, "single-stock", p.Symbol)
}

func TestTrainForest(t *testing.T) {
	setup(t)
	conf.Args.Model.Kind = conf.FOREST
	conf.Args.Model.Trees = 10
	src := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, fused(30).WriteCSV(src))
	a, run, e := Train(src)
	require.NoError(t, e)
	assert.Len(t, a.Forest.Trees, 10)
	assert.Equal(t, conf.FOREST, run.Model)
	assert.Equal(t, 30, run.Rows)

	b, e := Load(conf.Args.ModelPath())
	require.NoError(t, e)
	f := fused(30)
	v1, e := PredictFrame(a, f)
	require.NoError(t, e)
	v2, e := PredictFrame(b, f)
	require.NoError(t, e)
	assert.Equal(t, v1, v2)

	_, e = PredictFrame(b, f.Drop("b"))
	require.Error(t, e)
	assert.Contains(t, e.Error(), "Missing features")
}

func TestTrainNoInput(t *testing.T) {
	setup(t)
	_, _, e := Train("")
	assert.Error(t, e)
}
