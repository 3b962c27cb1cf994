package learn

import (
	"math/rand"
	"sync"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/global"
	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
)

//Forest is a bagged ensemble of regression trees. Its prediction is the mean
//of the tree predictions.
type Forest struct {
	Trees  []*Tree
	Params TreeParams
	NTrees int
	Seed   int64
}

//NewForest creates an unfitted forest.
func NewForest(ntrees int, seed int64, p TreeParams) *Forest {
	return &Forest{NTrees: ntrees, Seed: seed, Params: p}
}

type treeJob struct {
	n    int
	seed int64
}

//Fit grows the trees on bootstrap samples. Trees are built by a pool of
//conf.Args.Concurrency workers, each waiting while cpu usage is above
//conf.Args.CPUUsageThreshold. Results do not depend on the pool size.
func (f *Forest) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.Errorf("invalid training data: %d samples, %d targets", len(x), len(y))
	}
	if f.NTrees < 1 {
		return errors.Errorf("invalid number of trees: %d", f.NTrees)
	}
	f.Trees = make([]*Tree, f.NTrees)
	master := rand.New(rand.NewSource(f.Seed))
	jobs := make(chan treeJob, global.JOB_CAPACITY)
	workers := conf.Args.Concurrency
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go f.build(x, y, jobs, &wg)
	}
	for i := 0; i < f.NTrees; i++ {
		jobs <- treeJob{n: i, seed: master.Int63()}
	}
	close(jobs)
	wg.Wait()
	log.Debugf("%d trees grown on %d samples", f.NTrees, len(x))
	return nil
}

func (f *Forest) build(x [][]float64, y []float64, jobs <-chan treeJob, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		util.WaitCPU(conf.Args.CPUUsageThreshold, 500*time.Millisecond, 10*time.Second)
		rng := rand.New(rand.NewSource(j.seed))
		idx := make([]int, len(x))
		for i := range idx {
			idx[i] = rng.Intn(len(x))
		}
		f.Trees[j.n] = BuildTree(x, y, idx, f.Params, rng)
	}
}

//Predict averages the tree predictions for one sample.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	s := 0.
	for _, t := range f.Trees {
		s += t.Predict(x)
	}
	return s / float64(len(f.Trees))
}
