package learn

import (
	"math"
	"regexp"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/fusion"
	"github.com/carusyte/stockpred/global"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

//LatestFused returns the most recently modified fused CSV whose name contains filter.
func LatestFused(filter string) (string, error) {
	pattern := `\.csv$`
	if filter != "" {
		pattern = regexp.QuoteMeta(filter) + `.*\.csv$`
	}
	p, e := util.LatestFile(fusion.Dir(), pattern)
	if e != nil {
		return "", e
	}
	if p == "" {
		return "", errors.Errorf("No fused CSV files found in %s", fusion.Dir())
	}
	return p, nil
}

func newModel() (fit func(x [][]float64, y []float64) error, a *Artifact) {
	m := conf.Args.Model
	a = &Artifact{Kind: m.Kind}
	switch m.Kind {
	case conf.LINEAR:
		a.Linear = NewLinear(m.Ridge)
		return a.Linear.Fit, a
	default:
		a.Kind = conf.FOREST
		a.Forest = NewForest(m.Trees, m.Seed, TreeParams{
			MaxDepth:       m.MaxDepth,
			MinSamplesLeaf: m.MinSamplesLeaf,
			MaxFeatures:    m.MaxFeatures,
		})
		return a.Forest.Fit, a
	}
}

//Train fits the configured model on the fused CSV at input, or on the latest
//fused CSV when input is empty, and saves the artifact to conf.Args.ModelPath().
func Train(input string) (a *Artifact, run *model.TrainRun, e error) {
	if input == "" {
		if input, e = LatestFused(""); e != nil {
			return nil, nil, e
		}
	}
	log.Printf("Loading data from: %s", input)
	f, e := model.ReadCSV(input)
	if e != nil {
		return nil, nil, e
	}
	ds, e := NewDataset(f)
	if e != nil {
		return nil, nil, errors.WithMessage(e, input)
	}
	tr, te, e := Split(len(ds.Y), conf.Args.Model.TestSize, conf.Args.Model.Seed)
	if e != nil {
		return nil, nil, e
	}
	xtr, ytr := ds.Subset(tr)
	xte, yte := ds.Subset(te)

	fit, a := newModel()
	if e = fit(xtr, ytr); e != nil {
		return nil, nil, errors.WithMessagef(e, "failed to train %s model", a.Kind)
	}
	a.Features = ds.Features
	a.Source = input
	a.RunID = uuid.NewV1().String()
	a.TrainedAt = time.Now().Format(util.DateTimeFormat)

	pred := make([]float64, len(xte))
	for i, x := range xte {
		if pred[i], e = a.Predict(x); e != nil {
			return nil, nil, e
		}
	}
	a.Metrics = Evaluate(pred, yte)
	log.Printf("MAE: %.4f", a.Metrics.MAE)
	log.Printf("R²: %.4f", a.Metrics.R2)
	log.Printf("Model trained successfully. MSE: %.4f", a.Metrics.MSE)

	path := conf.Args.ModelPath()
	if e = a.Save(path); e != nil {
		return nil, nil, e
	}
	log.Printf("Features expected by the model (%d): %v", len(a.Features), a.Features)
	log.Printf("Model saved at: %s", path)

	d, t := util.TimeStr()
	run = &model.TrainRun{
		RunID:    a.RunID,
		Model:    a.Kind,
		Source:   input,
		Rows:     len(ds.Y),
		Features: len(a.Features),
		MAE:      a.Metrics.MAE,
		MSE:      a.Metrics.MSE,
		R2:       finite(a.Metrics.R2),
		Path:     path,
		Udate:    d,
		Utime:    t,
	}
	return a, run, nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

//Record saves the training run in the train_run table.
func Record(run *model.TrainRun) error {
	dbmap, _ := global.DB()
	return errors.Wrapf(dbmap.Insert(run), "failed to save training run %s", run.RunID)
}
