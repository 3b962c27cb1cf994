package learn

import (
	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/global"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
)

//PredictLatest predicts today's close from the last row of the latest fused
//CSV, optionally restricted to files whose name contains symbol.
func PredictLatest(symbol string) (p *model.Prediction, e error) {
	path, e := LatestFused(symbol)
	if e != nil {
		return nil, e
	}
	log.Printf("Loading fused data: %s", path)
	f, e := model.ReadCSV(path)
	if e != nil {
		return nil, e
	}
	if f.Len() == 0 {
		return nil, errors.Errorf("no rows in %s", path)
	}
	a, e := Load(conf.Args.ModelPath())
	if e != nil {
		return nil, e
	}
	v, e := PredictFrame(a, f)
	if e != nil {
		return nil, errors.WithMessage(e, path)
	}
	d, t := util.TimeStr()
	name := symbol
	if name == "" {
		name = "single-stock"
	}
	log.Printf("[%s] Prediction for stock %s: %.2f", d, name, v)
	return &model.Prediction{
		Symbol: name,
		Date:   d,
		Model:  a.Kind,
		Value:  v,
		Source: path,
		Udate:  d,
		Utime:  t,
	}, nil
}

//PredictFrame predicts from the last row of f. Non-numeric cells count as 0.
func PredictFrame(a *Artifact, f *model.Frame) (float64, error) {
	x := f.Drop(PredictExcluded...)
	if miss := a.Missing(x.Has); len(miss) > 0 {
		return 0, errors.Errorf("Missing features in fused data: %v", miss)
	}
	last := Matrix(x.Select(a.Features...).Filter(func(i int) bool { return i == f.Len()-1 }))
	return a.Predict(last[0])
}

//RecordPrediction saves p, replacing an earlier prediction for the same symbol, date and model.
func RecordPrediction(p *model.Prediction) error {
	dbmap, dot := global.DB()
	del, e := dot.Raw("DEL_PREDICTION")
	if e != nil {
		return errors.WithStack(e)
	}
	if _, e = dbmap.Exec(del, p.Symbol, p.Date, p.Model); e != nil {
		return errors.Wrapf(e, "failed to clear prediction of %s", p.Symbol)
	}
	return errors.Wrapf(dbmap.Insert(p), "failed to save prediction of %s", p.Symbol)
}
