package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/fusion"
	"github.com/carusyte/stockpred/getd"
	"github.com/carusyte/stockpred/learn"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/report"
	"github.com/carusyte/stockpred/senti"
	"github.com/carusyte/stockpred/store"
	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
)

//pipeline runs the stages and hands their output files to the upload queue.
type pipeline struct {
	ctx context.Context
	q   *store.Queue
}

func newPipeline(ctx context.Context, upload bool) *pipeline {
	p := &pipeline{ctx: ctx}
	if !upload || conf.Args.Storage.Backend == conf.NONE {
		return p
	}
	q, e := store.Start(ctx)
	if e != nil {
		log.Warnf("uploads disabled: %+v", e)
		return p
	}
	p.q = q
	return p
}

//upload queues a dated file that is written once.
func (p *pipeline) upload(file, key string) {
	if p.q != nil {
		p.q.Submit(file, key)
	}
}

//replace queues a file rewritten under the same key on every run.
func (p *pipeline) replace(file, key string) {
	if p.q != nil {
		p.q.Replace(file, key)
	}
}

func (p *pipeline) close() {
	if p.q == nil {
		return
	}
	done, failed := p.q.Close()
	log.Printf("uploads finished: %d uploaded, %d failed", done, failed)
}

func (p *pipeline) fetch(symbols []string) error {
	defer getd.Stop("FETCH", time.Now())
	paths, e := getd.FetchAll(p.ctx, symbols)
	for s, path := range paths {
		log.Printf("%s bars saved to %s", s, path)
		p.replace(path, store.Key("Raw", path))
	}
	return e
}

func (p *pipeline) analyse(symbols []string, input string) (as []*getd.Analysis, e error) {
	defer getd.Stop("ANALYSE", time.Now())
	if input != "" {
		if len(symbols) != 1 {
			return nil, errors.New("--input needs exactly one symbol")
		}
		a, e := getd.Analyse(p.ctx, symbols[0], input)
		if e != nil {
			return nil, e
		}
		as = []*getd.Analysis{a}
	} else {
		as = getd.AnalyseAll(p.ctx, symbols)
	}
	for _, a := range as {
		fmt.Printf("\n%s fundamentals\n%s", a.Symbol, report.Fundamentals(a))
		fmt.Printf("%s signals\n%s", a.Symbol, report.Signals(a))
		p.replace(a.Path, store.Key("Analysed", a.Path))
	}
	if len(as) == 0 {
		return nil, errors.New("no symbol analysed")
	}
	return as, nil
}

//scrape collects today's headlines and returns the master headline file.
func (p *pipeline) scrape() (string, error) {
	defer getd.Stop("NEWS", time.Now())
	f, e := getd.ScrapeFeeds(p.ctx, conf.Args.News.RSSFeeds)
	if e != nil {
		return "", e
	}
	snap, e := getd.SaveSnapshot(f)
	if e != nil {
		return "", e
	}
	log.Printf("%d headlines saved to %s", f.Len(), snap)
	master := getd.MasterHeadlinePath()
	if _, e = getd.MergeHeadlines(master, f); e != nil {
		return "", e
	}
	p.upload(snap, fmt.Sprintf("Raw/%s_headlines.csv", util.Today()))
	return master, nil
}

func (p *pipeline) history(symbol string, days int, merge bool) (string, error) {
	defer getd.Stop("NEWS_HISTORY", time.Now())
	path, e := getd.FinnhubHistory(p.ctx, symbol, days, merge)
	if e != nil {
		return "", e
	}
	p.replace(path, store.Key("Raw", path))
	return path, nil
}

func (p *pipeline) sentiment(input string, master bool) (*senti.Result, error) {
	defer getd.Stop("SENTI", time.Now())
	if input == "" {
		input = getd.MasterHeadlinePath()
	}
	r, e := senti.Run(input, master)
	if e != nil {
		return nil, e
	}
	fmt.Printf("\n%s", report.Sentiment(r.Summary))
	util.CheckErrNop(senti.Record(r.Summary), "failed to record sentiment summary")
	p.upload(r.Scored, store.Key("Processed", r.Scored))
	p.upload(r.JSON, store.Key("Processed", r.JSON))
	if r.Master != "" {
		p.replace(r.Master, store.Key("Processed", r.Master))
	}
	return r, nil
}

func (p *pipeline) fuse(symbol, analysis, sentiment string, master bool) (string, error) {
	defer getd.Stop("FUSE", time.Now())
	if analysis == "" {
		analysis = getd.AnalysisPath(symbol)
	}
	if sentiment == "" {
		sentiment = senti.MasterPath()
	}
	path, e := fusion.Run(symbol, analysis, sentiment, master)
	if e != nil {
		return "", e
	}
	if master {
		p.replace(path, "Fused/fused_features.csv")
	} else {
		p.upload(path, store.Key("Fused", path))
	}
	return path, nil
}

func (p *pipeline) train(input string) (*learn.Artifact, error) {
	defer getd.Stop("TRAIN", time.Now())
	a, run, e := learn.Train(input)
	if e != nil {
		return nil, e
	}
	fmt.Printf("\n%s", report.TrainRuns([]*model.TrainRun{run}))
	util.CheckErrNop(learn.Record(run), "failed to record training run")
	p.replace(run.Path, store.Key("Model", run.Path))
	return a, nil
}

func (p *pipeline) predict(symbols []string) (ps []*model.Prediction, e error) {
	defer getd.Stop("PREDICT", time.Now())
	if len(symbols) == 0 {
		symbols = []string{""}
	}
	for _, s := range symbols {
		pr, err := learn.PredictLatest(s)
		if err != nil {
			log.Errorf("prediction for %q failed: %+v", s, err)
			e = err
			continue
		}
		util.CheckErrNop(learn.RecordPrediction(pr), "failed to record prediction")
		ps = append(ps, pr)
	}
	if len(ps) > 0 {
		fmt.Printf("\n%s", report.Predictions(ps))
	}
	return ps, e
}

//all runs every stage for the symbols. Training happens when forced or when
//no model has been saved yet.
func (p *pipeline) all(symbols []string, train bool) error {
	start := time.Now()
	defer getd.Stop("RUN", start)
	as, e := p.analyse(symbols, "")
	if e != nil {
		return e
	}
	if _, e = p.scrape(); e != nil {
		return e
	}
	r, e := p.sentiment("", true)
	if e != nil {
		return e
	}
	for _, a := range as {
		if _, e = p.fuse(a.Symbol, a.Path, r.Scored, true); e != nil {
			return e
		}
	}
	if !train {
		if _, err := os.Stat(conf.Args.ModelPath()); err != nil {
			log.Printf("no model found at %s, training a new one", conf.Args.ModelPath())
			train = true
		}
	}
	if train {
		if _, e = p.train(fusion.MasterPath()); e != nil {
			return e
		}
	}
	syms := make([]string, len(as))
	for i, a := range as {
		syms[i] = a.Symbol
	}
	_, e = p.predict(syms)
	log.Printf("pipeline finished in %.1fs, data under %s", time.Since(start).Seconds(), filepath.Clean(conf.Args.DataDir))
	return e
}
