package getd

import (
	"context"
	"sync"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/global"
	"github.com/carusyte/stockpred/model"
	"golang.org/x/sync/errgroup"
)

var log = global.Log

//FetchAll fetches and saves the bars of each symbol concurrently.
//It returns the saved paths keyed by symbol and the first error, if any.
func FetchAll(ctx context.Context, symbols []string) (paths map[string]string, e error) {
	var mu sync.Mutex
	paths = make(map[string]string, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conf.Args.Concurrency)
	for _, s := range symbols {
		s := s
		g.Go(func() error {
			p, err := FetchAndSave(gctx, s)
			if err != nil {
				log.Errorf("%s price fetch failed: %+v", s, err)
				return err
			}
			mu.Lock()
			paths[s] = p
			mu.Unlock()
			return nil
		})
	}
	e = g.Wait()
	return
}

//AnalyseAll analyses each symbol concurrently. Symbols that fail are logged
//and left out of the result.
func AnalyseAll(ctx context.Context, symbols []string) (as []*Analysis) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conf.Args.Concurrency)
	for _, s := range symbols {
		s := s
		g.Go(func() error {
			a, err := Analyse(gctx, s, "")
			if err != nil {
				log.Errorf("%s analysis failed: %+v", s, err)
				return nil
			}
			mu.Lock()
			as = append(as, a)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	log.Printf("Finish:[%d]\tTotal:[%d]", len(as), len(symbols))
	return
}

//Stop logs the elapsed time of a stage and records it in the stats table.
func Stop(code string, start time.Time) {
	ss := start.Format("2006-01-02 15:04:05")
	end := time.Now().Format("2006-01-02 15:04:05")
	dur := time.Since(start).Seconds()
	log.Printf("%s Complete. Time Elapsed: %f sec", code, dur)
	dbmap, dot := global.DB()
	del, e := dot.Raw("DEL_STATS")
	if e != nil {
		log.Warnf("failed to load DEL_STATS: %+v", e)
		return
	}
	if _, e = dbmap.Exec(del, code); e != nil {
		log.Warnf("failed to clear stats of %s: %+v", code, e)
		return
	}
	if e = dbmap.Insert(&model.Stats{Code: code, Start: ss, End: end, Dur: dur}); e != nil {
		log.Warnf("failed to save stats of %s: %+v", code, e)
	}
}
