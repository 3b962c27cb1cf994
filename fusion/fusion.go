package fusion

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/global"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/util"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

var log = global.Log

//Daily is the sentiment aggregate of one publish date.
type Daily struct {
	Date  string
	Mean  float64
	Count int
}

//Dir holds fused feature files.
func Dir() string {
	return conf.Args.Path("fused")
}

//MasterPath is the accumulated fused feature file.
func MasterPath() string {
	return filepath.Join(Dir(), "fused_features.csv")
}

//Aggregate groups scored headlines by publish date. Rows whose date cannot be
//parsed are ignored; the count only includes numeric sentiment values.
func Aggregate(sent *model.Frame) (daily map[string]*Daily, e error) {
	for _, c := range []string{model.ColPublished, model.ColSentiment} {
		if !sent.Has(c) {
			return nil, errors.Errorf("sentiment data lacks column '%s'", c)
		}
	}
	groups := make(map[string][]float64)
	pub := sent.Strings(model.ColPublished)
	for i, v := range sent.Floats(model.ColSentiment) {
		d := util.LocalDate(pub[i])
		if d == "" {
			continue
		}
		if _, ok := groups[d]; !ok {
			groups[d] = nil
		}
		if !math.IsNaN(v) {
			groups[d] = append(groups[d], v)
		}
	}
	daily = make(map[string]*Daily, len(groups))
	for d, vals := range groups {
		dl := &Daily{Date: d, Count: len(vals)}
		if m, err := stats.Mean(vals); err == nil {
			dl.Mean = m
		}
		daily[d] = dl
	}
	return daily, nil
}

//Fuse left-joins daily sentiment onto the indicator rows by the date part of
//Date, taken in the offset the timestamp carries. Dates become plain dates, days without headlines get zero sentiment and
//every other empty cell is set to 0.
func Fuse(ind, sent *model.Frame) (f *model.Frame, e error) {
	if !ind.Has(model.ColDate) {
		return nil, errors.Errorf("indicator data lacks column '%s'", model.ColDate)
	}
	daily, e := Aggregate(sent)
	if e != nil {
		return nil, e
	}
	f = ind.Filter(func(int) bool { return true })
	n := f.Len()
	dates := f.Strings(model.ColDate)
	means, counts := make([]float64, n), make([]float64, n)
	matched := 0
	for i, raw := range dates {
		d := util.LocalDate(raw)
		if d == "" {
			continue
		}
		dates[i] = d
		if dl, ok := daily[d]; ok {
			means[i], counts[i] = dl.Mean, float64(dl.Count)
			matched++
		}
	}
	if e = f.SetStrings(model.ColDate, dates); e != nil {
		return nil, e
	}
	if e = f.SetFloats(model.ColMeanSentiment, means); e != nil {
		return nil, e
	}
	if e = f.SetFloats(model.ColSentimentCount, counts); e != nil {
		return nil, e
	}
	for _, c := range f.Columns() {
		vals := f.Strings(c)
		for i, v := range vals {
			if strings.TrimSpace(v) == "" {
				vals[i] = "0"
			}
		}
		if e = f.SetStrings(c, vals); e != nil {
			return nil, e
		}
	}
	log.Printf("%d of %d indicator rows matched %d days of sentiment", matched, n, len(daily))
	return f, nil
}

//MergeMaster appends fused rows to the master file. Rows sharing a Date (and
//Symbol, when present) keep the last occurrence.
func MergeMaster(path string, f *model.Frame) (merged *model.Frame, e error) {
	merged = f
	exists, e := util.FileExists(path)
	if e != nil {
		return nil, e
	}
	if exists {
		old, e := model.ReadCSV(path)
		if e != nil {
			return nil, e
		}
		merged = old.Concat(f)
	}
	keys := []string{model.ColDate}
	if merged.Has(model.ColSymbol) {
		keys = append(keys, model.ColSymbol)
	}
	merged = merged.Dedup(true, keys...)
	if e = merged.WriteCSV(path); e != nil {
		return nil, e
	}
	log.Printf("master fused file %s now holds %d rows", path, merged.Len())
	return merged, nil
}

//Run fuses the analysis table with the scored headlines and writes the
//result under Dir, named after symbol and today's date. In master mode the
//rows are merged into MasterPath as well. The path of the master file, or
//of the dated file otherwise, is returned.
func Run(symbol, analysis, sentiment string, master bool) (path string, e error) {
	ind, e := model.ReadCSV(analysis)
	if e != nil {
		return "", e
	}
	sent, e := model.ReadCSV(sentiment)
	if e != nil {
		return "", e
	}
	f, e := Fuse(ind, sent)
	if e != nil {
		return "", e
	}
	path = filepath.Join(Dir(), fmt.Sprintf("%s_%s_fused.csv", strings.ToUpper(symbol), util.Today()))
	if e = f.WriteCSV(path); e != nil {
		return "", e
	}
	log.Printf("Feature fusion complete. File saved at: %s", path)
	if master {
		if _, e = MergeMaster(MasterPath(), f); e != nil {
			return "", e
		}
		path = MasterPath()
	}
	return path, nil
}
