package senti

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/global"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/util"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

var log = global.Log

//ProcessedDir holds scored headline files and summaries.
func ProcessedDir() string {
	return conf.Args.Path("news", "processed")
}

//MasterPath is the accumulated scored headline file.
func MasterPath() string {
	return filepath.Join(ProcessedDir(), "master_sentiment.csv")
}

//ScoreFrame scores every title of f and returns a copy with sentiment,
//sentiment_label and subjectivity columns, keeping the first row of each title.
//A missing published column is filled with today's date; published values
//are reduced to dates, unparseable ones become empty.
func (s *Scorer) ScoreFrame(f *model.Frame) (r *model.Frame, e error) {
	if !f.Has(model.ColTitle) {
		return nil, errors.Errorf("expected '%s' column in headline data", model.ColTitle)
	}
	r = f.Filter(func(int) bool { return true })
	today := util.Today()
	pub := make([]string, r.Len())
	for i := range pub {
		if f.Has(model.ColPublished) {
			pub[i] = util.DatePart(r.Get(i, model.ColPublished))
		} else {
			pub[i] = today
		}
	}
	if e = r.SetStrings(model.ColPublished, pub); e != nil {
		return nil, e
	}
	sent := make([]float64, r.Len())
	subj := make([]float64, r.Len())
	labels := make([]string, r.Len())
	for i := 0; i < r.Len(); i++ {
		sh := s.Score(model.Headline{Title: r.Get(i, model.ColTitle)})
		sent[i], subj[i], labels[i] = sh.Sentiment, sh.Subjectivity, sh.Label
	}
	if e = r.SetFloats(model.ColSentiment, sent); e != nil {
		return nil, e
	}
	if e = r.SetStrings(model.ColSentimentLabel, labels); e != nil {
		return nil, e
	}
	if e = r.SetFloats(model.ColSubjectivity, subj); e != nil {
		return nil, e
	}
	return r.Dedup(false, model.ColTitle), nil
}

//MergeMaster appends scored rows to the master file, keeping the first row
//of each title, newest published first.
func MergeMaster(path string, scored *model.Frame) (merged *model.Frame, e error) {
	merged = scored
	exists, e := util.FileExists(path)
	if e != nil {
		return nil, e
	}
	if exists {
		old, e := model.ReadCSV(path)
		if e != nil {
			return nil, e
		}
		merged = old.Concat(scored)
	}
	merged = merged.Dedup(false, model.ColTitle).SortBy(model.ColPublished, true)
	if e = merged.WriteCSV(path); e != nil {
		return nil, e
	}
	log.Printf("master sentiment file %s now holds %d rows", path, merged.Len())
	return merged, nil
}

//Summarize counts and averages the scored rows of f.
func Summarize(f *model.Frame, date string) *model.SentimentSummary {
	s := &model.SentimentSummary{Date: date, NumArticles: f.Len()}
	s.Udate, s.Utime = util.TimeStr()
	var vals []float64
	for _, v := range f.Floats(model.ColSentiment) {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if m, e := stats.Mean(vals); e == nil {
		s.AvgSentiment = m
	}
	for _, l := range f.Strings(model.ColSentimentLabel) {
		switch l {
		case model.Positive:
			s.NumPositive++
		case model.Neutral:
			s.NumNeutral++
		case model.Negative:
			s.NumNegative++
		}
	}
	return s
}

//SummaryPath is the json summary file of date.
func SummaryPath(date string) string {
	return filepath.Join(ProcessedDir(), fmt.Sprintf("%s_sentiment_summary.json", date))
}

//Record saves the summary in the senti_summary table, replacing any row of the same date.
func Record(s *model.SentimentSummary) error {
	dbmap, dot := global.DB()
	del, e := dot.Raw("DEL_SENTI_SUMMARY")
	if e != nil {
		return errors.WithStack(e)
	}
	if _, e = dbmap.Exec(del, s.Date); e != nil {
		return errors.Wrapf(e, "failed to clear sentiment summary of %s", s.Date)
	}
	return errors.Wrapf(dbmap.Insert(s), "failed to save sentiment summary of %s", s.Date)
}

//Result lists the files written by Run.
type Result struct {
	Scored  string
	Master  string
	Summary *model.SentimentSummary
	JSON    string
}

//Run scores the headline file at input, writes the dated scored file and the
//summary, and merges into the master file when master is set.
func Run(input string, master bool) (r *Result, e error) {
	f, e := model.ReadCSV(input)
	if e != nil {
		return nil, e
	}
	sc, e := NewScorer()
	if e != nil {
		return nil, e
	}
	scored, e := sc.ScoreFrame(f)
	if e != nil {
		return nil, errors.WithMessage(e, input)
	}
	date := util.Today()
	r = &Result{Scored: filepath.Join(ProcessedDir(), fmt.Sprintf("%s_sentiment.csv", date))}
	if e = scored.WriteCSV(r.Scored); e != nil {
		return nil, e
	}
	log.Printf("%d headlines scored, saved to %s", scored.Len(), r.Scored)
	if master {
		r.Master = MasterPath()
		if _, e = MergeMaster(r.Master, scored); e != nil {
			return nil, e
		}
	}
	r.Summary = Summarize(scored, date)
	r.JSON = SummaryPath(date)
	if e = util.WriteJSONFile(r.Summary, r.JSON); e != nil {
		return nil, e
	}
	log.Printf("Summary: %v", r.Summary)
	return r, nil
}
