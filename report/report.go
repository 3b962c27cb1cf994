package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/carusyte/stockpred/getd"
	"github.com/carusyte/stockpred/global"
	"github.com/carusyte/stockpred/model"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

var log = global.Log

func render(hd []string, data [][]string) string {
	if len(data) == 0 {
		return ""
	}
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(hd)
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()
	return buf.String()
}

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

//Fundamentals renders the key ratios of an analysis. Missing figures show as N/A.
func Fundamentals(a *getd.Analysis) string {
	if a.Fundamentals == nil {
		return ""
	}
	r := getd.Ratios(a.Fundamentals)
	data := make([][]string, 0, len(getd.FundamentalColumns))
	for _, c := range getd.FundamentalColumns {
		v := r[c]
		if v == "" {
			v = "N/A"
		}
		data = append(data, []string{c, v})
	}
	return render([]string{"Metric", "Value"}, data)
}

//Signals renders the crossover and RSI signals of an analysis followed by its trend.
func Signals(a *getd.Analysis) string {
	var data [][]string
	for _, s := range a.Crossovers {
		data = append(data, []string{s.Date, "SMA", s.Kind, num(s.Value, 2)})
	}
	for _, s := range a.RSISignals {
		data = append(data, []string{s.Date, "RSI", s.Kind, num(s.Value, 2)})
	}
	var sb strings.Builder
	if len(data) == 0 {
		sb.WriteString("No signals.\n")
	} else {
		sb.WriteString(render([]string{"Date", "Indicator", "Signal", "Value"}, data))
	}
	if a.Trend != "" {
		fmt.Fprintf(&sb, "%s trend: %s (MA %s)\n", a.Symbol, a.Trend, num(a.TrendMA, 2))
	}
	return sb.String()
}

//Sentiment renders a daily sentiment summary.
func Sentiment(s *model.SentimentSummary) string {
	return render(
		[]string{"Date", "Articles", "Avg Sentiment", "Positive", "Neutral", "Negative"},
		[][]string{{s.Date, fmt.Sprint(s.NumArticles), num(s.AvgSentiment, 4),
			fmt.Sprint(s.NumPositive), fmt.Sprint(s.NumNeutral), fmt.Sprint(s.NumNegative)}},
	)
}

//TrainRuns renders training runs, newest first.
func TrainRuns(runs []*model.TrainRun) string {
	data := make([][]string, len(runs))
	for i, r := range runs {
		data[i] = []string{r.Udate + " " + r.Utime, r.Model, fmt.Sprint(r.Rows), fmt.Sprint(r.Features),
			num(r.MAE, 4), num(r.MSE, 4), num(r.R2, 4), r.Source}
	}
	return render([]string{"Trained", "Model", "Rows", "Features", "MAE", "MSE", "R²", "Source"}, data)
}

//Predictions renders stored predictions.
func Predictions(ps []*model.Prediction) string {
	data := make([][]string, len(ps))
	for i, p := range ps {
		data[i] = []string{p.Date, p.Symbol, p.Model, num(p.Value, 2), p.Source}
	}
	return render([]string{"Date", "Symbol", "Model", "Prediction", "Source"}, data)
}

//Stats renders stage timings.
func Stats(ss []*model.Stats) string {
	data := make([][]string, len(ss))
	for i, s := range ss {
		data[i] = []string{s.Code, s.Start, s.End, num(s.Dur, 3)}
	}
	return render([]string{"Stage", "Start", "End", "Seconds"}, data)
}

//History loads and renders recent predictions, training runs and stage timings.
//When symbol is set only its predictions are listed.
func History(symbol string, limit int) (string, error) {
	dbmap, dot := global.DB()
	var ps []*model.Prediction
	var e error
	if symbol != "" {
		e = query(dot, "SYMBOL_PREDICTIONS", &ps, symbol, limit)
	} else {
		e = query(dot, "RECENT_PREDICTIONS", &ps, limit)
	}
	if e != nil {
		return "", e
	}
	var runs []*model.TrainRun
	if e = query(dot, "RECENT_TRAIN_RUNS", &runs, limit); e != nil {
		return "", e
	}
	var ss []*model.Stats
	s, e := dot.Raw("STAGE_STATS")
	if e != nil {
		return "", errors.WithStack(e)
	}
	if _, e = dbmap.Select(&ss, s); e != nil {
		return "", errors.Wrap(e, "failed to query stage stats")
	}
	var sb strings.Builder
	section(&sb, "Predictions", Predictions(ps))
	section(&sb, "Training runs", TrainRuns(runs))
	section(&sb, "Stage timings", Stats(ss))
	log.Debugf("history: %d predictions, %d runs, %d stages", len(ps), len(runs), len(ss))
	return sb.String(), nil
}

type raw interface {
	Raw(name string) (string, error)
}

func query(dot raw, name string, holder interface{}, args ...interface{}) error {
	dbmap, _ := global.DB()
	s, e := dot.Raw(name)
	if e != nil {
		return errors.WithStack(e)
	}
	_, e = dbmap.Select(holder, s, args...)
	return errors.Wrapf(e, "failed to run %s", name)
}

func section(sb *strings.Builder, title, table string) {
	fmt.Fprintf(sb, "%s\n", title)
	if table == "" {
		sb.WriteString("(none)\n\n")
		return
	}
	sb.WriteString(table)
	sb.WriteString("\n")
}
