package getd

import (
	"context"
	"fmt"
	"strings"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/indc"
	"github.com/carusyte/stockpred/model"
	"github.com/pkg/errors"
)

//Indicator columns, in table order.
var IndicatorColumns = []string{
	"SMA_short", "SMA_long", "EMA_short", "EMA_long",
	"Change", "Gain", "Loss", "Avg_Gain", "Avg_Loss", "RS", "RSI",
	"MACD_Line", "Signal_Line", "MACD_Hist",
}

//Analysis is the outcome of analysing one symbol.
type Analysis struct {
	Symbol       string
	Frame        *model.Frame
	Fundamentals *model.Fundamentals
	Crossovers   []*indc.Signal
	RSISignals   []*indc.Signal
	Trend        string
	TrendMA      float64
	Path         string
}

//AnalysisPath is where Analyse writes the table of symbol.
func AnalysisPath(symbol string) string {
	return conf.Args.Path("analysed", fmt.Sprintf("%s_analysis_data.csv", strings.ToUpper(symbol)))
}

//Analyse builds the indicator and fundamentals table of symbol. Bars are read
//from input when given, otherwise fetched with the analysis period and interval.
//A failed fundamentals lookup leaves the ratio cells empty.
func Analyse(ctx context.Context, symbol, input string) (a *Analysis, e error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var f *model.Frame
	if input != "" {
		if f, e = model.ReadCSV(input); e != nil {
			return nil, e
		}
		log.Printf("%s %d rows loaded from %s", symbol, f.Len(), input)
	} else {
		quotes, e := FetchPrices(ctx, symbol, conf.Args.Price.AnalysisPeriod, conf.Args.Price.AnalysisInterval)
		if e != nil {
			return nil, e
		}
		f = QuotesFrame(quotes)
	}
	if e = Indicators(f); e != nil {
		return nil, errors.WithMessage(e, symbol)
	}

	fd, e := FetchFundamentals(ctx, symbol)
	if e != nil {
		log.Warnf("%s fundamentals unavailable: %+v", symbol, e)
		fd = &model.Fundamentals{Symbol: symbol}
	}
	ratios := Ratios(fd)
	for _, c := range FundamentalColumns {
		if e = f.SetStrings(c, fill(f.Len(), ratios[c])); e != nil {
			return nil, e
		}
	}
	if e = f.SetStrings(model.ColSymbol, fill(f.Len(), symbol)); e != nil {
		return nil, e
	}

	a = &Analysis{Symbol: symbol, Frame: f, Fundamentals: fd, Path: AnalysisPath(symbol)}
	a.Crossovers, a.RSISignals = Signals(f)
	a.Trend, a.TrendMA = indc.Trend(f.Floats(model.ColClose), conf.Args.Indicator.TrendWindow)
	if e = f.WriteCSV(a.Path); e != nil {
		return nil, e
	}
	log.Printf("%s analysis saved to %s, trend: %s", symbol, a.Path, a.Trend)
	return a, nil
}

//LoadAnalysis reads a saved analysis table and recomputes its signals and trend.
func LoadAnalysis(symbol string) (a *Analysis, e error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	a = &Analysis{Symbol: symbol, Path: AnalysisPath(symbol)}
	if a.Frame, e = model.ReadCSV(a.Path); e != nil {
		return nil, e
	}
	if !a.Frame.Has("RSI") {
		return nil, errors.Errorf("%s is not an analysis table", a.Path)
	}
	a.Crossovers, a.RSISignals = Signals(a.Frame)
	a.Trend, a.TrendMA = indc.Trend(a.Frame.Floats(model.ColClose), conf.Args.Indicator.TrendWindow)
	return a, nil
}

//Indicators appends the indicator columns computed from Close.
func Indicators(f *model.Frame) (e error) {
	if !f.Has(model.ColClose) {
		return errors.Errorf("column '%s' not found", model.ColClose)
	}
	ic := conf.Args.Indicator
	cl := f.Floats(model.ColClose)
	rsi := indc.RSI(cl, ic.RSIWindow)
	macd := indc.MACD(cl, ic.MACDFast, ic.MACDSlow, ic.MACDSignal)
	series := [][]float64{
		indc.SMA(cl, ic.ShortWindow), indc.SMA(cl, ic.LongWindow),
		indc.EMA(cl, ic.ShortWindow), indc.EMA(cl, ic.LongWindow),
		rsi.Change, rsi.Gain, rsi.Loss, rsi.AvgGain, rsi.AvgLoss, rsi.RS, rsi.RSI,
		macd.Line, macd.Signal, macd.Hist,
	}
	for i, c := range IndicatorColumns {
		if e = f.SetFloats(c, series[i]); e != nil {
			return
		}
	}
	return
}

//Signals scans an analysed frame for SMA crossovers and RSI threshold crossings.
func Signals(f *model.Frame) (cross, rsi []*indc.Signal) {
	ic := conf.Args.Indicator
	dates := f.Strings(model.ColDate)
	cross = indc.SMACrossovers(dates, f.Floats("SMA_short"), f.Floats("SMA_long"), ic.ShortWindow)
	rsi = indc.RSICrossovers(dates, f.Floats("RSI"), ic.Overbought, ic.Oversold)
	return
}

func fill(n int, v string) []string {
	s := make([]string, n)
	for i := range s {
		s[i] = v
	}
	return s
}
