package plot

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/getd"
	"github.com/carusyte/stockpred/global"
	"github.com/carusyte/stockpred/indc"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var log = global.Log

var palette = map[string]string{
	model.ColClose: "2563eb",
	"SMA_short":    "f59e0b",
	"SMA_long":     "10b981",
	"EMA_short":    "a855f7",
	"EMA_long":     "ec4899",
	"RSI":          "6366f1",
}

//Dir is where charts are written.
func Dir() string {
	return conf.Args.Path("charts")
}

func dates(f *model.Frame) []time.Time {
	ds := f.Strings(model.ColDate)
	ts := make([]time.Time, len(ds))
	for i, d := range ds {
		ts[i], _ = util.ParseTime(d)
	}
	return ts
}

//series builds a line from col, skipping rows without a date or a value.
func series(f *model.Frame, ts []time.Time, col string, style chart.Style) (s chart.TimeSeries, ok bool) {
	s = chart.TimeSeries{Name: col, Style: style}
	for i, v := range f.Floats(col) {
		if math.IsNaN(v) || ts[i].IsZero() {
			continue
		}
		s.XValues = append(s.XValues, ts[i])
		s.YValues = append(s.YValues, v)
	}
	return s, len(s.XValues) > 1
}

func line(col string, width float64) chart.Style {
	return chart.Style{StrokeColor: drawing.ColorFromHex(palette[col]), StrokeWidth: width}
}

func markers(name, color string, ts []time.Time, sigs []*indc.Signal, kind string) (s chart.TimeSeries) {
	s = chart.TimeSeries{
		Name: name,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    5,
			DotColor:    drawing.ColorFromHex(color),
		},
	}
	for _, g := range sigs {
		if g.Kind != kind || g.Index >= len(ts) || ts[g.Index].IsZero() || math.IsNaN(g.Value) {
			continue
		}
		s.XValues = append(s.XValues, ts[g.Index])
		s.YValues = append(s.YValues, g.Value)
	}
	return
}

func render(title string, ss []chart.Series, yfmt string) ([]byte, error) {
	graph := chart.Chart{
		Title:  title,
		Width:  1000,
		Height: 450,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("2006-01-02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf(yfmt, f)
				}
				return ""
			},
		},
		Series: ss,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	var buf bytes.Buffer
	if e := graph.Render(chart.PNG, &buf); e != nil {
		return nil, errors.Wrapf(e, "failed to render %s", title)
	}
	return buf.Bytes(), nil
}

//Price charts Close with the moving averages found in f. Buy and Sell
//crossovers are drawn as separate marker series.
func Price(title string, f *model.Frame, crossovers []*indc.Signal) ([]byte, error) {
	if !f.Has(model.ColDate) || !f.Has(model.ColClose) {
		return nil, errors.New("price chart needs Date and Close columns")
	}
	ts := dates(f)
	var ss []chart.Series
	for _, c := range []string{model.ColClose, "SMA_short", "SMA_long", "EMA_short", "EMA_long"} {
		if !f.Has(c) {
			continue
		}
		w := 1.5
		if c == model.ColClose {
			w = 2.5
		}
		if s, ok := series(f, ts, c, line(c, w)); ok {
			ss = append(ss, s)
		}
	}
	if len(ss) == 0 {
		return nil, errors.Errorf("not enough data to chart %s", title)
	}
	for _, m := range []chart.TimeSeries{
		markers("Buy", "16a34a", ts, crossovers, indc.Buy),
		markers("Sell", "dc2626", ts, crossovers, indc.Sell),
	} {
		if len(m.XValues) > 0 {
			ss = append(ss, m)
		}
	}
	return render(title, ss, "%.2f")
}

//RSI charts the RSI column with guide lines at upper and lower.
func RSI(title string, f *model.Frame, upper, lower float64) ([]byte, error) {
	if !f.Has(model.ColDate) || !f.Has("RSI") {
		return nil, errors.New("RSI chart needs Date and RSI columns")
	}
	ts := dates(f)
	s, ok := series(f, ts, "RSI", line("RSI", 2))
	if !ok {
		return nil, errors.Errorf("not enough data to chart %s", title)
	}
	x := []time.Time{s.XValues[0], s.XValues[len(s.XValues)-1]}
	guide := func(name string, v float64, color string) chart.TimeSeries {
		return chart.TimeSeries{
			Name:    name,
			XValues: x,
			YValues: []float64{v, v},
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex(color),
				StrokeWidth:     1,
				StrokeDashArray: []float64{5.0, 3.0},
			},
		}
	}
	return render(title, []chart.Series{
		s,
		guide(fmt.Sprintf("Overbought (%.0f)", upper), upper, "dc2626"),
		guide(fmt.Sprintf("Oversold (%.0f)", lower), lower, "16a34a"),
	}, "%.0f")
}

//Analysis writes the price and RSI charts of a and returns their paths.
func Analysis(a *getd.Analysis) (paths []string, e error) {
	sym := strings.ToUpper(a.Symbol)
	if e = util.MkDirAll(Dir(), 0755); e != nil {
		return
	}
	price, e := Price(sym+" Price", a.Frame, a.Crossovers)
	if e != nil {
		return
	}
	p := filepath.Join(Dir(), sym+"_price.png")
	if e = os.WriteFile(p, price, 0644); e != nil {
		return nil, errors.WithStack(e)
	}
	paths = append(paths, p)
	ind := conf.Args.Indicator
	rsi, e := RSI(sym+" RSI", a.Frame, ind.Overbought, ind.Oversold)
	if e != nil {
		log.Warnf("%s: RSI chart skipped: %v", sym, e)
		return paths, nil
	}
	p = filepath.Join(Dir(), sym+"_rsi.png")
	if e = os.WriteFile(p, rsi, 0644); e != nil {
		return paths, errors.WithStack(e)
	}
	log.Printf("charts saved under %s", Dir())
	return append(paths, p), nil
}
