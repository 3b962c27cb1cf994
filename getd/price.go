package getd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
	"github.com/ssgreg/repeat"
)

//ErrNoData is returned when every price fetch attempt came back empty or failed.
var ErrNoData = errors.New("No data returned. Check ticker/symbol and network.")

var intraday = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true,
	"60m": true, "90m": true, "1h": true,
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GmtOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

//CheckRange validates the period and interval against the values the price source accepts.
func CheckRange(period, interval string) error {
	if !util.ContainsStr(conf.ValidIntervals, interval) {
		return errors.Errorf("invalid interval %q, valid intervals: %s",
			interval, strings.Join(conf.ValidIntervals, ", "))
	}
	if !util.ContainsStr(conf.ValidPeriods, period) {
		return errors.Errorf("invalid period %q, valid periods: %s",
			period, strings.Join(conf.ValidPeriods, ", "))
	}
	return nil
}

//FetchPrices downloads OHLCV bars for symbol. Failed or empty attempts are
//retried up to conf.Args.Price.Retry times in total; a failed request pauses
//Price.RetryDelay seconds before the next attempt, an empty result does not.
func FetchPrices(ctx context.Context, symbol, period, interval string) (quotes []*model.Quote, e error) {
	if e = CheckRange(period, interval); e != nil {
		return nil, e
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	tries := conf.Args.Price.Retry
	delay := time.Duration(conf.Args.Price.RetryDelay) * time.Second
	op := func(c int) error {
		if c > 0 {
			log.Printf("%s retrying price fetch #%d...", symbol, c)
		}
		qs, err := fetchChart(ctx, symbol, period, interval)
		empty := err == nil && len(qs) == 0
		if empty {
			err = errors.Errorf("%s: empty price data", symbol)
		}
		if err == nil {
			quotes = qs
			return nil
		}
		log.Warnf("%s attempt %d/%d failed: %+v", symbol, c+1, tries, err)
		if ctx.Err() != nil {
			return repeat.HintStop(ctx.Err())
		}
		if !empty && c+1 < tries && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return repeat.HintStop(ctx.Err())
			}
		}
		return repeat.HintTemporary(err)
	}
	e = repeat.Repeat(
		repeat.FnWithCounter(op),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(tries),
	)
	if e != nil {
		if ctx.Err() != nil {
			return nil, errors.WithStack(ctx.Err())
		}
		return nil, ErrNoData
	}
	log.Printf("%s %d bars fetched, period=%s interval=%s", symbol, len(quotes), period, interval)
	return quotes, nil
}

func fetchChart(ctx context.Context, symbol, period, interval string) ([]*model.Quote, error) {
	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", interval)
	q.Set("includePrePost", "false")
	q.Set("events", "div,splits")
	body, e := yahooGet(ctx, fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol)), q, 1)
	if e != nil {
		return nil, e
	}
	return parseChart(body, interval)
}

func parseChart(body []byte, interval string) (quotes []*model.Quote, e error) {
	cr := new(chartResponse)
	if e = json.Unmarshal(body, cr); e != nil {
		return nil, errors.Wrap(e, "failed to parse chart response")
	}
	if cr.Chart.Error != nil {
		return nil, errors.Errorf("chart error %s: %s", cr.Chart.Error.Code, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 {
		return nil, nil
	}
	r := cr.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, nil
	}
	loc, e := time.LoadLocation(r.Meta.ExchangeTimezoneName)
	if e != nil || r.Meta.ExchangeTimezoneName == "" {
		loc = time.FixedZone("exchange", r.Meta.GmtOffset)
	}
	layout := util.DateFormat
	if intraday[interval] {
		layout = util.DateTimeFormat
	}
	iq := r.Indicators.Quote[0]
	for i, ts := range r.Timestamp {
		c := at(iq.Close, i)
		if c == nil {
			continue
		}
		quotes = append(quotes, &model.Quote{
			Date:   time.Unix(ts, 0).In(loc).Format(layout),
			Open:   val(at(iq.Open, i)),
			High:   val(at(iq.High, i)),
			Low:    val(at(iq.Low, i)),
			Close:  *c,
			Volume: val(at(iq.Volume, i)),
		})
	}
	return quotes, nil
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

//QuotesFrame converts bars to a Date/Open/High/Low/Close/Volume frame.
func QuotesFrame(quotes []*model.Quote) *model.Frame {
	f := model.NewFrame(model.ColDate, model.ColOpen, model.ColHigh, model.ColLow, model.ColClose, model.ColVolume)
	for _, q := range quotes {
		f.Append(q.Date,
			model.FormatFloat(q.Open),
			model.FormatFloat(q.High),
			model.FormatFloat(q.Low),
			model.FormatFloat(q.Close),
			model.FormatFloat(q.Volume))
	}
	return f
}

//RawPricePath is where FetchAndSave stores the bars of symbol.
func RawPricePath(symbol string) string {
	return conf.Args.Path("raw", fmt.Sprintf("%s_yfinance.csv", strings.ToUpper(symbol)))
}

//FetchAndSave fetches bars with the configured period and interval and writes them to RawPricePath.
func FetchAndSave(ctx context.Context, symbol string) (path string, e error) {
	quotes, e := FetchPrices(ctx, symbol, conf.Args.Price.Period, conf.Args.Price.Interval)
	if e != nil {
		return "", e
	}
	path = RawPricePath(symbol)
	if e = QuotesFrame(quotes).WriteCSV(path); e != nil {
		return "", e
	}
	log.Printf("%s prices saved to %s", symbol, path)
	return path, nil
}
