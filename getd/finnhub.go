package getd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

//FinnhubSource is the source cell of headlines pulled from the company news api.
const FinnhubSource = "finnhub"

type companyNews struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

//FinnhubClient pulls company news one day at a time, pacing the calls with a
//rate limiter plus a random delay. A circuit breaker stops calling the api
//after repeated failures until its timeout elapses.
type FinnhubClient struct {
	base     string
	token    string
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	minDelay time.Duration
	maxDelay time.Duration
	//Progress receives the progress bar; nil disables it.
	Progress io.Writer
}

//NewFinnhubClient creates a client from conf.Args.News. A missing token is an error.
func NewFinnhubClient() (*FinnhubClient, error) {
	nc := conf.Args.News
	if strings.TrimSpace(nc.FinnhubToken) == "" {
		return nil, errors.New("missing Finnhub API token, set FINNHUB_API_KEY or news.finnhub_token")
	}
	if nc.RatePerMinute < 1 {
		return nil, errors.Errorf("news.rate_per_minute must be positive, got %d", nc.RatePerMinute)
	}
	client, e := util.NewClient(time.Duration(conf.Args.Network.HTTPTimeout) * time.Second)
	if e != nil {
		return nil, e
	}
	return &FinnhubClient{
		base:     strings.TrimRight(nc.FinnhubURL, "/"),
		token:    nc.FinnhubToken,
		client:   client,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(nc.RatePerMinute)), 1),
		minDelay: time.Duration(nc.MinDelayMs) * time.Millisecond,
		maxDelay: time.Duration(nc.MaxDelayMs) * time.Millisecond,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "finnhub",
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnf("%s circuit breaker %s -> %s", name, from, to)
			},
		}),
		Progress: os.Stderr,
	}, nil
}

//CompanyNews returns the headlines published for symbol on the given day.
func (c *FinnhubClient) CompanyNews(ctx context.Context, symbol string, day time.Time) (hs []*model.Headline, e error) {
	if e = c.limiter.Wait(ctx); e != nil {
		return nil, errors.WithStack(e)
	}
	if e = c.jitter(ctx); e != nil {
		return nil, e
	}
	d := day.Format(util.DateFormat)
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", d)
	q.Set("to", d)
	q.Set("token", c.token)
	link := fmt.Sprintf("%s/company-news?%s", c.base, q.Encode())
	body, e := c.breaker.Execute(func() (interface{}, error) {
		return util.HTTPGetWith(ctx, c.client, link, nil, 1)
	})
	if e != nil {
		return nil, errors.WithMessagef(e, "%s company news for %s", symbol, d)
	}
	var items []*companyNews
	if e = json.Unmarshal(body.([]byte), &items); e != nil {
		return nil, errors.Wrapf(e, "%s failed to parse company news for %s", symbol, d)
	}
	today := util.Today()
	for _, it := range items {
		hs = append(hs, &model.Headline{
			Title:     strings.TrimSpace(it.Headline),
			Link:      it.URL,
			Published: time.Unix(it.Datetime, 0).UTC().Format(util.DateFormat),
			Source:    FinnhubSource,
			ScrapedOn: today,
		})
	}
	return hs, nil
}

func (c *FinnhubClient) jitter(ctx context.Context) error {
	d := c.minDelay
	if span := c.maxDelay - c.minDelay; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

//History pulls days of company news ending today. Days that fail are logged
//and contribute no rows. Headlines are deduplicated by title and sorted by
//publish date, newest first.
func (c *FinnhubClient) History(ctx context.Context, symbol string, days int) (f *model.Frame, e error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var bar *progressbar.ProgressBar
	if c.Progress != nil {
		bar = progressbar.NewOptions(days,
			progressbar.OptionSetWriter(c.Progress),
			progressbar.OptionSetDescription(symbol+" news"),
			progressbar.OptionShowCount())
	}
	f = model.NewFrame(HeadlineColumns...)
	end := time.Now().UTC()
	for i := days - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return nil, errors.WithStack(ctx.Err())
		}
		day := end.AddDate(0, 0, -i)
		hs, err := c.CompanyNews(ctx, symbol, day)
		if err != nil {
			log.Warnf("%+v", err)
		}
		for _, h := range hs {
			f.Append(h.Title, h.Link, h.Published, h.Source, h.ScrapedOn)
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	f = f.Dedup(false, model.ColTitle).SortBy(model.ColPublished, true)
	log.Printf("%s %d unique headlines over %d days", symbol, f.Len(), days)
	return f, nil
}

//FinnhubPath is where FinnhubHistory writes the headlines of symbol.
func FinnhubPath(symbol string, days int) string {
	return filepath.Join(NewsRawDir(), fmt.Sprintf("%s_finnhub_news_%ddays.csv", strings.ToUpper(symbol), days))
}

//FinnhubHistory pulls and saves the company news history of symbol, merging
//it into the master headline file when merge is set.
func FinnhubHistory(ctx context.Context, symbol string, days int, merge bool) (path string, e error) {
	c, e := NewFinnhubClient()
	if e != nil {
		return "", e
	}
	f, e := c.History(ctx, symbol, days)
	if e != nil {
		return "", e
	}
	path = FinnhubPath(symbol, days)
	if e = f.WriteCSV(path); e != nil {
		return "", e
	}
	if merge {
		if _, e = MergeHeadlines(MasterHeadlinePath(), f); e != nil {
			return path, e
		}
	}
	return path, nil
}
