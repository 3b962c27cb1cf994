package getd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/model"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartJSON = `{"chart":{"result":[{"meta":{"symbol":"MSFT","exchangeTimezoneName":"America/New_York","gmtoffset":-14400},
"timestamp":[1714570200,1714656600,1714743000],
"indicators":{"quote":[{"open":[400.1,401.2,402.3],"high":[405,406,407],"low":[399,400,401],
"close":[404.5,null,406.5],"volume":[1000,2000,3000]}]}}],"error":null}}`

const summaryJSON = `{"quoteSummary":{"result":[{
"financialData":{"currentPrice":{"raw":400,"fmt":"400.00"},"returnOnEquity":{"raw":0.35},"debtToEquity":{"raw":42.5}},
"defaultKeyStatistics":{"sharesOutstanding":{"raw":1000},"trailingEps":{"raw":10},"forwardEps":{"raw":12},"priceToBook":{"raw":12.5}},
"summaryDetail":{"dividendRate":{"raw":3}}}],"error":null}}`

func setup(t *testing.T, h http.Handler) *httptest.Server {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	conf.Args.Network.YahooHosts = []string{srv.URL}
	conf.Args.DataDir = t.TempDir()
	conf.Args.Price.RetryDelay = 0
	conf.Args.Price.Retry = 3
	return srv
}

func TestFetchPricesParsesChart(t *testing.T) {
	setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/MSFT", r.URL.Path)
		assert.Equal(t, "1mo", r.URL.Query().Get("range"))
		fmt.Fprint(w, chartJSON)
	}))

	qs, e := FetchPrices(context.Background(), "msft", "1mo", "1d")
	require.NoError(t, e)
	require.Len(t, qs, 2)
	assert.Equal(t, "2024-05-01", qs[0].Date)
	assert.Equal(t, 404.5, qs[0].Close)
	assert.Equal(t, "2024-05-03", qs[1].Date)
	assert.Equal(t, 3000., qs[1].Volume)

	qs, e = FetchPrices(context.Background(), "MSFT", "1mo", "1h")
	require.NoError(t, e)
	assert.Equal(t, "2024-05-01 09:30:00", qs[0].Date)
}

func TestFetchPricesRejectsInvalidRange(t *testing.T) {
	var calls int32
	setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	_, e := FetchPrices(context.Background(), "MSFT", "1mo", "7m")
	require.Error(t, e)
	assert.Contains(t, e.Error(), "valid intervals")
	_, e = FetchPrices(context.Background(), "MSFT", "2mo", "1d")
	require.Error(t, e)
	assert.Contains(t, e.Error(), "valid periods")
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestFetchPricesGivesUpAfterRetries(t *testing.T) {
	var calls int32
	setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	}))
	_, e := FetchPrices(context.Background(), "NOPE", "1mo", "1d")
	assert.Equal(t, ErrNoData, e)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchPricesMakesOneRequestPerAttempt(t *testing.T) {
	var calls int32
	setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	r := conf.Args.DefaultRetry
	defer func() { conf.Args.DefaultRetry = r }()
	conf.Args.DefaultRetry = 3
	_, e := FetchPrices(context.Background(), "MSFT", "1mo", "1d")
	assert.Equal(t, ErrNoData, e)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchPricesNoPauseOnEmpty(t *testing.T) {
	setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	}))
	conf.Args.Price.RetryDelay = 5
	defer func() { conf.Args.Price.RetryDelay = 0 }()
	start := time.Now()
	_, e := FetchPrices(context.Background(), "NOPE", "1mo", "1d")
	assert.Equal(t, ErrNoData, e)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestFetchAndSave(t *testing.T) {
	setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON)
	}))
	conf.Args.Price.Period, conf.Args.Price.Interval = "1mo", "1d"
	p, e := FetchAndSave(context.Background(), "msft")
	require.NoError(t, e)
	assert.Equal(t, filepath.Join(conf.Args.DataDir, "raw", "MSFT_yfinance.csv"), p)
	f, e := model.ReadCSV(p)
	require.NoError(t, e)
	assert.Equal(t, []string{"Date", "Open", "High", "Low", "Close", "Volume"}, f.Columns())
	assert.Equal(t, 2, f.Len())
}

func TestFetchFundamentals(t *testing.T) {
	setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/MSFT", r.URL.Path)
		fmt.Fprint(w, summaryJSON)
	}))
	f, e := FetchFundamentals(context.Background(), "MSFT")
	require.NoError(t, e)
	assert.Equal(t, 400., f.Price.Float64)
	assert.InDelta(t, 0.75, f.DividendYield.Float64, 1e-9)
	assert.InDelta(t, 400000, f.MarketCap.Float64, 1e-9)
	assert.InDelta(t, 40, f.TrailingPE.Float64, 1e-9)
	r := Ratios(f)
	assert.Equal(t, "40", r[ColPERatio])
	assert.Equal(t, "12.5", r[ColPBRatio])
	assert.Equal(t, "0.35", r[ColROE])
	assert.Equal(t, "10", r[ColEPS])
}

func TestDeriveWithoutFigures(t *testing.T) {
	f := &model.Fundamentals{
		Price:      sql.NullFloat64{Float64: 50, Valid: true},
		ForwardEps: sql.NullFloat64{Float64: 5, Valid: true},
	}
	Derive(f)
	assert.False(t, f.MarketCap.Valid)
	assert.False(t, f.TrailingPE.Valid)
	assert.InDelta(t, 0, f.DividendYield.Float64, 1e-9)
	r := Ratios(f)
	assert.Equal(t, "10", r[ColPERatio])
	assert.Equal(t, "", r[ColMarketCap])

	f = &model.Fundamentals{TrailingEps: sql.NullFloat64{Float64: 5, Valid: true}}
	Derive(f)
	assert.False(t, f.DividendYield.Valid)
	assert.False(t, f.TrailingPE.Valid)
}

func TestAnalyseFromInput(t *testing.T) {
	setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	var sb strings.Builder
	sb.WriteString("Date,Open,High,Low,Close,Volume\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&sb, "2024-01-%02d,1,1,1,%d,100\n", i%28+1, 100+i)
	}
	in := filepath.Join(conf.Args.DataDir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte(sb.String()), 0644))

	a, e := Analyse(context.Background(), "msft", in)
	require.NoError(t, e)
	assert.Equal(t, AnalysisPath("MSFT"), a.Path)
	assert.Equal(t, "Bullish", a.Trend)

	f, e := model.ReadCSV(a.Path)
	require.NoError(t, e)
	cols := append([]string{"Date", "Open", "High", "Low", "Close", "Volume"}, IndicatorColumns...)
	cols = append(cols, FundamentalColumns...)
	cols = append(cols, "Symbol")
	assert.Equal(t, cols, f.Columns())
	assert.Equal(t, "", f.Get(0, ColPERatio))
	assert.Equal(t, "MSFT", f.Get(59, "Symbol"))
	assert.Equal(t, "", f.Get(18, "SMA_short"))
	assert.Equal(t, "109.5", f.Get(19, "SMA_short"))

	l, e := LoadAnalysis("msft")
	require.NoError(t, e)
	assert.Equal(t, a.Trend, l.Trend)
	assert.Equal(t, len(a.Crossovers), len(l.Crossovers))
	assert.Equal(t, 60, l.Frame.Len())
}

func TestIndicatorsNeedClose(t *testing.T) {
	e := Indicators(model.NewFrame("Date", "Open"))
	require.Error(t, e)
	assert.Contains(t, e.Error(), "Close")
}

const rssXML = `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>
<item><title> Stocks rally </title><link>http://x/1</link><pubDate>Wed, 01 May 2024 22:15:00 -0400</pubDate></item>
<item><title>No date</title><link>http://x/2</link></item>
</channel></rss>`

func TestScrapeFeedsSkipsFailingFeed(t *testing.T) {
	srv := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			http.Error(w, "boom", http.StatusNotFound)
			return
		}
		assert.Equal(t, conf.Args.News.UserAgent, r.Header.Get("User-Agent"))
		fmt.Fprint(w, rssXML)
	}))
	conf.Args.News.FeedInterval = 0
	f, e := ScrapeFeeds(context.Background(), []string{srv.URL + "/bad", srv.URL + "/good"})
	require.NoError(t, e)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, HeadlineColumns, f.Columns())
	assert.Equal(t, "Stocks rally", f.Get(0, "title"))
	assert.Equal(t, "2024-05-02", f.Get(0, "published"))
	assert.Equal(t, f.Get(1, "scraped_on"), f.Get(1, "published"))
	assert.Equal(t, srv.URL+"/good", f.Get(0, "source"))
}

func TestMergeHeadlinesKeepsFirst(t *testing.T) {
	conf.Args.DataDir = t.TempDir()
	master := MasterHeadlinePath()
	a := model.NewFrame(HeadlineColumns...)
	a.Append("t1", "l1", "2024-05-01", "s", "2024-05-01")
	a.Append("t2", "l2", "2024-05-01", "s", "2024-05-01")
	_, e := MergeHeadlines(master, a)
	require.NoError(t, e)

	b := model.NewFrame(HeadlineColumns...)
	b.Append("t1", "l1", "2024-05-01", "s", "2024-05-02")
	b.Append("t3", "l3", "2024-05-02", "s", "2024-05-02")
	m, e := MergeHeadlines(master, b)
	require.NoError(t, e)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, "2024-05-01", m.Get(0, "scraped_on"))

	lg, e := os.ReadFile(filepath.Join(NewsRawDir(), "update_log.txt"))
	require.NoError(t, e)
	lines := strings.Split(strings.TrimSpace(string(lg)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], "| Rows: 3"))
}

func TestFinnhubHistory(t *testing.T) {
	var calls int32
	srv := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/company-news", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		assert.Equal(t, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if n == 2 {
			http.Error(w, "busy", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `[{"datetime":%d,"headline":"Same story","url":"http://a"},
			{"datetime":%d,"headline":"Story %d","url":"http://b"}]`, 1714570200+int(n), 1714570200+86400*int(n), n)
	}))
	conf.Args.News.FinnhubURL = srv.URL
	conf.Args.News.FinnhubToken = "tok"
	conf.Args.News.RatePerMinute = 60000
	conf.Args.News.MinDelayMs, conf.Args.News.MaxDelayMs = 0, 0

	c, e := NewFinnhubClient()
	require.NoError(t, e)
	c.Progress = nil
	f, e := c.History(context.Background(), "msft", 3)
	require.NoError(t, e)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	// day 2 failed, the repeated title is kept once
	require.Equal(t, 3, f.Len())
	assert.Equal(t, "Story 3", f.Get(0, "title"))
	assert.Equal(t, "Same story", f.Get(2, "title"))
	assert.Equal(t, FinnhubSource, f.Get(0, "source"))
}

func TestFinnhubNeedsToken(t *testing.T) {
	conf.Args.News.FinnhubToken = " "
	_, e := FinnhubHistory(context.Background(), "MSFT", 1, false)
	require.Error(t, e)
	assert.Contains(t, e.Error(), "token")
}

func TestFinnhubRejectsZeroRate(t *testing.T) {
	token, rpm := conf.Args.News.FinnhubToken, conf.Args.News.RatePerMinute
	defer func() { conf.Args.News.FinnhubToken, conf.Args.News.RatePerMinute = token, rpm }()
	conf.Args.News.FinnhubToken = "tok"
	conf.Args.News.RatePerMinute = 0
	_, e := NewFinnhubClient()
	require.Error(t, e)
	assert.Contains(t, e.Error(), "rate_per_minute")
}

func TestPublishedDate(t *testing.T) {
	pub := time.Date(2024, 5, 1, 22, 15, 0, 0, time.FixedZone("EDT", -4*3600))
	upd := time.Date(2024, 4, 20, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-02", publishedDate(&gofeed.Item{PublishedParsed: &pub}, "2024-06-01"))
	assert.Equal(t, "2024-05-01", publishedDate(&gofeed.Item{Published: "2024-05-01"}, "2024-06-01"))
	// only the publish time counts, an update time alone falls back to today
	assert.Equal(t, "2024-06-01", publishedDate(&gofeed.Item{UpdatedParsed: &upd}, "2024-06-01"))
	assert.Equal(t, "2024-06-01", publishedDate(&gofeed.Item{Published: "soon"}, "2024-06-01"))
}
