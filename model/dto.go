package model

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

//Sentiment labels
const (
	Positive = "Positive"
	Neutral  = "Neutral"
	Negative = "Negative"
)

//Column names shared between pipeline stages.
const (
	ColDate           = "Date"
	ColOpen           = "Open"
	ColHigh           = "High"
	ColLow            = "Low"
	ColClose          = "Close"
	ColVolume         = "Volume"
	ColSymbol         = "Symbol"
	ColTitle          = "title"
	ColLink           = "link"
	ColPublished      = "published"
	ColSource         = "source"
	ColScrapedOn      = "scraped_on"
	ColSentiment      = "sentiment"
	ColSentimentLabel = "sentiment_label"
	ColSubjectivity   = "subjectivity"
	ColMeanSentiment  = "mean_sentiment"
	ColSentimentCount = "sentiment_count"
)

//Quote represents a single OHLCV bar.
type Quote struct {
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

//Fundamentals holds the raw company figures and the ratios derived from them.
//Absent figures are invalid sql.NullFloat64 values.
type Fundamentals struct {
	Symbol            string
	Price             sql.NullFloat64
	SharesOutstanding sql.NullFloat64
	DividendRate      float64
	TrailingEps       sql.NullFloat64
	ForwardEps        sql.NullFloat64
	PriceToBook       sql.NullFloat64
	ReturnOnEquity    sql.NullFloat64
	DebtToEquity      sql.NullFloat64
	DividendYield     sql.NullFloat64
	MarketCap         sql.NullFloat64
	TrailingPE        sql.NullFloat64
	ForwardPE         sql.NullFloat64
}

func (f *Fundamentals) String() string {
	return toJSONString(f)
}

//Headline is a single news entry collected from a feed or news api.
type Headline struct {
	Title     string
	Link      string
	Published string
	Source    string
	ScrapedOn string
}

//ScoredHeadline carries the sentiment scores for a headline.
type ScoredHeadline struct {
	Headline
	Compound     float64
	Polarity     float64
	Subjectivity float64
	Adjust       float64
	Sentiment    float64
	Label        string
}

//SentimentSummary aggregates one day's scored headlines.
type SentimentSummary struct {
	Date         string  `json:"date" db:"date"`
	NumArticles  int     `json:"num_articles" db:"num_articles"`
	AvgSentiment float64 `json:"avg_sentiment" db:"avg_sentiment"`
	NumPositive  int     `json:"num_positive" db:"num_positive"`
	NumNeutral   int     `json:"num_neutral" db:"num_neutral"`
	NumNegative  int     `json:"num_negative" db:"num_negative"`
	Udate        string  `json:"-" db:"udate"`
	Utime        string  `json:"-" db:"utime"`
}

func (s *SentimentSummary) String() string {
	return toJSONString(s)
}

//Prediction is a persisted daily close price prediction.
type Prediction struct {
	Symbol string  `db:"symbol"`
	Date   string  `db:"date"`
	Model  string  `db:"model"`
	Value  float64 `db:"value"`
	Source string  `db:"source"`
	Udate  string  `db:"udate"`
	Utime  string  `db:"utime"`
}

//Stats records the elapsed time of a pipeline stage.
type Stats struct {
	Code  string  `db:"code"`
	Start string  `db:"start"`
	End   string  `db:"end"`
	Dur   float64 `db:"dur"`
}

//TrainRun records the outcome of a model training run.
type TrainRun struct {
	RunID    string  `db:"run_id"`
	Model    string  `db:"model"`
	Source   string  `db:"source"`
	Rows     int     `db:"nrows"`
	Features int     `db:"nfeatures"`
	MAE      float64 `db:"mae"`
	MSE      float64 `db:"mse"`
	R2       float64 `db:"r2"`
	Path     string  `db:"path"`
	Udate    string  `db:"udate"`
	Utime    string  `db:"utime"`
}

func (r *TrainRun) String() string {
	return toJSONString(r)
}

func toJSONString(i interface{}) string {
	j, e := json.Marshal(i)
	if e != nil {
		fmt.Println(e)
	}
	return fmt.Sprintf("%v", string(j))
}
