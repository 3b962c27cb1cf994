package conf

import (
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Args Global Application Arguments
var Args Arguments

// loadErr keeps the outcome of the last configuration load.
var loadErr error

//Storage backends
const (
	NONE  string = "none"
	LOCAL string = "local"
	S3    string = "s3"
	GCS   string = "gcs"
)

//Model kinds
const (
	FOREST string = "forest"
	LINEAR string = "linear"
)

var (
	//ValidIntervals lists the bar intervals accepted by the price source.
	ValidIntervals = []string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h", "1d", "5d", "1wk", "1mo", "3mo"}
	//ValidPeriods lists the look-back ranges accepted by the price source.
	ValidPeriods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}
)

//Arguments arguments struct type
type Arguments struct {
	DefaultRetry      int      `mapstructure:"default_retry" validate:"min=1"`
	Concurrency       int      `mapstructure:"concurrency" validate:"min=1"`
	CPUUsageThreshold float64  `mapstructure:"cpu_usage_threshold" validate:"gte=0,lte=100"`
	LogLevel          string   `mapstructure:"log_level" validate:"oneof=debug info warning error fatal panic"`
	LogFile           string   `mapstructure:"log_file"`
	Profiling         string   `mapstructure:"profiling" validate:"omitempty,oneof=cpu mem"`
	DataDir           string   `mapstructure:"data_dir" validate:"required"`
	Symbols           []string `mapstructure:"symbols"`
	Database          struct {
		Driver   string `mapstructure:"driver" validate:"oneof=sqlite mysql"`
		Path     string `mapstructure:"path"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Schema   string `mapstructure:"schema"`
		UserName string `mapstructure:"user_name"`
		Password string `mapstructure:"password"`
	}
	Network struct {
		HTTPTimeout      int      `mapstructure:"http_timeout" validate:"min=1"`
		DefaultUserAgent string   `mapstructure:"default_user_agent"`
		RotateAgent      bool     `mapstructure:"rotate_agent"`
		Proxy            string   `mapstructure:"proxy"`
		YahooHosts       []string `mapstructure:"yahoo_hosts" validate:"min=1,dive,url"`
	}
	Price struct {
		Period           string `mapstructure:"period" validate:"oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
		Interval         string `mapstructure:"interval" validate:"oneof=1m 2m 5m 15m 30m 60m 90m 1h 1d 5d 1wk 1mo 3mo"`
		AnalysisPeriod   string `mapstructure:"analysis_period" validate:"oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
		AnalysisInterval string `mapstructure:"analysis_interval" validate:"oneof=1m 2m 5m 15m 30m 60m 90m 1h 1d 5d 1wk 1mo 3mo"`
		Retry            int    `mapstructure:"retry" validate:"min=1"`
		RetryDelay       int    `mapstructure:"retry_delay" validate:"gte=0"`
	}
	Indicator struct {
		ShortWindow int     `mapstructure:"short_window" validate:"min=1"`
		LongWindow  int     `mapstructure:"long_window" validate:"min=1,gtfield=ShortWindow"`
		RSIWindow   int     `mapstructure:"rsi_window" validate:"min=1"`
		Overbought  float64 `mapstructure:"overbought" validate:"gt=0,lte=100"`
		Oversold    float64 `mapstructure:"oversold" validate:"gte=0,ltfield=Overbought"`
		MACDFast    int     `mapstructure:"macd_fast" validate:"min=1"`
		MACDSlow    int     `mapstructure:"macd_slow" validate:"min=1,gtfield=MACDFast"`
		MACDSignal  int     `mapstructure:"macd_signal" validate:"min=1"`
		TrendWindow int     `mapstructure:"trend_window" validate:"min=1"`
	}
	News struct {
		RSSFeeds       []string `mapstructure:"rss_feeds" validate:"dive,url"`
		OutputFilename string   `mapstructure:"output_filename" validate:"required"`
		UserAgent      string   `mapstructure:"user_agent"`
		FeedTimeout    int      `mapstructure:"feed_timeout" validate:"min=1"`
		FeedInterval   int      `mapstructure:"feed_interval" validate:"gte=0"`
		FinnhubURL     string   `mapstructure:"finnhub_url" validate:"url"`
		FinnhubToken   string   `mapstructure:"finnhub_token"`
		DaysBack       int      `mapstructure:"days_back" validate:"min=1"`
		RatePerMinute  int      `mapstructure:"rate_per_minute" validate:"min=1"`
		MinDelayMs     int      `mapstructure:"min_delay_ms" validate:"gte=0"`
		MaxDelayMs     int      `mapstructure:"max_delay_ms" validate:"gtefield=MinDelayMs"`
	}
	Sentiment struct {
		VaderWeight       float64 `mapstructure:"vader_weight" validate:"gte=0,lte=1"`
		PolarityWeight    float64 `mapstructure:"polarity_weight" validate:"gte=0,lte=1"`
		PositiveThreshold float64 `mapstructure:"positive_threshold"`
		NegativeThreshold float64 `mapstructure:"negative_threshold" validate:"ltefield=PositiveThreshold"`
	}
	Model struct {
		Dir            string  `mapstructure:"dir" validate:"required"`
		File           string  `mapstructure:"file" validate:"required"`
		Kind           string  `mapstructure:"kind" validate:"oneof=forest linear"`
		Trees          int     `mapstructure:"trees" validate:"min=1"`
		Seed           int64   `mapstructure:"seed"`
		TestSize       float64 `mapstructure:"test_size" validate:"gt=0,lt=1"`
		MaxDepth       int     `mapstructure:"max_depth" validate:"gte=0"`
		MinSamplesLeaf int     `mapstructure:"min_samples_leaf" validate:"min=1"`
		MaxFeatures    int     `mapstructure:"max_features" validate:"gte=0"`
		Ridge          float64 `mapstructure:"ridge" validate:"gte=0"`
	}
	Serve struct {
		Addr string `mapstructure:"addr" validate:"required"`
		Mode string `mapstructure:"mode" validate:"oneof=debug release test"`
	}
	Storage struct {
		Backend     string `mapstructure:"backend" validate:"oneof=none local s3 gcs"`
		Bucket      string `mapstructure:"bucket"`
		Region      string `mapstructure:"region"`
		Endpoint    string `mapstructure:"endpoint"`
		PathStyle   bool   `mapstructure:"path_style"`
		LocalDir    string `mapstructure:"local_dir"`
		Credentials string `mapstructure:"credentials"`
		UseProxy    bool   `mapstructure:"use_proxy"`
		UploadQueue int    `mapstructure:"upload_queue" validate:"min=1"`
		Workers     int    `mapstructure:"workers" validate:"min=1"`
		Timeout     int    `mapstructure:"timeout" validate:"min=1"`
	}
	Schedule struct {
		Cron  string `mapstructure:"cron" validate:"required"`
		Train bool   `mapstructure:"train"`
	}
}

func init() {
	setDefaults()
	// .env is optional; credentials may come from the real environment
	_ = godotenv.Load()
	viper.SetConfigName("stockpred") // name of config file (without extension)
	viper.AddConfigPath("$GOPATH/bin")
	viper.AddConfigPath(".") // optionally look for config in the working directory
	viper.AddConfigPath("$HOME")
	bindEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			loadErr = errors.Wrap(err, "config file error")
			logrus.Errorf("%+v", loadErr)
			return
		}
	}
	if loadErr = decode(); loadErr != nil {
		logrus.Errorf("config error: %+v", loadErr)
	}
}

//Err returns the error of the last configuration load, nil if it was valid.
//Commands must not run on an invalid configuration.
func Err() error {
	return loadErr
}

//Load reads configuration from the specified file, overriding any previously loaded values.
func Load(file string) error {
	viper.SetConfigFile(file)
	if err := viper.ReadInConfig(); err != nil {
		loadErr = errors.Wrapf(err, "failed to read config file %s", file)
		return loadErr
	}
	loadErr = decode()
	return loadErr
}

func bindEnv() {
	viper.SetEnvPrefix("stockpred")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("news.finnhub_token", "FINNHUB_API_KEY", "STOCKPRED_NEWS_FINNHUB_TOKEN")
	_ = viper.BindEnv("storage.bucket", "STOCKPRED_STORAGE_BUCKET", "S3_BUCKET")
	_ = viper.BindEnv("storage.credentials", "GOOGLE_APPLICATION_CREDENTIALS")
}

func decode() error {
	if err := viper.Unmarshal(&Args); err != nil {
		return errors.WithStack(err)
	}
	logrus.Debugf("Configuration: %+v", Args)
	return checkConfig()
}

func checkConfig() error {
	if e := validator.New().Struct(&Args); e != nil {
		return errors.Wrap(e, "invalid configuration")
	}
	if Args.Sentiment.VaderWeight+Args.Sentiment.PolarityWeight == 0 {
		return errors.New("invalid configuration, sentiment weights must not both be zero")
	}
	return nil
}

//Path joins the given elements onto the data directory.
func (a *Arguments) Path(elem ...string) string {
	return filepath.Join(append([]string{a.DataDir}, elem...)...)
}

//ModelPath returns the location of the persisted model artifact.
func (a *Arguments) ModelPath() string {
	return filepath.Join(a.Model.Dir, a.Model.File)
}

func setDefaults() {
	Args.DefaultRetry = 3
	Args.Concurrency = 4
	Args.CPUUsageThreshold = 80
	Args.LogLevel = "info"
	Args.DataDir = "data"
	Args.Symbols = []string{"MSFT"}
	Args.Database.Driver = "sqlite"
	Args.Database.Path = filepath.Join("data", "stockpred.db")
	Args.Database.Host = "localhost"
	Args.Database.Port = 3306
	Args.Database.Schema = "stockpred"
	Args.Network.HTTPTimeout = 30
	Args.Network.DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	Args.Network.YahooHosts = []string{
		"https://query1.finance.yahoo.com",
		"https://query2.finance.yahoo.com",
	}
	Args.Price.Period = "1mo"
	Args.Price.Interval = "1h"
	Args.Price.AnalysisPeriod = "6mo"
	Args.Price.AnalysisInterval = "1d"
	Args.Price.Retry = 3
	Args.Price.RetryDelay = 5
	Args.Indicator.ShortWindow = 20
	Args.Indicator.LongWindow = 50
	Args.Indicator.RSIWindow = 20
	Args.Indicator.Overbought = 70
	Args.Indicator.Oversold = 30
	Args.Indicator.MACDFast = 12
	Args.Indicator.MACDSlow = 26
	Args.Indicator.MACDSignal = 9
	Args.Indicator.TrendWindow = 20
	Args.News.RSSFeeds = []string{
		"https://feeds.finance.yahoo.com/rss/2.0/headline?s=MSFT&region=US&lang=en-US",
		"https://www.cnbc.com/id/100003114/device/rss/rss.html",
		"https://feeds.content.dowjones.io/public/rss/mw_topstories",
	}
	Args.News.OutputFilename = "scraped_news.csv"
	Args.News.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	Args.News.FeedTimeout = 10
	Args.News.FeedInterval = 5
	Args.News.FinnhubURL = "https://finnhub.io/api/v1"
	Args.News.DaysBack = 90
	Args.News.RatePerMinute = 30
	Args.News.MinDelayMs = 1500
	Args.News.MaxDelayMs = 2500
	Args.Sentiment.VaderWeight = 0.65
	Args.Sentiment.PolarityWeight = 0.35
	Args.Sentiment.PositiveThreshold = 0.05
	Args.Sentiment.NegativeThreshold = -0.05
	Args.Model.Dir = "model"
	Args.Model.File = "final_model.gob.gz"
	Args.Model.Kind = FOREST
	Args.Model.Trees = 100
	Args.Model.Seed = 42
	Args.Model.TestSize = 0.2
	Args.Model.MinSamplesLeaf = 1
	Args.Model.Ridge = 1e-6
	Args.Serve.Addr = ":5000"
	Args.Serve.Mode = "release"
	Args.Storage.Backend = NONE
	Args.Storage.Bucket = "phase-3-bucket"
	Args.Storage.Region = "us-east-1"
	Args.Storage.LocalDir = filepath.Join("data", "bucket")
	Args.Storage.UploadQueue = 16
	Args.Storage.Workers = 2
	Args.Storage.Timeout = 60
	Args.Schedule.Cron = "30 18 * * 1-5"
}
