package global

import (
	"io"
	"os"
	"sync"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/db"
	"github.com/gchaincl/dotsql"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/gorp.v2"
)

var (
	Log = logrus.New()

	dbOnce  sync.Once
	dbmap   *gorp.DbMap
	dot     *dotsql.DotSql
	logFile *os.File
)

const (
	//JOB_CAPACITY buffer size of worker job channels
	JOB_CAPACITY = 512
)

func init() {
	Log.SetFormatter(&prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	SetupLog()
}

//SetupLog applies log level and log file settings from conf.Args.
//It may be called again after the configuration is reloaded.
func SetupLog() {
	switch conf.Args.LogLevel {
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "info":
		Log.SetLevel(logrus.InfoLevel)
	case "warning":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	case "fatal":
		Log.SetLevel(logrus.FatalLevel)
	case "panic":
		Log.SetLevel(logrus.PanicLevel)
	}

	if logFile != nil {
		logFile.Close()
		logFile = nil
		Log.SetOutput(os.Stdout)
	}
	if conf.Args.LogFile == "" {
		return
	}
	f, e := os.OpenFile(conf.Args.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if e != nil {
		Log.Warnf("failed to open log file %s, logging to stdout only: %+v", conf.Args.LogFile, e)
		return
	}
	logFile = f
	Log.SetOutput(io.MultiWriter(os.Stdout, logFile))
}

//DB returns the shared DbMap and named sql statements,
//connecting on first use. Connection failure is fatal.
func DB() (*gorp.DbMap, *dotsql.DotSql) {
	dbOnce.Do(func() {
		var e error
		dbmap, e = db.Get(true)
		if e != nil {
			Log.Panicf("failed to init database: %+v", e)
		}
		dot, e = db.Dot()
		if e != nil {
			Log.Panicf("failed to init dotsql: %+v", e)
		}
	})
	return dbmap, dot
}
