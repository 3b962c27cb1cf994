package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/model"
	"github.com/gchaincl/dotsql"
	"github.com/pkg/errors"

	//mysql driver
	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/gorp.v2"
	//sqlite driver
	_ "modernc.org/sqlite"
)

//go:embed stockpred.sql
var namedSQL string

//Get builds a DbMap from conf.Args.Database, optionally creating missing tables.
func Get(create bool) (*gorp.DbMap, error) {
	d := conf.Args.Database
	switch d.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?readTimeout=1h&writeTimeout=1h",
			d.UserName, d.Password, d.Host, d.Port, d.Schema)
		return Open("mysql", dsn, create)
	default:
		if d.Path != ":memory:" {
			if e := os.MkdirAll(filepath.Dir(d.Path), 0755); e != nil {
				return nil, errors.WithStack(e)
			}
		}
		return Open("sqlite", d.Path, create)
	}
}

//Open connects with the given driver ("mysql" or "sqlite") and maps the pipeline tables.
func Open(driver, dsn string, create bool) (*gorp.DbMap, error) {
	db, e := sql.Open(driver, dsn)
	if e != nil {
		return nil, errors.Wrapf(e, "sql.Open failed for %s", driver)
	}

	var dialect gorp.Dialect
	if driver == "mysql" {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(4)
		db.SetConnMaxLifetime(time.Second * 15)
		dialect = gorp.MySQLDialect{Engine: "InnoDB", Encoding: "utf8mb4"}
	} else {
		// sqlite allows a single writer, and each connection to :memory: is a new database
		db.SetMaxOpenConns(1)
		dialect = gorp.SqliteDialect{}
	}
	if e = db.Ping(); e != nil {
		db.Close()
		return nil, errors.Wrapf(e, "failed to ping %s", driver)
	}

	dbmap := &gorp.DbMap{Db: db, Dialect: dialect}
	dbmap.AddTableWithName(model.Stats{}, "stats").SetKeys(false, "Code")
	dbmap.AddTableWithName(model.Prediction{}, "prediction").SetKeys(false, "Symbol", "Date", "Model")
	dbmap.AddTableWithName(model.SentimentSummary{}, "senti_summary").SetKeys(false, "Date")
	dbmap.AddTableWithName(model.TrainRun{}, "train_run").SetKeys(false, "RunID")

	if create {
		if e = dbmap.CreateTablesIfNotExists(); e != nil {
			db.Close()
			return nil, errors.Wrap(e, "create tables failed")
		}
	}
	return dbmap, nil
}

//Dot loads the named sql statements.
func Dot() (*dotsql.DotSql, error) {
	d, e := dotsql.LoadFromString(namedSQL)
	return d, errors.WithStack(e)
}
