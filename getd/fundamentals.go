package getd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/model"
	"github.com/pkg/errors"
)

//Fundamental ratio columns appended to the analysis table.
const (
	ColPERatio       = "PE_Ratio"
	ColPBRatio       = "PB_Ratio"
	ColROE           = "ROE"
	ColDERatio       = "DE_Ratio"
	ColEPS           = "EPS"
	ColDividendYield = "Dividend_Yield"
	ColMarketCap     = "Market_Cap"
)

//FundamentalColumns lists the ratio columns in table order.
var FundamentalColumns = []string{ColPERatio, ColPBRatio, ColROE, ColDERatio, ColEPS, ColDividendYield, ColMarketCap}

const summaryModules = "financialData,defaultKeyStatistics,summaryDetail,price"

type quoteSummary struct {
	QuoteSummary struct {
		Result []map[string]map[string]json.RawMessage `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

//FetchFundamentals reads the company figures of symbol from the quote summary
//and derives the valuation ratios.
func FetchFundamentals(ctx context.Context, symbol string) (f *model.Fundamentals, e error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q := url.Values{}
	q.Set("modules", summaryModules)
	body, e := yahooGet(ctx, fmt.Sprintf("/v10/finance/quoteSummary/%s", url.PathEscape(symbol)), q, conf.Args.DefaultRetry)
	if e != nil {
		return nil, errors.WithMessage(e, symbol)
	}
	f, e = parseSummary(symbol, body)
	if e != nil {
		return nil, e
	}
	Derive(f)
	log.Debugf("%s fundamentals: %v", symbol, f)
	return f, nil
}

func parseSummary(symbol string, body []byte) (*model.Fundamentals, error) {
	qs := new(quoteSummary)
	if e := json.Unmarshal(body, qs); e != nil {
		return nil, errors.Wrapf(e, "%s failed to parse quote summary", symbol)
	}
	if qs.QuoteSummary.Error != nil {
		return nil, errors.Errorf("%s quote summary error %s: %s", symbol,
			qs.QuoteSummary.Error.Code, qs.QuoteSummary.Error.Description)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, errors.Errorf("%s quote summary is empty", symbol)
	}
	m := qs.QuoteSummary.Result[0]
	f := &model.Fundamentals{Symbol: symbol}
	f.Price = raw(m, "financialData", "currentPrice")
	if !f.Price.Valid {
		f.Price = raw(m, "price", "regularMarketPrice")
	}
	if !f.Price.Valid {
		f.Price = raw(m, "summaryDetail", "regularMarketPrice")
	}
	f.SharesOutstanding = raw(m, "defaultKeyStatistics", "sharesOutstanding")
	if dr := raw(m, "summaryDetail", "dividendRate"); dr.Valid {
		f.DividendRate = dr.Float64
	}
	f.TrailingEps = raw(m, "defaultKeyStatistics", "trailingEps")
	f.ForwardEps = raw(m, "defaultKeyStatistics", "forwardEps")
	f.PriceToBook = raw(m, "defaultKeyStatistics", "priceToBook")
	f.ReturnOnEquity = raw(m, "financialData", "returnOnEquity")
	f.DebtToEquity = raw(m, "financialData", "debtToEquity")
	return f, nil
}

//raw extracts a number from a quote summary field, which is either a bare
//number or an object carrying it under "raw".
func raw(m map[string]map[string]json.RawMessage, module, field string) (n sql.NullFloat64) {
	mod, ok := m[module]
	if !ok {
		return
	}
	rm, ok := mod[field]
	if !ok {
		return
	}
	var v float64
	if e := json.Unmarshal(rm, &v); e == nil {
		return sql.NullFloat64{Float64: v, Valid: true}
	}
	var obj struct {
		Raw *float64 `json:"raw"`
	}
	if e := json.Unmarshal(rm, &obj); e == nil && obj.Raw != nil {
		return sql.NullFloat64{Float64: *obj.Raw, Valid: true}
	}
	return
}

//Derive fills the dividend yield, market cap and P/E ratios from the raw figures.
func Derive(f *model.Fundamentals) {
	price := f.Price
	if price.Valid && price.Float64 != 0 {
		f.DividendYield = sql.NullFloat64{Float64: f.DividendRate / price.Float64 * 100, Valid: true}
	}
	if price.Valid && f.SharesOutstanding.Valid {
		f.MarketCap = sql.NullFloat64{Float64: price.Float64 * f.SharesOutstanding.Float64, Valid: true}
	}
	f.TrailingPE = ratio(price, f.TrailingEps)
	f.ForwardPE = ratio(price, f.ForwardEps)
}

func ratio(num, den sql.NullFloat64) sql.NullFloat64 {
	if !num.Valid || !den.Valid || num.Float64 == 0 || den.Float64 == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: num.Float64 / den.Float64, Valid: true}
}

//Ratios returns the ratio cells keyed by column. Unavailable values are empty.
func Ratios(f *model.Fundamentals) map[string]string {
	pe := f.TrailingPE
	if !pe.Valid {
		pe = f.ForwardPE
	}
	return map[string]string{
		ColPERatio:       cell(pe),
		ColPBRatio:       cell(f.PriceToBook),
		ColROE:           cell(f.ReturnOnEquity),
		ColDERatio:       cell(f.DebtToEquity),
		ColEPS:           cell(f.TrailingEps),
		ColDividendYield: cell(f.DividendYield),
		ColMarketCap:     cell(f.MarketCap),
	}
}

func cell(n sql.NullFloat64) string {
	if !n.Valid {
		return ""
	}
	return model.FormatFloat(n.Float64)
}
