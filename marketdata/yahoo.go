// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package marketdata

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	defaultUserAgent    = "Mozilla/5.0 (compatible; intellimarket/1.0)"

	fundamentalModules = "price,summaryDetail,defaultKeyStatistics,financialData,assetProfile"
	statementModules   = "incomeStatementHistory,balanceSheetHistory,cashflowStatementHistory"
)

// YahooClient is a Provider backed by the public Yahoo Finance JSON API.
type YahooClient struct {
	// Defaults to DefaultYahooBaseURL.
	BaseURL string
	// Defaults to a client with a 30 seconds timeout.
	HTTPClient *http.Client
	UserAgent  string
	// Maximum number of retries on rate limiting and server errors.
	MaxRetries uint64
}

var _ Provider = (*YahooClient)(nil)

func NewYahooClient() *YahooClient {
	return &YahooClient{
		BaseURL:    DefaultYahooBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		UserAgent:  defaultUserAgent,
		MaxRetries: 3,
	}
}

func (c *YahooClient) Quote(ctx context.Context, symbol string) (*StockData, error) {
	Logger().Info("fetching stock data", "symbol", symbol)
	hist, err := c.History(ctx, symbol, DefaultPeriod)
	if err != nil {
		return nil, err
	}

	var summary quoteSummaryResult
	if err := c.quoteSummary(ctx, symbol, fundamentalModules, &summary); err != nil {
		return nil, err
	}

	data, err := NewStockData(symbol, hist, summary.fundamentals())
	if err != nil {
		return nil, err
	}
	Logger().Info("processed stock data",
		"symbol", symbol,
		"current_price", *data.CurrentPrice,
		"market_cap", data.MarketCapFormatted)
	return data, nil
}

func (c *YahooClient) History(ctx context.Context, symbol, period string) (*History, error) {
	period = cmp.Or(period, DefaultPeriod)
	q := url.Values{"interval": {"1d"}, "range": {period}}

	var body chartResponse
	if err := c.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), q, &body); err != nil {
		return nil, err
	}
	if e := body.Chart.Error; e != nil {
		return nil, yahooError(symbol, e)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}

	hist := body.Chart.Result[0].history(symbol, period)
	if hist.Empty() {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}
	return hist, nil
}

func (c *YahooClient) Statements(ctx context.Context, symbol string) (*Statements, error) {
	Logger().Info("fetching financial statements", "symbol", symbol)
	var summary quoteSummaryResult
	if err := c.quoteSummary(ctx, symbol, statementModules, &summary); err != nil {
		return nil, err
	}
	return &Statements{
		Symbol:          symbol,
		IncomeStatement: statementPeriods(summary.IncomeStatementHistory.IncomeStatementHistory),
		BalanceSheet:    statementPeriods(summary.BalanceSheetHistory.BalanceSheetStatements),
		CashFlow:        statementPeriods(summary.CashflowStatementHistory.CashflowStatements),
	}, nil
}

func (c *YahooClient) quoteSummary(ctx context.Context, symbol, modules string, dst *quoteSummaryResult) error {
	var body quoteSummaryResponse
	q := url.Values{"modules": {modules}}
	if err := c.getJSON(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), q, &body); err != nil {
		return err
	}
	if e := body.QuoteSummary.Error; e != nil {
		return yahooError(symbol, e)
	}
	if len(body.QuoteSummary.Result) == 0 {
		return fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	*dst = body.QuoteSummary.Result[0]
	return nil
}

type statusError struct {
	StatusCode int
	Body       string
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// getJSON decodes the response of a GET request into dst. Rate limiting and
// server errors are retried with exponential backoff. A 404 response still
// carries a JSON error body, which is decoded like any other.
func (c *YahooClient) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	u := strings.TrimRight(cmp.Or(c.BaseURL, DefaultYahooBaseURL), "/") + path + "?" + query.Encode()
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", cmp.Or(c.UserAgent, defaultUserAgent))
		req.Header.Set("Accept", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
			serr := statusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 200)}
			if retryable(resp.StatusCode) {
				Logger().Warn("yahoo request failed, retrying", "url", u, "status", resp.StatusCode)
				return serr
			}
			return backoff.Permanent(serr)
		}
		if err := json.Unmarshal(data, dst); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, c.MaxRetries), ctx))
	if err != nil {
		return fmt.Errorf("yahoo request %s: %w", path, err)
	}
	return nil
}

type yahooErrorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func yahooError(symbol string, e *yahooErrorBody) error {
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return fmt.Errorf("yahoo error for %s: %s: %s", symbol, e.Code, e.Description)
}

// IsNotFound reports whether err means that the symbol does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSymbolNotFound)
}

type chartResponse struct {
	Chart struct {
		Result []chartResult  `json:"result"`
		Error  *yahooErrorBody `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// history converts the columnar chart payload into bars. Days without a
// close (trading halts) are skipped.
func (r chartResult) history(symbol, period string) *History {
	hist := &History{Symbol: symbol, Period: period}
	if len(r.Indicators.Quote) == 0 {
		return hist
	}
	q := r.Indicators.Quote[0]
	at := func(vs []*float64, i int) float64 {
		if i < len(vs) && vs[i] != nil {
			return *vs[i]
		}
		return 0
	}
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		bar := Bar{
			Time:  time.Unix(ts, 0).UTC(),
			Open:  at(q.Open, i),
			High:  at(q.High, i),
			Low:   at(q.Low, i),
			Close: *q.Close[i],
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		hist.Bars = append(hist.Bars, bar)
	}
	return hist
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *yahooErrorBody      `json:"error"`
	} `json:"quoteSummary"`
}

// rawValue is the {"raw": 1.5, "fmt": "1.50"} wrapper of numeric fields.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

type quoteSummaryResult struct {
	Price struct {
		LongName  string   `json:"longName"`
		ShortName string   `json:"shortName"`
		MarketCap rawValue `json:"marketCap"`
	} `json:"price"`
	SummaryDetail struct {
		TrailingPE       rawValue `json:"trailingPE"`
		ForwardPE        rawValue `json:"forwardPE"`
		DividendYield    rawValue `json:"dividendYield"`
		FiftyTwoWeekHigh rawValue `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  rawValue `json:"fiftyTwoWeekLow"`
		AverageVolume    rawValue `json:"averageVolume"`
		MarketCap        rawValue `json:"marketCap"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics struct {
		TrailingEps     rawValue `json:"trailingEps"`
		ForwardEps      rawValue `json:"forwardEps"`
		BookValue       rawValue `json:"bookValue"`
		EnterpriseValue rawValue `json:"enterpriseValue"`
	} `json:"defaultKeyStatistics"`
	FinancialData struct {
		TotalRevenue     rawValue `json:"totalRevenue"`
		GrossMargins     rawValue `json:"grossMargins"`
		OperatingMargins rawValue `json:"operatingMargins"`
		ProfitMargins    rawValue `json:"profitMargins"`
		ReturnOnEquity   rawValue `json:"returnOnEquity"`
		DebtToEquity     rawValue `json:"debtToEquity"`
		CurrentRatio     rawValue `json:"currentRatio"`
	} `json:"financialData"`
	AssetProfile struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"assetProfile"`

	IncomeStatementHistory struct {
		IncomeStatementHistory []map[string]json.RawMessage `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	BalanceSheetHistory struct {
		BalanceSheetStatements []map[string]json.RawMessage `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
	CashflowStatementHistory struct {
		CashflowStatements []map[string]json.RawMessage `json:"cashflowStatements"`
	} `json:"cashflowStatementHistory"`
}

func (r quoteSummaryResult) fundamentals() Fundamentals {
	return Fundamentals{
		Name:             cmp.Or(r.Price.LongName, r.Price.ShortName),
		MarketCap:        firstNonZero(r.Price.MarketCap.Raw, r.SummaryDetail.MarketCap.Raw),
		TrailingPE:       r.SummaryDetail.TrailingPE.Raw,
		ForwardPE:        r.SummaryDetail.ForwardPE.Raw,
		TrailingEPS:      r.DefaultKeyStatistics.TrailingEps.Raw,
		ForwardEPS:       r.DefaultKeyStatistics.ForwardEps.Raw,
		DividendYield:    r.SummaryDetail.DividendYield.Raw,
		FiftyTwoWeekHigh: r.SummaryDetail.FiftyTwoWeekHigh.Raw,
		FiftyTwoWeekLow:  r.SummaryDetail.FiftyTwoWeekLow.Raw,
		AverageVolume:    r.SummaryDetail.AverageVolume.Raw,
		Sector:           r.AssetProfile.Sector,
		Industry:         r.AssetProfile.Industry,
		BusinessSummary:  r.AssetProfile.LongBusinessSummary,
		TotalRevenue:     r.FinancialData.TotalRevenue.Raw,
		GrossMargins:     r.FinancialData.GrossMargins.Raw,
		OperatingMargins: r.FinancialData.OperatingMargins.Raw,
		ProfitMargins:    r.FinancialData.ProfitMargins.Raw,
		ReturnOnEquity:   r.FinancialData.ReturnOnEquity.Raw,
		DebtToEquity:     r.FinancialData.DebtToEquity.Raw,
		CurrentRatio:     r.FinancialData.CurrentRatio.Raw,
		BookValue:        r.DefaultKeyStatistics.BookValue.Raw,
		EnterpriseValue:  r.DefaultKeyStatistics.EnterpriseValue.Raw,
	}
}
