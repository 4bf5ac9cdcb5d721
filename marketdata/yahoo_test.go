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
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartJSON = `{"chart":{"result":[{
  "meta":{"symbol":"AAPL"},
  "timestamp":[1717200000,1717286400,1717372800],
  "indicators":{"quote":[{
    "open":[189.0,190.0,null],
    "high":[191.0,193.5,null],
    "low":[188.0,189.5,null],
    "close":[190.0,192.5,null],
    "volume":[1000,2500,null]
  }]}
}],"error":null}}`

const fundamentalsJSON = `{"quoteSummary":{"result":[{
  "price":{"longName":"Apple Inc.","marketCap":{"raw":2870000000000,"fmt":"2.87T"}},
  "summaryDetail":{"trailingPE":{"raw":29.456},"dividendYield":{"raw":0.005},"averageVolume":{"raw":55000000}},
  "defaultKeyStatistics":{"trailingEps":{"raw":6.43},"enterpriseValue":{"raw":3000000000000}},
  "financialData":{"totalRevenue":{"raw":385000000000},"returnOnEquity":{"raw":1.47}},
  "assetProfile":{"sector":"Technology","industry":"Consumer Electronics","longBusinessSummary":"Designs phones."}
}],"error":null}}`

const statementsJSON = `{"quoteSummary":{"result":[{
  "incomeStatementHistory":{"incomeStatementHistory":[
    {"maxAge":1,"endDate":{"raw":1727481600,"fmt":"2024-09-28"},"totalRevenue":{"raw":391035000000,"fmt":"391.04B"},"netIncome":{"raw":93736000000}}
  ]},
  "balanceSheetHistory":{"balanceSheetStatements":[]},
  "cashflowStatementHistory":{"cashflowStatements":[
    {"endDate":{"raw":1727481600,"fmt":"2024-09-28"},"freeCashFlow":{"raw":108807000000}}
  ]}
}],"error":null}}`

const notFoundJSON = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newYahooServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v8/finance/chart/AAPL":
			assert.Equal(t, "1d", r.URL.Query().Get("interval"))
			_, _ = w.Write([]byte(chartJSON))
		case r.URL.Path == "/v8/finance/chart/NOPE":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(notFoundJSON))
		case r.URL.Path == "/v10/finance/quoteSummary/AAPL":
			if strings.Contains(r.URL.Query().Get("modules"), "incomeStatementHistory") {
				_, _ = w.Write([]byte(statementsJSON))
				return
			}
			_, _ = w.Write([]byte(fundamentalsJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *YahooClient {
	c := NewYahooClient()
	c.BaseURL = baseURL
	return c
}

func TestYahooClient_History(t *testing.T) {
	srv := newYahooServer(t)

	hist, err := newTestClient(srv.URL).History(t.Context(), "AAPL", "")
	require.NoError(t, err)

	assert.Equal(t, DefaultPeriod, hist.Period)
	require.Len(t, hist.Bars, 2, "bars without close are skipped")
	assert.Equal(t, []float64{190, 192.5}, hist.Closes())
	assert.Equal(t, int64(2500), hist.Bars[1].Volume)
	assert.Equal(t, "2024-06-02", day(hist.Bars[1].Time))
}

func TestYahooClient_Quote(t *testing.T) {
	srv := newYahooServer(t)

	data, err := newTestClient(srv.URL).Quote(t.Context(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc.", data.Name)
	assert.Equal(t, 192.5, *data.CurrentPrice)
	assert.Equal(t, 2.5, data.PriceChange)
	assert.Equal(t, 1.32, data.PriceChangePct)
	assert.Equal(t, "$2.9T", data.MarketCapFormatted)
	assert.Equal(t, 29.46, *data.PERatio)
	assert.Equal(t, 0.5, *data.DividendYield)
	assert.Equal(t, 147.0, *data.ROE)
	assert.Equal(t, "$385.0B", data.RevenueFormatted)
	assert.Equal(t, "$3.0T", data.EnterpriseValueFormatted)
	assert.Equal(t, "Technology", data.Sector)
	assert.Equal(t, "Consumer Electronics", data.Industry)
}

func TestYahooClient_NotFound(t *testing.T) {
	srv := newYahooServer(t)

	_, err := newTestClient(srv.URL).Quote(t.Context(), "NOPE")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	assert.True(t, IsNotFound(err))
}

func TestYahooClient_Statements(t *testing.T) {
	srv := newYahooServer(t)

	st, err := newTestClient(srv.URL).Statements(t.Context(), "AAPL")
	require.NoError(t, err)

	require.Len(t, st.IncomeStatement, 1)
	assert.Equal(t, "2024-09-28", st.IncomeStatement[0].EndDate)
	assert.Equal(t, map[string]float64{
		"totalRevenue": 391035000000,
		"netIncome":    93736000000,
	}, st.IncomeStatement[0].Items)
	assert.Empty(t, st.BalanceSheet)
	require.Len(t, st.CashFlow, 1)

	md := st.Markdown()
	assert.Contains(t, md, "# Financial Statements: AAPL")
	assert.Contains(t, md, "| Item | 2024-09-28 |")
	assert.Contains(t, md, "| totalRevenue | 391,035,000,000 |")
	assert.Contains(t, md, "## Balance Sheet\nNo data available")
}

func TestYahooClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	hist, err := newTestClient(srv.URL).History(t.Context(), "AAPL", "6mo")
	require.NoError(t, err)
	assert.Len(t, hist.Bars, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestYahooClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).History(t.Context(), "AAPL", "6mo")
	var serr statusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}
