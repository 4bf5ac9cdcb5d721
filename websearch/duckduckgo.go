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

package websearch

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

	// MaxBackoff caps the wait between retries of a rate-limited search.
	MaxBackoff = 30 * time.Second

	ddgRedirectPrefix = "//duckduckgo.com/l/?uddg="
)

// One request per second for the whole process: DuckDuckGo answers bursts
// with 429 or an empty page.
var ddgLimiter = rate.NewLimiter(rate.Every(time.Second), 1)

// DuckDuckGo searches by scraping the DuckDuckGo HTML endpoint. It needs no
// API key.
type DuckDuckGo struct {
	// Defaults to DefaultDuckDuckGoURL.
	BaseURL    string
	HTTPClient *http.Client
	// Shared process-wide limiter when nil.
	Limiter *rate.Limiter
	// Retries after a 429 response.
	MaxRetries uint64
}

var _ Provider = (*DuckDuckGo)(nil)

func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		BaseURL:    DefaultDuckDuckGoURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxRetries: 4,
	}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	Logger().Info("performing general search", "query", query)
	doc, err := d.fetch(ctx, url.Values{"q": {query}})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var results []Result
	n := limit(maxResults)
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title, link := resultLink(s)
		if title == "" || link == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			URL:     link,
			Snippet: clip(text(s.Find(".result__snippet"))),
		})
		return len(results) < n
	})
	Logger().Info("found search results", "count", len(results))
	return results, nil
}

// News searches recent articles: the query is narrowed to news and the
// results to the past month.
func (d *DuckDuckGo) News(ctx context.Context, query string, maxResults int) ([]NewsResult, error) {
	Logger().Info("searching news", "query", query)
	doc, err := d.fetch(ctx, url.Values{"q": {query + " news"}, "df": {"m"}})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var results []NewsResult
	n := limit(maxResults)
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title, link := resultLink(s)
		if title == "" || link == "" {
			return true
		}
		results = append(results, NewsResult{
			Title:  title,
			URL:    link,
			Source: cmp.Or(text(s.Find(".result__url")), host(link)),
			Date:   text(s.Find(".result__timestamp")),
			Body:   clip(text(s.Find(".result__snippet"))),
		})
		return len(results) < n
	})
	Logger().Info("found news articles", "count", len(results))
	return results, nil
}

func (d *DuckDuckGo) fetch(ctx context.Context, q url.Values) (*goquery.Document, error) {
	limiter := d.Limiter
	if limiter == nil {
		limiter = ddgLimiter
	}
	httpClient := d.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	u := cmp.Or(d.BaseURL, DefaultDuckDuckGoURL) + "?" + q.Encode()

	var doc *goquery.Document
	operation := func() error {
		if err := limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")

		resp, err := httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			Logger().Warn("search rate limited, backing off")
			return fmt.Errorf("rate limited: HTTP %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("HTTP %d", resp.StatusCode))
		}

		doc, err = goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse HTML: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = MaxBackoff
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, d.MaxRetries), ctx)); err != nil {
		return nil, err
	}
	return doc, nil
}

func resultLink(s *goquery.Selection) (title, link string) {
	a := s.Find("a.result__a").First()
	href, _ := a.Attr("href")
	return text(a), cleanURL(href)
}

// cleanURL unwraps DuckDuckGo redirect links.
func cleanURL(href string) string {
	if !strings.HasPrefix(href, ddgRedirectPrefix) {
		return href
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(href, ddgRedirectPrefix))
	if err != nil {
		return href
	}
	if i := strings.Index(decoded, "&"); i > 0 {
		decoded = decoded[:i]
	}
	return decoded
}

func host(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
