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
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultTavilyURL = "https://api.tavily.com/search"

// Tavily searches through the Tavily JSON API.
type Tavily struct {
	APIKey string
	// Defaults to DefaultTavilyURL.
	URL        string
	HTTPClient *http.Client
}

var _ Provider = (*Tavily)(nil)

func NewTavily(apiKey string) *Tavily {
	return &Tavily{
		APIKey:     apiKey,
		URL:        DefaultTavilyURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type tavilyRequest struct {
	Query       string `json:"query"`
	Topic       string `json:"topic"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
	Days        int    `json:"days,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	resp, err := t.do(ctx, tavilyRequest{Query: query, Topic: "general", MaxResults: limit(maxResults), SearchDepth: "basic"})
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: clip(r.Content)})
	}
	return results, nil
}

func (t *Tavily) News(ctx context.Context, query string, maxResults int) ([]NewsResult, error) {
	resp, err := t.do(ctx, tavilyRequest{Query: query, Topic: "news", MaxResults: limit(maxResults), SearchDepth: "basic", Days: 30})
	if err != nil {
		return nil, err
	}
	results := make([]NewsResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, NewsResult{
			Title:  r.Title,
			URL:    r.URL,
			Source: host(r.URL),
			Date:   r.PublishedDate,
			Body:   clip(r.Content),
		})
	}
	return results, nil
}

func (t *Tavily) do(ctx context.Context, body tavilyRequest) (*tavilyResponse, error) {
	Logger().Info("tavily search", "query", body.Query, "topic", body.Topic)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cmp.Or(t.URL, DefaultTavilyURL), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.APIKey)

	httpClient := t.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var out tavilyResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &out, nil
}
