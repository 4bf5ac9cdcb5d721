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

package report

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// BrowserRenderer prints the HTML form of a document to PDF with a headless
// Chromium driven by Playwright. The browser is launched on first use and
// shared by later calls until Close.
type BrowserRenderer struct {
	Sheet StyleSheet

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewBrowserRenderer() *BrowserRenderer {
	return &BrowserRenderer{Sheet: DefaultStyleSheet}
}

func (*BrowserRenderer) ContentType() string { return "application/pdf" }
func (*BrowserRenderer) Extension() string   { return "pdf" }

func (r *BrowserRenderer) launch() (playwright.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil && r.browser.IsConnected() {
		return r.browser, nil
	}
	if r.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("could not start playwright: %w", err)
		}
		r.pw = pw
	}
	browser, err := r.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}
	r.browser = browser
	return browser, nil
}

func (r *BrowserRenderer) Render(ctx context.Context, doc Document) (_ []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, renderError(err)
	}

	html, err := r.Sheet.HTML(doc)
	if err != nil {
		return nil, err
	}

	browser, err := r.launch()
	if err != nil {
		return nil, renderError(err)
	}

	page, err := browser.NewPage()
	if err != nil {
		return nil, renderError(fmt.Errorf("could not create page: %w", err))
	}
	defer func() {
		if e := page.Close(); e != nil {
			Logger().Warn("failed to close page", "error", e)
		}
	}()

	if err = page.SetContent(html); err != nil {
		return nil, renderError(fmt.Errorf("could not set content: %w", err))
	}

	margin := fmt.Sprintf("%gmm", r.Sheet.Margin)
	pdf, err := page.PDF(playwright.PagePdfOptions{
		Format:              playwright.String(r.Sheet.PageSize),
		PrintBackground:     playwright.Bool(true),
		DisplayHeaderFooter: playwright.Bool(true),
		HeaderTemplate:      playwright.String("<span></span>"),
		FooterTemplate: playwright.String(`<div style="font-size:8px;width:100%;text-align:center;">` +
			`Page <span class="pageNumber"></span></div>`),
		Margin: &playwright.Margin{
			Top:    playwright.String(margin),
			Right:  playwright.String(margin),
			Bottom: playwright.String(margin),
			Left:   playwright.String(margin),
		},
	})
	if err != nil {
		return nil, renderError(fmt.Errorf("could not print page: %w", err))
	}
	return pdf, nil
}

// Close shuts the browser and the Playwright driver down.
func (r *BrowserRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.browser != nil {
		errs = append(errs, r.browser.Close())
		r.browser = nil
	}
	if r.pw != nil {
		errs = append(errs, r.pw.Stop())
		r.pw = nil
	}
	return errors.Join(errs...)
}
