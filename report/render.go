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
	"time"
)

// ErrRender is the single failure class of the layout stage.
// Parsing and inline formatting cannot fail.
var ErrRender = errors.New("report rendering failed")

func renderError(cause error) error {
	return fmt.Errorf("%w: %w", ErrRender, cause)
}

// A Renderer lays out a parsed document and returns the complete file bytes.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
	// ContentType is the MIME type of the produced bytes.
	ContentType() string
	// Extension is the file extension of the produced bytes, without dot.
	Extension() string
}

// RenderMarkdown parses body under title and renders the result with r.
func RenderMarkdown(ctx context.Context, r Renderer, title, body string) ([]byte, error) {
	doc := Parse(title, body, time.Now())
	Logger().Debug("rendering report", "title", title, "blocks", len(doc.Body))
	return r.Render(ctx, doc)
}

// NewRenderer returns the renderer registered under backend:
// "fpdf" (the default) or "browser".
func NewRenderer(backend string) (Renderer, error) {
	switch backend {
	case "", "fpdf":
		return NewPDFRenderer(), nil
	case "browser":
		return NewBrowserRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown PDF backend %q", backend)
	}
}
