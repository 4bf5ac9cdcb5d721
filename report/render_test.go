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
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `## Executive Summary
**Recommendation: BUY** with a 12-month target of $210 for AAPL.

### Key Metrics
| Metric | Value | Note |
|--------|-------|------|
| P/E | 28.5 | **premium** |
| Margin | 45.2% | |

- Revenue grew 15% to $2.5B
- Services at *record* levels

Closing remarks.`

func TestPDFRenderer_Render(t *testing.T) {
	r := NewPDFRenderer()
	doc := Parse("AAPL Investment Analysis", sampleReport, fixedNow)

	out, err := r.Render(t.Context(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", r.ContentType())
	assert.Equal(t, "pdf", r.Extension())
}

func TestPDFRenderer_EmptyBody(t *testing.T) {
	out, err := RenderMarkdown(t.Context(), NewPDFRenderer(), "Only a title", "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFRenderer_ManyPages(t *testing.T) {
	var sb strings.Builder
	for range 200 {
		sb.WriteString("| A | B |\n| 1 | 2 |\n\n- bullet with $1.5M and 3%\nparagraph text for TSLA\n")
	}
	out, err := RenderMarkdown(t.Context(), NewPDFRenderer(), "Long", sb.String())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFRenderer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := NewPDFRenderer().Render(ctx, Parse("T", "x", fixedNow))
	assert.ErrorIs(t, err, ErrRender)
}

func TestPDFRenderer_LayoutFailure(t *testing.T) {
	r := NewPDFRenderer()
	r.Sheet.PageSize = "no-such-size"

	_, err := r.Render(t.Context(), Parse("T", "x", fixedNow))
	assert.ErrorIs(t, err, ErrRender)
}

func TestStyleSheet_HTML(t *testing.T) {
	doc := Parse("AAPL Investment Analysis", sampleReport, fixedNow)

	html, err := DefaultStyleSheet.HTML(doc)
	require.NoError(t, err)

	assert.Contains(t, html, "<title>AAPL Investment Analysis</title>")
	assert.Contains(t, html, "<th>Metric</th>")
	assert.Contains(t, html, "<td>premium</td>")
	assert.Contains(t, html, "<td></td>")
	assert.Contains(t, html, "<li>")
	assert.Contains(t, html, `face="Courier">AAPL</font>`)
	assert.NotContains(t, html, "|---")
}

func TestStyleSheet_HTMLTitleIsPlain(t *testing.T) {
	doc := Parse("AAPL **Analysis**", "Body", fixedNow)

	html, err := DefaultStyleSheet.HTML(doc)
	require.NoError(t, err)

	assert.Contains(t, html, ">AAPL **Analysis**</h1>")
	assert.Contains(t, html, ">Generated on ")
	assert.NotContains(t, html, `face="Courier">AAPL</font>`)
}

func TestStyleSheet_RowFill(t *testing.T) {
	s := DefaultStyleSheet
	assert.Equal(t, s.TableHeaderFill, s.RowFill(0))
	assert.Equal(t, s.TableRowFills[0], s.RowFill(1))
	assert.Equal(t, s.TableRowFills[1], s.RowFill(2))
	assert.Equal(t, s.TableRowFills[0], s.RowFill(3))
}

func TestStyleSheet_BlockStyleFor(t *testing.T) {
	s := DefaultStyleSheet
	doc := Parse("T", "#### deep", fixedNow)

	assert.Equal(t, s.Title, s.BlockStyleFor(doc.Body[0]))
	assert.Equal(t, s.Subtitle, s.BlockStyleFor(doc.Body[1]))
	assert.Equal(t, s.Headings[2], s.BlockStyleFor(doc.Body[2]))
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)
	assert.IsType(t, &PDFRenderer{}, r)

	r, err = NewRenderer("browser")
	require.NoError(t, err)
	assert.IsType(t, &BrowserRenderer{}, r)

	_, err = NewRenderer("latex")
	assert.Error(t, err)
}
