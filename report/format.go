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
	"html"
	"regexp"
	"strings"
)

// SpanKind classifies an inline run of text.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanCurrency
	SpanPercentage
	SpanTicker
)

func (k SpanKind) String() string {
	switch k {
	case SpanCurrency:
		return "currency"
	case SpanPercentage:
		return "percentage"
	case SpanTicker:
		return "ticker"
	default:
		return "text"
	}
}

// A Span is a run of inline text with uniform styling.
// Emphasis is carried as flags, so highlight passes never see markup characters.
type Span struct {
	Kind   SpanKind
	Text   string
	Bold   bool
	Italic bool
}

// An InlinePass rewrites the plain-text spans of a sequence and leaves all
// other spans untouched.
type InlinePass struct {
	Name  string
	Apply func([]Span) []Span
}

var (
	boldPattern     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern   = regexp.MustCompile(`\*(.+?)\*`)
	currencyPattern = regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d+)?[KMB]?`)
	percentPattern  = regexp.MustCompile(`\d+(?:\.\d+)?%`)

	// A whole word of 2 to 5 capitals. The trailing word boundary already
	// rules out a following lowercase letter, so "Revenue" never matches.
	tickerPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
)

// InlinePipeline is the ordered list of passes run by FormatInline.
//
// Bold runs before italic so that "**" is never read as two single markers.
// The highlight passes run after emphasis and only match inside text spans;
// emphasis markers have been consumed by then, so none of them can leak into
// a currency, percentage or ticker match.
var InlinePipeline = []InlinePass{
	{Name: "bold", Apply: emphasisPass(boldPattern, func(s *Span) { s.Bold = true })},
	{Name: "italic", Apply: emphasisPass(italicPattern, func(s *Span) { s.Italic = true })},
	{Name: "currency", Apply: highlightPass(currencyPattern, SpanCurrency)},
	{Name: "percentage", Apply: highlightPass(percentPattern, SpanPercentage)},
	{Name: "ticker", Apply: highlightPass(tickerPattern, SpanTicker)},
}

// FormatInline splits heading, paragraph or bullet text into styled spans.
// It never fails. Table cells must go through CleanCell instead.
//
// Ticker detection is a plain heuristic: any all-caps word of 2 to 5 letters
// is tagged, so acronyms such as "USA" or "CEO" are tagged too.
func FormatInline(text string) []Span {
	if text == "" {
		return nil
	}
	spans := []Span{{Kind: SpanText, Text: text}}
	for _, pass := range InlinePipeline {
		spans = pass.Apply(spans)
	}
	return spans
}

// emphasisPass replaces each match with its first capture group, marked by set.
func emphasisPass(re *regexp.Regexp, set func(*Span)) func([]Span) []Span {
	return func(spans []Span) []Span {
		return rewriteText(spans, re, func(parent Span, m string, groups []string) Span {
			child := parent
			child.Text = groups[1]
			set(&child)
			return child
		})
	}
}

func highlightPass(re *regexp.Regexp, kind SpanKind) func([]Span) []Span {
	return func(spans []Span) []Span {
		return rewriteText(spans, re, func(parent Span, m string, _ []string) Span {
			child := parent
			child.Kind = kind
			child.Text = m
			return child
		})
	}
}

// rewriteText splits every SpanText span around the matches of re.
// Unmatched stretches keep the parent's attributes.
func rewriteText(spans []Span, re *regexp.Regexp, replace func(parent Span, match string, groups []string) Span) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Kind != SpanText {
			out = append(out, s)
			continue
		}
		idx := re.FindAllStringSubmatchIndex(s.Text, -1)
		if len(idx) == 0 {
			out = append(out, s)
			continue
		}
		last := 0
		for _, loc := range idx {
			if loc[0] > last {
				out = append(out, withText(s, s.Text[last:loc[0]]))
			}
			groups := make([]string, len(loc)/2)
			for g := range groups {
				if loc[2*g] >= 0 {
					groups[g] = s.Text[loc[2*g]:loc[2*g+1]]
				}
			}
			out = append(out, replace(s, groups[0], groups))
			last = loc[1]
		}
		if last < len(s.Text) {
			out = append(out, withText(s, s.Text[last:]))
		}
	}
	return out
}

func withText(s Span, text string) Span {
	s.Text = text
	return s
}

// PlainText concatenates the text of spans without any styling.
func PlainText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Markup renders spans as inline HTML markup using DefaultStyleSheet.
func Markup(spans []Span) string {
	return DefaultStyleSheet.Markup(spans)
}

// Markup renders spans as inline HTML markup. Text is escaped.
func (s StyleSheet) Markup(spans []Span) string {
	var sb strings.Builder
	for _, span := range spans {
		text := html.EscapeString(span.Text)
		if c, ok := s.SpanColor(span.Kind); ok {
			text = `<font color="` + c.Hex() + `" face="` + s.MonoFont + `">` + text + `</font>`
		}
		if span.Italic {
			text = "<i>" + text + "</i>"
		}
		if span.Bold {
			text = "<b>" + text + "</b>"
		}
		sb.WriteString(text)
	}
	return sb.String()
}
