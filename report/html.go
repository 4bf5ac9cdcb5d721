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
	"fmt"
	"html"
	"html/template"
	"strings"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: {{.Sheet.PageSize}}; margin: {{.Sheet.Margin}}mm; }
body { font-family: {{.Sheet.BodyFont}}, Arial, sans-serif; }
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid {{.Border}}; padding: 3px 5px; text-align: left; }
ul { padding-left: {{.Sheet.BulletIndent}}mm; }
</style>
</head>
<body>
{{.Content}}
</body>
</html>
`))

// HTML renders doc as a standalone HTML page styled by the sheet.
// It is the input of BrowserRenderer and a handy debugging aid.
func (s StyleSheet) HTML(doc Document) (string, error) {
	var content strings.Builder
	for _, b := range doc.Body {
		s.writeHTMLBlock(&content, b)
	}

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, map[string]any{
		"Title":   doc.Title,
		"Sheet":   s,
		"Border":  s.TableBorder.Hex(),
		"Content": template.HTML(content.String()),
	})
	if err != nil {
		return "", renderError(err)
	}
	return buf.String(), nil
}

// blockText marks up the inline text of b. Title and subtitle are written
// as plain text, matching the PDF layout.
func (s StyleSheet) blockText(b Block) string {
	if b.Lead {
		return html.EscapeString(b.Text)
	}
	return s.Markup(FormatInline(b.Text))
}

func (s StyleSheet) writeHTMLBlock(sb *strings.Builder, b Block) {
	st := s.BlockStyleFor(b)
	switch b.Kind {
	case BlockHeading:
		tag := fmt.Sprintf("h%d", b.Level)
		fmt.Fprintf(sb, "<%s style=\"%s\">%s</%s>\n", tag, cssFor(st), s.blockText(b), tag)
	case BlockParagraph:
		fmt.Fprintf(sb, "<p style=\"%s\">%s</p>\n", cssFor(st), s.blockText(b))
	case BlockBulletList:
		fmt.Fprintf(sb, "<ul style=\"%s\">\n", cssFor(st))
		for _, item := range b.Items {
			fmt.Fprintf(sb, "<li>%s</li>\n", s.Markup(FormatInline(item)))
		}
		sb.WriteString("</ul>\n")
	case BlockTable:
		fmt.Fprintf(sb, "<table style=\"%s\">\n", cssFor(st))
		for i, row := range NormalizeRows(b.Rows) {
			cell := "td"
			color := st.Color
			if i == 0 {
				cell = "th"
				color = s.TableHeaderText
			}
			fmt.Fprintf(sb, "<tr style=\"background:%s;color:%s\">", s.RowFill(i).Hex(), color.Hex())
			for _, c := range row {
				fmt.Fprintf(sb, "<%s>%s</%s>", cell, html.EscapeString(c), cell)
			}
			sb.WriteString("</tr>\n")
		}
		sb.WriteString("</table>\n")
	case BlockBlank:
		fmt.Fprintf(sb, "<div style=\"height:%gmm\"></div>\n", s.BlankSpace)
	}
}

func cssFor(st BlockStyle) string {
	align := map[Alignment]string{
		AlignLeft:    "left",
		AlignCenter:  "center",
		AlignRight:   "right",
		AlignJustify: "justify",
	}[st.Align]
	if align == "" {
		align = "left"
	}
	weight := "normal"
	if st.Bold {
		weight = "bold"
	}
	return fmt.Sprintf("font-size:%gpt;color:%s;text-align:%s;font-weight:%s;margin:%gmm 0 %gmm 0",
		st.FontSize, st.Color.Hex(), align, weight, st.SpaceBefore, st.SpaceAfter)
}
