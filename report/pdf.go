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
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer lays documents out natively with fpdf.
// It needs no external process and is safe for concurrent use,
// since every call builds its own fpdf instance.
type PDFRenderer struct {
	Sheet  StyleSheet
	Author string
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{Sheet: DefaultStyleSheet, Author: "IntelliMarket"}
}

func (*PDFRenderer) ContentType() string { return "application/pdf" }
func (*PDFRenderer) Extension() string   { return "pdf" }

func (r *PDFRenderer) Render(ctx context.Context, doc Document) (_ []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, renderError(err)
	}
	defer func() {
		if v := recover(); v != nil {
			err = renderError(fmt.Errorf("layout panicked: %v", v))
		}
	}()

	l := newPDFLayout(r.Sheet)
	l.pdf.SetTitle(doc.Title, true)
	l.pdf.SetAuthor(r.Author, true)

	for _, b := range doc.Body {
		l.block(b)
		if l.pdf.Err() {
			break
		}
	}
	if l.pdf.Err() {
		return nil, renderError(l.pdf.Error())
	}

	var buf bytes.Buffer
	if err := l.pdf.Output(&buf); err != nil {
		return nil, renderError(err)
	}
	return buf.Bytes(), nil
}

// pdfLayout holds the state of a single render call.
type pdfLayout struct {
	sheet StyleSheet
	pdf   *fpdf.Fpdf
	tr    func(string) string
}

func newPDFLayout(sheet StyleSheet) *pdfLayout {
	pdf := fpdf.New("P", "mm", sheet.PageSize, "")
	pdf.SetMargins(sheet.Margin, sheet.Margin, sheet.Margin)
	pdf.SetAutoPageBreak(true, sheet.Margin)
	l := &pdfLayout{
		sheet: sheet,
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-sheet.Margin + 4)
		pdf.SetFont(sheet.BodyFont, "I", 8)
		pdf.SetTextColor(int(gray.R), int(gray.G), int(gray.B))
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return l
}

func (l *pdfLayout) block(b Block) {
	st := l.sheet.BlockStyleFor(b)
	switch b.Kind {
	case BlockHeading:
		l.pdf.Ln(st.SpaceBefore)
		if b.Lead {
			l.centered(b.Text, st)
		} else {
			l.spans(FormatInline(b.Text), st)
		}
		l.pdf.Ln(st.SpaceAfter)
	case BlockParagraph:
		if b.Lead {
			l.centered(b.Text, st)
		} else {
			l.spans(FormatInline(b.Text), st)
		}
		l.pdf.Ln(st.SpaceAfter)
	case BlockBulletList:
		l.bullets(b.Items, st)
	case BlockTable:
		l.table(b.Rows, st)
	case BlockBlank:
		l.pdf.Ln(l.sheet.BlankSpace)
	}
}

func (l *pdfLayout) setFont(family string, bold, italic bool, size float64) {
	style := ""
	if bold {
		style += "B"
	}
	if italic {
		style += "I"
	}
	l.pdf.SetFont(family, style, size)
}

func (l *pdfLayout) setTextColor(c Color) {
	l.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}

func (l *pdfLayout) centered(text string, st BlockStyle) {
	l.setFont(l.sheet.BodyFont, st.Bold, false, st.FontSize)
	l.setTextColor(st.Color)
	l.pdf.MultiCell(0, st.LineHeight, l.tr(text), "", string(st.Align), false)
}

// spans writes styled runs as flowing text starting at the current position.
func (l *pdfLayout) spans(spans []Span, st BlockStyle) {
	for _, s := range spans {
		family := l.sheet.BodyFont
		color := st.Color
		if c, ok := l.sheet.SpanColor(s.Kind); ok {
			family = l.sheet.MonoFont
			color = c
		}
		l.setFont(family, st.Bold || s.Bold, s.Italic, st.FontSize)
		l.setTextColor(color)
		l.pdf.Write(st.LineHeight, l.tr(s.Text))
	}
	l.pdf.Ln(st.LineHeight)
}

func (l *pdfLayout) bullets(items []string, st BlockStyle) {
	left, _, _, _ := l.pdf.GetMargins()
	for _, item := range items {
		l.pdf.SetX(left)
		l.setFont(l.sheet.BodyFont, false, false, st.FontSize)
		l.setTextColor(st.Color)
		l.pdf.CellFormat(l.sheet.BulletIndent, st.LineHeight, l.tr("•"), "", 0, "C", false, 0, "")
		// Wrapped lines of the item align with its first character.
		l.pdf.SetLeftMargin(left + l.sheet.BulletIndent)
		l.spans(FormatInline(item), st)
		l.pdf.SetLeftMargin(left)
		l.pdf.Ln(st.SpaceAfter)
	}
}

const cellPadding = 1.5

func (l *pdfLayout) table(rows [][]string, st BlockStyle) {
	rows = NormalizeRows(rows)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	pageW, pageH := l.pdf.GetPageSize()
	left, _, right, bottom := l.pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(rows[0]))

	l.pdf.Ln(st.SpaceBefore)
	border := l.sheet.TableBorder
	l.pdf.SetDrawColor(int(border.R), int(border.G), int(border.B))
	l.pdf.SetLineWidth(0.2)

	for i, row := range rows {
		header := i == 0
		l.setFont(l.sheet.BodyFont, header, false, st.FontSize)

		lines := 1
		for _, c := range row {
			lines = max(lines, len(l.pdf.SplitText(l.tr(c), colW-2*cellPadding)))
		}
		rowH := float64(lines)*st.LineHeight*0.8 + cellPadding

		if l.pdf.GetY()+rowH > pageH-bottom {
			l.pdf.AddPage()
		}

		fill := l.sheet.RowFill(i)
		l.pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
		if header {
			l.setTextColor(l.sheet.TableHeaderText)
		} else {
			l.setTextColor(st.Color)
		}

		y := l.pdf.GetY()
		for j, c := range row {
			x := left + float64(j)*colW
			l.pdf.Rect(x, y, colW, rowH, "FD")
			l.pdf.SetXY(x+cellPadding, y+cellPadding/2)
			l.pdf.MultiCell(colW-2*cellPadding, st.LineHeight*0.8, l.tr(c), "", "L", false)
		}
		l.pdf.SetXY(left, y+rowH)
	}
	l.pdf.Ln(st.SpaceAfter)
}
