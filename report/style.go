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

import "fmt"

// Color is an opaque RGB color.
type Color struct {
	R, G, B uint8
}

// Hex returns the color in #rrggbb form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type Alignment string

const (
	AlignLeft    Alignment = "L"
	AlignCenter  Alignment = "C"
	AlignRight   Alignment = "R"
	AlignJustify Alignment = "J"
)

// BlockStyle holds the layout attributes of one block kind.
// Sizes are in points, spacing in millimeters.
type BlockStyle struct {
	FontSize    float64
	LineHeight  float64
	SpaceBefore float64
	SpaceAfter  float64
	Color       Color
	Align       Alignment
	Bold        bool
}

// StyleSheet is the fixed styling table that feeds the renderers.
// Styles depend on block kind only, never on the content of a block.
type StyleSheet struct {
	PageSize   string
	Margin     float64
	BodyFont   string
	MonoFont   string
	BlankSpace float64

	Title     BlockStyle
	Subtitle  BlockStyle
	Headings  [MaxHeadingLevel]BlockStyle
	Paragraph BlockStyle
	Bullet    BlockStyle
	TableCell BlockStyle

	BulletIndent    float64
	TableHeaderFill Color
	TableHeaderText Color
	TableRowFills   [2]Color
	TableBorder     Color

	Currency   Color
	Percentage Color
	Ticker     Color
}

// HeadingStyle returns the style of the given heading level.
func (s StyleSheet) HeadingStyle(level int) BlockStyle {
	return s.Headings[min(max(level, 1), MaxHeadingLevel)-1]
}

// RowFill returns the background of table row i. Row 0 is the header.
func (s StyleSheet) RowFill(i int) Color {
	if i == 0 {
		return s.TableHeaderFill
	}
	return s.TableRowFills[(i-1)%2]
}

var (
	navy      = Color{0x1f, 0x3a, 0x5f}
	slate     = Color{0x33, 0x41, 0x55}
	gray      = Color{0x64, 0x74, 0x8b}
	textColor = Color{0x1e, 0x29, 0x3b}
)

// DefaultStyleSheet is the house style of IntelliMarket reports.
var DefaultStyleSheet = StyleSheet{
	PageSize:   "A4",
	Margin:     15,
	BodyFont:   "Helvetica",
	MonoFont:   "Courier",
	BlankSpace: 3,

	Title:    BlockStyle{FontSize: 22, LineHeight: 10, SpaceAfter: 2, Color: navy, Align: AlignCenter, Bold: true},
	Subtitle: BlockStyle{FontSize: 9, LineHeight: 5, SpaceAfter: 6, Color: gray, Align: AlignCenter},
	Headings: [MaxHeadingLevel]BlockStyle{
		{FontSize: 16, LineHeight: 8, SpaceBefore: 5, SpaceAfter: 3, Color: navy, Align: AlignLeft, Bold: true},
		{FontSize: 13, LineHeight: 7, SpaceBefore: 4, SpaceAfter: 2, Color: slate, Align: AlignLeft, Bold: true},
		{FontSize: 11, LineHeight: 6, SpaceBefore: 3, SpaceAfter: 2, Color: slate, Align: AlignLeft, Bold: true},
	},
	Paragraph: BlockStyle{FontSize: 10, LineHeight: 5, SpaceAfter: 2, Color: textColor, Align: AlignLeft},
	Bullet:    BlockStyle{FontSize: 10, LineHeight: 5, SpaceAfter: 1, Color: textColor, Align: AlignLeft},
	TableCell: BlockStyle{FontSize: 9, LineHeight: 6, SpaceBefore: 2, SpaceAfter: 4, Color: textColor, Align: AlignLeft},

	BulletIndent:    6,
	TableHeaderFill: navy,
	TableHeaderText: Color{0xff, 0xff, 0xff},
	TableRowFills:   [2]Color{{0xf8, 0xfa, 0xfc}, {0xe2, 0xe8, 0xf0}},
	TableBorder:     Color{0xcb, 0xd5, 0xe1},

	Currency:   Color{0x04, 0x78, 0x57},
	Percentage: Color{0x1d, 0x4e, 0xd8},
	Ticker:     Color{0xb4, 0x53, 0x09},
}

// BlockStyleFor returns the style of a non-table block.
func (s StyleSheet) BlockStyleFor(b Block) BlockStyle {
	switch b.Kind {
	case BlockHeading:
		if b.Lead {
			return s.Title
		}
		return s.HeadingStyle(b.Level)
	case BlockBulletList:
		return s.Bullet
	case BlockTable:
		return s.TableCell
	default:
		if b.Lead {
			return s.Subtitle
		}
		return s.Paragraph
	}
}

// SpanColor returns the highlight color of an inline span kind,
// and false for plain text.
func (s StyleSheet) SpanColor(k SpanKind) (Color, bool) {
	switch k {
	case SpanCurrency:
		return s.Currency, true
	case SpanPercentage:
		return s.Percentage, true
	case SpanTicker:
		return s.Ticker, true
	default:
		return Color{}, false
	}
}
