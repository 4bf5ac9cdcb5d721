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

// Package report turns the markdown-shaped text produced by the analysts into
// a paginated, styled document.
//
// Rendering happens in two stages. Parse folds the input lines into a flat
// sequence of Block values; a Renderer then lays the blocks out and returns
// the document bytes. Parse is total: malformed input degrades to paragraphs.
package report

// BlockKind identifies the variant held by a Block.
type BlockKind int

const (
	BlockHeading BlockKind = iota + 1
	BlockParagraph
	BlockBulletList
	BlockTable
	BlockBlank
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	case BlockBulletList:
		return "bullet_list"
	case BlockTable:
		return "table"
	case BlockBlank:
		return "blank"
	default:
		return "unknown"
	}
}

// MaxHeadingLevel is the deepest heading level that gets distinct styling.
// Deeper headings collapse to it.
const MaxHeadingLevel = 3

// A Block is one structurally classified unit of document content.
// Only the fields relevant to Kind are set.
type Block struct {
	Kind BlockKind

	// Heading level, 1 to MaxHeadingLevel. Set for BlockHeading only.
	Level int

	// Text of a heading or paragraph. It may contain inline emphasis markers.
	Text string

	// Items of a bullet list.
	Items []string

	// Rows of a table. Row 0 is the header.
	Rows [][]string

	// Lead marks the title heading and subtitle that open every document.
	Lead bool
}

func Heading(level int, text string) Block {
	return Block{Kind: BlockHeading, Level: min(max(level, 1), MaxHeadingLevel), Text: text}
}

func Paragraph(text string) Block {
	return Block{Kind: BlockParagraph, Text: text}
}

func BulletList(items ...string) Block {
	return Block{Kind: BlockBulletList, Items: items}
}

func Table(rows ...[]string) Block {
	return Block{Kind: BlockTable, Rows: rows}
}

func Blank() Block {
	return Block{Kind: BlockBlank}
}

// Document is the parsed form of a report, ready for layout.
type Document struct {
	Title string
	Body  []Block
}

// Columns returns the width of the widest row of a table block.
func (b Block) Columns() int {
	n := 0
	for _, row := range b.Rows {
		n = max(n, len(row))
	}
	return n
}
