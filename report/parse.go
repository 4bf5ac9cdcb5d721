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
	"strings"
	"time"
)

// SubtitleLayout is the timestamp layout of the generated subtitle.
const SubtitleLayout = "2006-01-02 15:04:05"

// Parse converts a markdown-shaped body into a Document.
//
// The title always yields a level-1 heading followed by a "Generated on"
// subtitle, so an empty body still produces a valid document. Parse never
// fails: anything it does not recognize becomes a paragraph.
func Parse(title, body string, now time.Time) Document {
	acc := accumulator{
		blocks: titleBlocks(title, now),
	}
	for _, line := range splitLines(body) {
		acc = acc.step(classify(line))
	}
	acc = acc.flush()
	return Document{Title: title, Body: acc.blocks}
}

func titleBlocks(title string, now time.Time) []Block {
	heading := Heading(1, strings.TrimSpace(title))
	heading.Lead = true
	subtitle := Paragraph("Generated on " + now.Format(SubtitleLayout))
	subtitle.Lead = true
	return []Block{heading, subtitle}
}

// ParseBlocks is like Parse without the title blocks.
func ParseBlocks(body string) []Block {
	var acc accumulator
	for _, line := range splitLines(body) {
		acc = acc.step(classify(line))
	}
	return acc.flush().blocks
}

func splitLines(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineHeading
	lineBullet
	lineTableRow
	lineDivider
	lineText
)

type classifiedLine struct {
	kind  lineKind
	level int
	text  string
	cells []string
}

// classify applies the line rules in order; the first match wins.
func classify(line string) classifiedLine {
	trimmed := strings.TrimSpace(line)

	if trimmed == "" {
		return classifiedLine{kind: lineBlank}
	}

	if level, text, ok := headingLine(trimmed); ok {
		return classifiedLine{kind: lineHeading, level: level, text: text}
	}

	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return classifiedLine{kind: lineBullet, text: strings.TrimSpace(trimmed[2:])}
	}

	if len(trimmed) > 1 && strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
		cells := tableCells(trimmed)
		if isDivider(cells) {
			return classifiedLine{kind: lineDivider}
		}
		return classifiedLine{kind: lineTableRow, cells: cells}
	}

	return classifiedLine{kind: lineText, text: trimmed}
}

// headingLine recognizes a run of '#' followed by at least one other character.
func headingLine(s string) (level int, text string, ok bool) {
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n == 0 || n == len(s) {
		return 0, "", false
	}
	return min(n, MaxHeadingLevel), strings.TrimSpace(s[n:]), true
}

func tableCells(row string) []string {
	parts := strings.Split(row, "|")
	// The row starts and ends with '|', so the outer parts are always empty.
	parts = parts[1 : len(parts)-1]
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func isDivider(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}

type parseState int

const (
	stateIdle parseState = iota
	stateInList
	stateInTable
)

// accumulator is the fold state threaded through the input lines.
// At most one of items and rows is non-empty, matching state.
type accumulator struct {
	state  parseState
	items  []string
	rows   [][]string
	blocks []Block
}

func (a accumulator) step(l classifiedLine) accumulator {
	switch l.kind {
	case lineBlank:
		a = a.flush()
		a.blocks = append(a.blocks, Blank())
	case lineHeading:
		a = a.flush()
		a.blocks = append(a.blocks, Heading(l.level, l.text))
	case lineBullet:
		if a.state != stateInList {
			a = a.flush()
			a.state = stateInList
		}
		a.items = append(a.items, l.text)
	case lineDivider:
		// A divider continues an open table and is otherwise dropped.
		if a.state != stateInTable {
			a = a.flush()
		}
	case lineTableRow:
		if a.state != stateInTable {
			a = a.flush()
			a.state = stateInTable
		}
		a.rows = append(a.rows, l.cells)
	default:
		a = a.flush()
		a.blocks = append(a.blocks, Paragraph(l.text))
	}
	return a
}

// flush materializes the open list or table, if any, and returns to idle.
func (a accumulator) flush() accumulator {
	switch a.state {
	case stateInList:
		if len(a.items) > 0 {
			a.blocks = append(a.blocks, BulletList(a.items...))
		}
	case stateInTable:
		if len(a.rows) > 0 {
			a.blocks = append(a.blocks, Table(a.rows...))
		}
	}
	a.state = stateIdle
	a.items = nil
	a.rows = nil
	return a
}
