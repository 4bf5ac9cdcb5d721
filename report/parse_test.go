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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestParseBlocks(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want []Block
	}{
		{
			name: "table divider is dropped",
			body: "| a | b |\n|---|---|\n| c | d |",
			want: []Block{Table([]string{"a", "b"}, []string{"c", "d"})},
		},
		{
			name: "consecutive bullets merge and blank terminates",
			body: "- one\n- two\n\nnormal text",
			want: []Block{BulletList("one", "two"), Blank(), Paragraph("normal text")},
		},
		{
			name: "star bullets",
			body: "* alpha\n- beta",
			want: []Block{BulletList("alpha", "beta")},
		},
		{
			name: "heading levels collapse at three",
			body: "# Title\n## Sub\n### Deep\n#### Deeper",
			want: []Block{
				Heading(1, "Title"),
				Heading(2, "Sub"),
				Heading(3, "Deep"),
				Heading(3, "Deeper"),
			},
		},
		{
			name: "heading flushes list",
			body: "- a\n## Next",
			want: []Block{BulletList("a"), Heading(2, "Next")},
		},
		{
			name: "blank line ends table",
			body: "| a |\n\nx",
			want: []Block{Table([]string{"a"}), Blank(), Paragraph("x")},
		},
		{
			name: "list flushes table",
			body: "| h |\n| v |\n- item",
			want: []Block{Table([]string{"h"}, []string{"v"}), BulletList("item")},
		},
		{
			name: "table flushes list",
			body: "- item\n| h |",
			want: []Block{BulletList("item"), Table([]string{"h"})},
		},
		{
			name: "paragraph ends table",
			body: "| x | y |\nafter",
			want: []Block{Table([]string{"x", "y"}), Paragraph("after")},
		},
		{
			name: "single pipe is a paragraph",
			body: "a | b",
			want: []Block{Paragraph("a | b")},
		},
		{
			name: "aligned divider is dropped",
			body: "| a | b |\n|:---|---:|",
			want: []Block{Table([]string{"a", "b"})},
		},
		{
			name: "empty cell keeps the column",
			body: "| a |  | c |",
			want: []Block{Table([]string{"a", "", "c"})},
		},
		{
			name: "hash run without text is a paragraph",
			body: "###",
			want: []Block{Paragraph("###")},
		},
		{
			name: "trailing list is flushed at end of input",
			body: "intro\n- last",
			want: []Block{Paragraph("intro"), BulletList("last")},
		},
		{
			name: "whitespace-only line is blank",
			body: "a\n   \nb",
			want: []Block{Paragraph("a"), Blank(), Paragraph("b")},
		},
		{
			name: "crlf input",
			body: "# T\r\ntext",
			want: []Block{Heading(1, "T"), Paragraph("text")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseBlocks(tc.body)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseBlocks() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_TitleBlocks(t *testing.T) {
	doc := Parse("AAPL Analysis", "", fixedNow)

	assert.Equal(t, "AAPL Analysis", doc.Title)
	require.Len(t, doc.Body, 2)
	assert.Equal(t, BlockHeading, doc.Body[0].Kind)
	assert.Equal(t, 1, doc.Body[0].Level)
	assert.Equal(t, "AAPL Analysis", doc.Body[0].Text)
	assert.True(t, doc.Body[0].Lead)
	assert.Equal(t, BlockParagraph, doc.Body[1].Kind)
	assert.Equal(t, "Generated on 2025-03-14 09:26:53", doc.Body[1].Text)
	assert.True(t, doc.Body[1].Lead)
}

func TestParse_BodyFollowsTitle(t *testing.T) {
	doc := Parse("T", "## Summary\nok", fixedNow)

	require.Len(t, doc.Body, 4)
	assert.Equal(t, Heading(2, "Summary"), doc.Body[2])
	assert.Equal(t, Paragraph("ok"), doc.Body[3])
}

func TestParse_TableRowsNeverContainDividers(t *testing.T) {
	body := "| Metric | Value |\n|--------|-------|\n| P/E | 28.5 |\n| --- | --- |\n| EPS | 6.1 |"
	blocks := ParseBlocks(body)

	require.Len(t, blocks, 1)
	assert.Equal(t, [][]string{
		{"Metric", "Value"},
		{"P/E", "28.5"},
		{"EPS", "6.1"},
	}, blocks[0].Rows)
}

func TestBlock_Columns(t *testing.T) {
	b := Table([]string{"a"}, []string{"b", "c", "d"}, []string{"e", "f"})
	assert.Equal(t, 3, b.Columns())
}
