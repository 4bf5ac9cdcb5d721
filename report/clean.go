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
	"regexp"
	"strings"
	"time"
)

var tagPattern = regexp.MustCompile(`<[^<>]*>`)

// CleanCell strips markup tags and bold/italic markers from a table cell.
// It is a best-effort strip and leaves already clean text unchanged.
func CleanCell(cell string) string {
	cell = tagPattern.ReplaceAllString(cell, "")
	cell = strings.ReplaceAll(cell, "**", "")
	cell = strings.ReplaceAll(cell, "*", "")
	return strings.TrimSpace(cell)
}

// NormalizeRows cleans every cell and pads short rows with empty cells,
// so that all rows have the same column count.
func NormalizeRows(rows [][]string) [][]string {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, cols)
		for j, c := range row {
			cells[j] = CleanCell(c)
		}
		out[i] = cells
	}
	return out
}

// FilenameLayout is the date suffix layout used by Filename.
const FilenameLayout = "20060102_150405"

// Filename derives a download file name from a report title.
// Characters other than letters, digits, space, '-' and '_' are dropped,
// spaces become underscores and a date suffix is appended.
func Filename(title string, now time.Time, ext string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteByte('_')
		}
	}
	base := sb.String()
	if base == "" {
		base = "report"
	}
	name := base + "_" + now.Format(FilenameLayout)
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return name
}
