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

package marketdata

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Statements holds the annual financial statements of a company, most
// recent period first.
type Statements struct {
	Symbol          string            `json:"symbol"`
	IncomeStatement []StatementPeriod `json:"income_statement"`
	BalanceSheet    []StatementPeriod `json:"balance_sheet"`
	CashFlow        []StatementPeriod `json:"cash_flow"`
}

// A StatementPeriod is one column of a financial statement.
type StatementPeriod struct {
	EndDate string             `json:"end_date"`
	Items   map[string]float64 `json:"items"`
}

// statementPeriods flattens Yahoo statement entries. Every field carrying a
// numeric raw value becomes an item; endDate becomes the period label.
func statementPeriods(entries []map[string]json.RawMessage) []StatementPeriod {
	periods := make([]StatementPeriod, 0, len(entries))
	for _, entry := range entries {
		p := StatementPeriod{Items: make(map[string]float64)}
		for key, raw := range entry {
			var v struct {
				Raw *float64 `json:"raw"`
				Fmt string   `json:"fmt"`
			}
			if json.Unmarshal(raw, &v) != nil || v.Raw == nil {
				continue
			}
			switch key {
			case "endDate":
				p.EndDate = v.Fmt
			case "maxAge":
			default:
				p.Items[key] = *v.Raw
			}
		}
		periods = append(periods, p)
	}
	return periods
}

// Markdown renders the statements as one table per statement, with the
// periods as columns and thousands separators on every amount.
func (s *Statements) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Financial Statements: %s\n", s.Symbol)
	writeStatement(&sb, "Income Statement", s.IncomeStatement)
	writeStatement(&sb, "Balance Sheet", s.BalanceSheet)
	writeStatement(&sb, "Cash Flow", s.CashFlow)
	return sb.String()
}

func writeStatement(sb *strings.Builder, title string, periods []StatementPeriod) {
	fmt.Fprintf(sb, "\n## %s\n", title)
	if len(periods) == 0 {
		sb.WriteString("No data available\n")
		return
	}

	var keys []string
	for _, p := range periods {
		for k := range p.Items {
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)

	sb.WriteString("| Item |")
	for _, p := range periods {
		fmt.Fprintf(sb, " %s |", p.EndDate)
	}
	sb.WriteString("\n|------|")
	sb.WriteString(strings.Repeat("------|", len(periods)))
	sb.WriteByte('\n')

	for _, k := range keys {
		fmt.Fprintf(sb, "| %s |", k)
		for _, p := range periods {
			if v, ok := p.Items[k]; ok {
				fmt.Fprintf(sb, " %s |", FormatAmount(v))
			} else {
				sb.WriteString(" N/A |")
			}
		}
		sb.WriteByte('\n')
	}
}
