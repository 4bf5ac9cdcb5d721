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
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatLargeNumber renders a monetary amount with a T/B/M/K suffix,
// e.g. "$1.5T" or "$500.2B". Amounts under a thousand keep two decimals.
// Zero gives "N/A".
func FormatLargeNumber(v float64) string {
	switch {
	case v == 0 || math.IsNaN(v):
		return "N/A"
	case v >= 1e12:
		return fmt.Sprintf("$%.1fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.1fK", v/1e3)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

func formatLargeNumberPtr(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return FormatLargeNumber(*v)
}

// FormatInteger renders n with thousands separators: 1234567 -> "1,234,567".
func FormatInteger(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatAmount renders v with thousands separators and no decimals.
func FormatAmount(v float64) string {
	return printer.Sprintf("%.0f", v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// optRound returns a rounded copy of v, or nil for a missing or zero value.
func optRound(v *float64) *float64 {
	if v == nil || *v == 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	r := round2(*v)
	return &r
}

// optPercent is optRound of a ratio expressed in percent.
func optPercent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	p := *v * 100
	return optRound(&p)
}

// firstNonZero returns the first set, non-zero value.
func firstNonZero(vs ...*float64) *float64 {
	for _, v := range vs {
		if v != nil && *v != 0 {
			return v
		}
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func fmtOpt(v *float64, format string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf(format, *v)
}
