// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package overview

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount reads a pledge amount. Strings are read up to the first
// non-numeric character ("150 INR" is 150); anything unreadable is 0.
func ParseAmount(v any) float64 {
	var f float64
	switch x := v.(type) {
	case json.Number:
		f = parsePrefix(x.String())
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		f = parsePrefix(x)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parsePrefix(s string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}
