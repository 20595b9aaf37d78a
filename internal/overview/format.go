// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package overview

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders amounts and counts for one locale.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter builds a formatter for a BCP 47 locale such as "en-IN". The
// currency follows the locale's region, defaulting to INR.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse("en-IN")
	}

	unit, conf := currency.FromTag(tag)
	if conf == language.No {
		unit = currency.INR
	}

	p := message.NewPrinter(tag)
	return &Formatter{
		printer: p,
		symbol:  p.Sprint(currency.NarrowSymbol(unit)),
	}
}

// Money formats an amount with the currency symbol and no fraction digits.
func (f *Formatter) Money(v float64) string {
	return f.symbol + f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
}

// Count formats an integer with locale digit grouping.
func (f *Formatter) Count(n int) string {
	return f.printer.Sprint(number.Decimal(n))
}
