// Package tabular reads and writes the locale-style delimited files shared by
// the dataset generators and the dashboard: ';' between fields, ',' as the
// decimal separator, a single header row, ISO dates.
package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Separator is the field delimiter.
	Separator = ';'
	// DecimalSeparator replaces '.' in every numeric field.
	DecimalSeparator = ","

	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

var timeLayouts = []string{
	TimestampLayout,
	DateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
}

// FormatMoney renders a monetary amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", DecimalSeparator, 1)
}

// FormatFloat rounds v to places and renders it without trailing zeros.
func FormatFloat(v float64, places int32) string {
	return strings.Replace(decimal.NewFromFloat(v).Round(places).String(), ".", DecimalSeparator, 1)
}

func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FormatOptionalDate renders nil as an empty field.
func FormatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

// FormatOptionalTimestamp renders nil as an empty field.
func FormatOptionalTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTimestamp(*t)
}

// ParseDecimal accepts both ',' and '.' as the decimal separator.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty numeric field")
	}
	d, err := decimal.NewFromString(strings.Replace(s, DecimalSeparator, ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

// ParseFloat is ParseDecimal converted to float64 for analytics.
func ParseFloat(s string) (float64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

func ParseInt(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse integer %q: %w", s, err)
	}
	return v, nil
}

// ParseTime accepts the timestamp and date layouts written by this package
// and the common ISO variants produced by other tools.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: unrecognised layout", s)
}

// ParseOptionalTime maps an empty field to nil.
func ParseOptionalTime(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
