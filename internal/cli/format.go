// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/model"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatQuantity renders a quantity with separators and at most two decimals.
// Whole quantities print without a fraction.
func FormatQuantity(q decimal.Decimal) string {
	r := q.Round(2)
	if r.Equal(r.Truncate(0)) {
		return humanize.Comma(r.IntPart())
	}
	return humanize.CommafWithDigits(r.InexactFloat64(), 2)
}

// FormatRate renders a burn rate as units per day, rounded to one decimal.
func FormatRate(r model.BurnRate) string {
	return r.PerDay.StringFixed(1) + "/day"
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f)
}

// FormatDate renders a calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

// FormatDaysLeft renders the whole days of stock remaining.
func FormatDaysLeft(p model.StockProjection) string {
	if !p.Depletes {
		return "never"
	}
	if p.Capped {
		return fmt.Sprintf("%d+ days", p.DaysLeft)
	}
	if p.DaysLeft == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", p.DaysLeft)
}

// FormatDepletion renders the depletion date relative to today.
func FormatDepletion(p model.StockProjection, today time.Time) string {
	if !p.Depletes {
		return "no depletion predicted"
	}
	if p.Capped {
		return "after " + FormatDate(p.DepletionDate)
	}
	if p.DaysLeft == 0 {
		return FormatDate(p.DepletionDate) + " (today)"
	}
	return fmt.Sprintf("%s (%s)", FormatDate(p.DepletionDate), humanize.RelTime(p.DepletionDate, today, "ago", "from now"))
}

// FormatStatus returns the alert label for a projection status.
func FormatStatus(s model.StockStatus) string {
	switch s {
	case model.StatusOrderNow:
		return "ORDER NOW"
	case model.StatusLow:
		return "Low"
	case model.StatusHealthy:
		return "Healthy"
	default:
		return "No sales"
	}
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
