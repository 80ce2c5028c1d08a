// Package forecast turns aggregated sales into burn rates, depletion
// projections and short-horizon demand forecasts.
package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/kirana/internal/model"
)

// Thresholds are the days-left cutoffs for restock alerts.
type Thresholds struct {
	OrderNowDays int
	LowDays      int
}

// MaxDaysLeft caps DaysLeft. Stock lasting longer is reported as capped
// rather than as a date centuries out.
const MaxDaysLeft = 36500

// DefaultThresholds matches the dashboard defaults: under 3 days order now, under 7 days low.
func DefaultThresholds() Thresholds {
	return Thresholds{OrderNowDays: 3, LowDays: 7}
}

// Rate returns the average units sold per day over the summary's window.
func Rate(ps model.ProductSales) (model.BurnRate, error) {
	if err := validate(ps); err != nil {
		return model.BurnRate{}, err
	}
	return model.BurnRate{
		Product: ps.Product,
		PerDay:  ps.Total.Div(decimal.NewFromInt(int64(ps.WindowDays))),
	}, nil
}

// Project estimates how many whole days stock lasts at the product's burn rate.
//
// DaysLeft is floor(stock / rate). It is computed as floor(stock * window / total)
// so the rate is never rounded before the division. A zero rate never depletes.
func Project(ps model.ProductSales, stock decimal.Decimal, today time.Time, th Thresholds) (model.StockProjection, error) {
	rate, err := Rate(ps)
	if err != nil {
		return model.StockProjection{}, err
	}
	if stock.IsNegative() {
		return model.StockProjection{}, fmt.Errorf("%s: %w", ps.Product, ErrNegativeStock)
	}

	p := model.StockProjection{
		Product: ps.Product,
		Stock:   stock,
		Rate:    rate,
		Status:  model.StatusNoDepletion,
	}
	if ps.Total.IsZero() {
		return p, nil
	}

	window := decimal.NewFromInt(int64(ps.WindowDays))
	scaled := stock.Mul(window)
	whole, _ := scaled.QuoRem(ps.Total, 0)

	p.Depletes = true
	if whole.GreaterThan(decimal.NewFromInt(MaxDaysLeft)) {
		p.DaysLeft = MaxDaysLeft
		p.Capped = true
	} else {
		p.DaysLeft = int(whole.IntPart())
	}
	p.DaysLeftExact = scaled.DivRound(ps.Total, 4)
	p.DepletionDate = truncateDay(today).AddDate(0, 0, p.DaysLeft)
	p.Status = classify(scaled, ps.Total, th)
	return p, nil
}

// classify compares exact days left (scaled / total) against the thresholds
// without dividing.
func classify(scaled, total decimal.Decimal, th Thresholds) model.StockStatus {
	switch {
	case scaled.LessThan(total.Mul(decimal.NewFromInt(int64(th.OrderNowDays)))):
		return model.StatusOrderNow
	case scaled.LessThan(total.Mul(decimal.NewFromInt(int64(th.LowDays)))):
		return model.StatusLow
	default:
		return model.StatusHealthy
	}
}

// ProjectAll projects every summarized product. Results are ordered by days
// left ascending, with non-depleting products last, ties broken by name.
func ProjectAll(summaries map[string]model.ProductSales, stockFor func(product string) decimal.Decimal, today time.Time, th Thresholds) ([]model.StockProjection, error) {
	out := make([]model.StockProjection, 0, len(summaries))
	for _, ps := range summaries {
		p, err := Project(ps, stockFor(ps.Product), today, th)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Depletes != b.Depletes {
			return a.Depletes
		}
		if a.Depletes && !a.DaysLeftExact.Equal(b.DaysLeftExact) {
			return a.DaysLeftExact.LessThan(b.DaysLeftExact)
		}
		return a.Product < b.Product
	})
	return out, nil
}

func validate(ps model.ProductSales) error {
	if ps.WindowDays <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidWindow, ps.WindowDays)
	}
	if ps.Total.IsNegative() {
		return fmt.Errorf("%s: %w", ps.Product, ErrNegativeQuantity)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
