package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/kirana/internal/model"
)

const (
	DefaultHorizon    = 7
	DefaultMinRecords = 7
)

// LinearForecast fits an ordinary least-squares line through a product's daily
// totals and predicts the next horizon days after its last sale.
//
// At least minRecords sale rows spread over two or more distinct days are
// required. Predictions are clamped at zero and rounded to one decimal.
// Zero or negative horizon and minRecords fall back to the defaults.
// product must match exactly; callers resolve user input first.
func LinearForecast(sales []model.Sale, product string, horizon, minRecords int) (model.Forecast, error) {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if minRecords <= 0 {
		minRecords = DefaultMinRecords
	}

	byDay := make(map[time.Time]float64)
	records := 0
	for _, s := range sales {
		if s.Product != product {
			continue
		}
		records++
		q, _ := s.Quantity.Float64()
		byDay[s.Date] += q
	}

	fc := model.Forecast{Product: product, Records: records}
	if records < minRecords {
		return fc, fmt.Errorf("%s: %d records, need %d: %w", product, records, minRecords, ErrInsufficientHistory)
	}
	if len(byDay) < 2 {
		return fc, fmt.Errorf("%s: sales on a single day: %w", product, ErrInsufficientHistory)
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	origin := days[0]
	xs := make([]float64, len(days))
	ys := make([]float64, len(days))
	for i, d := range days {
		xs[i] = float64(dayOrdinal(origin, d))
		ys[i] = byDay[d]
	}

	slope, intercept := leastSquares(xs, ys)
	fc.Slope = slope
	fc.Intercept = intercept
	fc.R2 = rSquared(xs, ys, slope, intercept)

	last := days[len(days)-1]
	lastX := float64(dayOrdinal(origin, last))
	for i := 1; i <= horizon; i++ {
		pred := math.Max(0, intercept+slope*(lastX+float64(i)))
		pred = math.Round(pred*10) / 10
		fc.Points = append(fc.Points, model.ForecastPoint{
			Date:      last.AddDate(0, 0, i),
			Predicted: pred,
		})
		fc.TotalNeeded += pred
	}
	fc.TotalNeeded = math.Round(fc.TotalNeeded*10) / 10
	return fc, nil
}

func leastSquares(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - meanX
		sxy += dx * (ys[i] - meanY)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0, meanY
	}
	slope = sxy / sxx
	return slope, meanY - slope*meanX
}

// rSquared is the coefficient of determination. With constant targets it is 1
// for a perfect fit and 0 otherwise.
func rSquared(xs, ys []float64, slope, intercept float64) float64 {
	var meanY float64
	for _, y := range ys {
		meanY += y
	}
	meanY /= float64(len(ys))

	var ssRes, ssTot float64
	for i := range xs {
		r := ys[i] - (intercept + slope*xs[i])
		ssRes += r * r
		d := ys[i] - meanY
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes < 1e-12 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// dayOrdinal counts calendar days from origin to d, ignoring DST shifts.
func dayOrdinal(origin, d time.Time) int {
	o := time.Date(origin.Year(), origin.Month(), origin.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(o).Hours() / 24)
}
