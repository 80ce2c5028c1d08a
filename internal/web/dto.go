package web

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/model"
)

// Quantities are encoded as JSON strings so no precision is lost.

type windowJSON struct {
	Since string `json:"since,omitempty"`
	Until string `json:"until,omitempty"`
	Days  int    `json:"days"`
}

type summaryResponse struct {
	Window       windowJSON         `json:"window"`
	DataFile     string             `json:"data_file"`
	Products     int                `json:"products"`
	Transactions int                `json:"transactions"`
	Units        decimal.Decimal    `json:"units"`
	UnitsPerDay  decimal.Decimal    `json:"units_per_day"`
	LastSale     string             `json:"last_sale,omitempty"`
	LastUpdate   time.Time          `json:"last_update"`
	Top          []productTotalJSON `json:"top"`
	Weekly       []weekJSON         `json:"weekly"`
}

type productTotalJSON struct {
	Product      string          `json:"product"`
	Units        decimal.Decimal `json:"units"`
	Transactions int             `json:"transactions"`
	SharePercent float64         `json:"share_percent"`
}

type dayJSON struct {
	Date         string          `json:"date"`
	Units        decimal.Decimal `json:"units"`
	Transactions int             `json:"transactions"`
}

type weekJSON struct {
	WeekStart    string          `json:"week_start"`
	WeekEnd      string          `json:"week_end"`
	Units        decimal.Decimal `json:"units"`
	Transactions int             `json:"transactions"`
}

type projectionJSON struct {
	Product       string           `json:"product"`
	Sold          decimal.Decimal  `json:"sold"`
	WindowDays    int              `json:"window_days"`
	Stock         decimal.Decimal  `json:"stock"`
	RatePerDay    decimal.Decimal  `json:"rate_per_day"`
	Depletes      bool             `json:"depletes"`
	DaysLeft      *int             `json:"days_left"`
	Capped        bool             `json:"days_left_capped,omitempty"`
	DaysLeftExact *decimal.Decimal `json:"days_left_exact,omitempty"`
	DepletionDate string           `json:"depletion_date,omitempty"`
	Status        string           `json:"status"`
}

type forecastPointJSON struct {
	Date      string  `json:"date"`
	Predicted float64 `json:"predicted"`
}

type forecastJSON struct {
	Product     string              `json:"product"`
	Points      []forecastPointJSON `json:"points"`
	TotalNeeded float64             `json:"total_needed"`
	Slope       float64             `json:"slope"`
	Intercept   float64             `json:"intercept"`
	R2          float64             `json:"r2"`
	Records     int                 `json:"records"`
	Stock       decimal.Decimal     `json:"stock"`
	Shortfall   float64             `json:"shortfall"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func newWindowJSON(w window) windowJSON {
	return windowJSON{Since: formatDate(w.since), Until: formatDate(w.until), Days: w.days}
}

func newTopJSON(top []model.ProductTotal) []productTotalJSON {
	out := make([]productTotalJSON, 0, len(top))
	for _, p := range top {
		out = append(out, productTotalJSON{
			Product:      p.Product,
			Units:        p.Quantity,
			Transactions: p.Transactions,
			SharePercent: p.SharePercent,
		})
	}
	return out
}

func newDailyJSON(days []model.DailySales) []dayJSON {
	out := make([]dayJSON, 0, len(days))
	for _, d := range days {
		out = append(out, dayJSON{Date: formatDate(d.Date), Units: d.Quantity, Transactions: d.Transactions})
	}
	return out
}

func newWeeklyJSON(weeks []model.WeeklySales) []weekJSON {
	out := make([]weekJSON, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, weekJSON{
			WeekStart:    formatDate(w.WeekStart),
			WeekEnd:      formatDate(w.WeekEnd),
			Units:        w.Quantity,
			Transactions: w.Transactions,
		})
	}
	return out
}

// newProjectionJSON leaves days_left null when no depletion is predicted.
func newProjectionJSON(p model.StockProjection, ps model.ProductSales) projectionJSON {
	out := projectionJSON{
		Product:    p.Product,
		Sold:       ps.Total,
		WindowDays: ps.WindowDays,
		Stock:      p.Stock,
		RatePerDay: p.Rate.PerDay.Round(4),
		Depletes:   p.Depletes,
		Status:     p.Status.String(),
	}
	if p.Depletes {
		days, exact := p.DaysLeft, p.DaysLeftExact
		out.DaysLeft = &days
		out.DaysLeftExact = &exact
		out.Capped = p.Capped
		out.DepletionDate = formatDate(p.DepletionDate)
	}
	return out
}

func newForecastJSON(fc model.Forecast, stock decimal.Decimal) forecastJSON {
	out := forecastJSON{
		Product:     fc.Product,
		Points:      make([]forecastPointJSON, 0, len(fc.Points)),
		TotalNeeded: fc.TotalNeeded,
		Slope:       fc.Slope,
		Intercept:   fc.Intercept,
		R2:          fc.R2,
		Records:     fc.Records,
		Stock:       stock,
	}
	for _, p := range fc.Points {
		out.Points = append(out.Points, forecastPointJSON{Date: formatDate(p.Date), Predicted: p.Predicted})
	}
	if short := fc.TotalNeeded - stock.InexactFloat64(); short > 0 {
		out.Shortfall = short
	}
	return out
}
