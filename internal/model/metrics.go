package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryStats holds the top-level aggregate across the filtered sales.
type SummaryStats struct {
	Products      int
	Transactions  int
	TotalQuantity decimal.Decimal
	FirstSale     time.Time
	LastSale      time.Time
	ActiveDays    int

	QuantityPerDay     decimal.Decimal
	TransactionsPerDay float64
}

// ProductTotal holds the aggregated quantity for a single product.
type ProductTotal struct {
	Product      string
	Quantity     decimal.Decimal
	Transactions int
	SharePercent float64
}

// DailySales holds totals for a single calendar day.
type DailySales struct {
	Date         time.Time
	Quantity     decimal.Decimal
	Transactions int
}

// WeeklySales holds totals for one week. Weeks end on Sunday and are labelled by WeekEnd.
type WeeklySales struct {
	WeekStart    time.Time
	WeekEnd      time.Time
	Quantity     decimal.Decimal
	Transactions int
}

// ForecastPoint is one predicted day.
type ForecastPoint struct {
	Date      time.Time
	Predicted float64
}

// Forecast is a least-squares demand projection for one product.
type Forecast struct {
	Product     string
	Points      []ForecastPoint
	R2          float64
	Slope       float64
	Intercept   float64
	TotalNeeded float64
	Records     int
}
