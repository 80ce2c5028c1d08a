// Package model defines domain types for kirana sales and stock projections.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one line of the sales CSV. Date is truncated to local midnight.
type Sale struct {
	Product  string
	Quantity decimal.Decimal
	Date     time.Time
	Line     int
}

// ProductSales is the total quantity sold for one product over a trailing window.
type ProductSales struct {
	Product    string
	Total      decimal.Decimal
	WindowDays int
	Since      time.Time
	Until      time.Time
	SaleDays   int // distinct days with at least one sale
}

// BurnRate is the average units sold per day. It is kept exact; rounding is a display concern.
type BurnRate struct {
	Product string
	PerDay  decimal.Decimal
}

// StockStatus is the restock alert level for a projection.
type StockStatus int

const (
	StatusNoDepletion StockStatus = iota
	StatusHealthy
	StatusLow
	StatusOrderNow
)

func (s StockStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusLow:
		return "low"
	case StatusOrderNow:
		return "order now"
	default:
		return "no depletion"
	}
}

// StockProjection estimates when current stock runs out at the observed burn rate.
// When Depletes is false no depletion is predicted and DepletionDate is zero.
// Capped means the stock outlasts the projection limit and DaysLeft holds the limit.
type StockProjection struct {
	Product       string
	Stock         decimal.Decimal
	Rate          BurnRate
	Depletes      bool
	Capped        bool
	DaysLeft      int
	DaysLeftExact decimal.Decimal
	DepletionDate time.Time
	Status        StockStatus
}
