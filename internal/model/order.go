package model

import "time"

// Order mirrors the `orders` table. Username identifies the buyer internally
// and is excluded from API responses; TotalCents is the order value used by
// the export and chart reports.
type Order struct {
	ID         uint64    // orders.id
	Username   string    // orders.username (never serialized)
	Email      string    // orders.email
	TotalCents int64     // orders.total_cents
	CreatedAt  time.Time // orders.created_at
}

// DailyRevenue is one row of the orders chart: the summed order value for a
// single calendar day.
type DailyRevenue struct {
	Date string `json:"date"`
	Sum  int64  `json:"sum"`
}
