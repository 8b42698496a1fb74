package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stats is the dashboard aggregate over the whole store
type Stats struct {
	Revenue       decimal.Decimal
	OrderCount    int64
	PendingOrders int64
	ProductCount  int64
	CustomerCount int64
	ReviewCount   int64
}

// Customer is a user as shown on the admin dashboard
type Customer struct {
	ID       uint
	Email    string
	Name     string
	JoinedAt time.Time
}
