package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserID is the opaque identifier a transport assigns to a user.
type UserID string

// Currency is an ISO-style currency code such as "RUB" or "CNY".
type Currency string

// User represents a person talking to the wallet.
type User struct {
	ID        UserID    `json:"id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Trip represents a tracked journey with two currencies and a running balance.
//
// ExchangeRate is the number of ToCurrency units obtained for one unit of
// FromCurrency. BalanceTo is authoritative; BalanceFrom is derived from it.
type Trip struct {
	ID           int64           `json:"id"`
	UserID       UserID          `json:"user_id"`
	Name         string          `json:"name"`
	FromCountry  string          `json:"from_country"`
	ToCountry    string          `json:"to_country"`
	FromCurrency Currency        `json:"from_currency"`
	ToCurrency   Currency        `json:"to_currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	BalanceFrom  decimal.Decimal `json:"balance_from"`
	BalanceTo    decimal.Decimal `json:"balance_to"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Rebalanced returns a copy of the trip using rate, with BalanceFrom
// recomputed from BalanceTo.
func (t Trip) Rebalanced(rate decimal.Decimal) Trip {
	t.ExchangeRate = rate
	t.BalanceFrom = t.BalanceTo.Div(rate)
	return t
}

// ToOrigin converts an amount in the trip's destination currency into the
// origin currency at the trip's current rate.
func (t Trip) ToOrigin(amountTo decimal.Decimal) decimal.Decimal {
	return amountTo.Div(t.ExchangeRate)
}

// Expense represents a single deduction against a trip's balance.
type Expense struct {
	ID          int64           `json:"id"`
	TripID      int64           `json:"trip_id"`
	AmountTo    decimal.Decimal `json:"amount_to"`
	AmountFrom  decimal.Decimal `json:"amount_from"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TripSummary aggregates the recorded expenses of a trip.
type TripSummary struct {
	Count     int             `json:"count"`
	TotalTo   decimal.Decimal `json:"total_to"`
	TotalFrom decimal.Decimal `json:"total_from"`
}
