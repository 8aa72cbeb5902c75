// Package ledger owns the trip balance rules: which mutations are allowed and
// how the two balances of a trip stay in lockstep.
package ledger

import (
	"context"
	"fmt"

	"travel-wallet/internal/models"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/shopspring/decimal"
)

// Store is the persistence the ledger needs. Every mutating method must be
// atomic with respect to other calls on the same trip or user.
type Store interface {
	CreateUser(ctx context.Context, id models.UserID, name string) error
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	CreateTrip(ctx context.Context, t models.Trip) (*models.Trip, error)
	GetTrip(ctx context.Context, id int64) (*models.Trip, error)
	GetActiveTrip(ctx context.Context, user models.UserID) (*models.Trip, error)
	ListTrips(ctx context.Context, user models.UserID) ([]models.Trip, error)
	ActivateTrip(ctx context.Context, user models.UserID, tripID int64) error
	AddExpense(ctx context.Context, tripID int64, amountTo, amountFrom decimal.Decimal, description string) (*models.Expense, error)
	UpdateExpenseDescription(ctx context.Context, id int64, description string) error
	UpdateTripRate(ctx context.Context, tripID int64, rate decimal.Decimal) (*models.Trip, error)
	ListExpenses(ctx context.Context, tripID int64, limit int) ([]models.Expense, error)
	TripSummary(ctx context.Context, tripID int64) (models.TripSummary, error)
}

// NewTrip holds the parameters collected by trip setup.
type NewTrip struct {
	User              models.UserID
	Name              string
	FromCountry       string
	ToCountry         string
	FromCurrency      models.Currency
	ToCurrency        models.Currency
	Rate              decimal.Decimal
	InitialAmountFrom decimal.Decimal
	InitialAmountTo   decimal.Decimal
}

// Ledger validates and applies trip and expense mutations.
type Ledger struct {
	store  Store
	logger log.Logger
}

// New constructs a Ledger backed by store.
func New(store Store, logger log.Logger) *Ledger {
	return &Ledger{store: store, logger: logger}
}

// RegisterUser records a user on first contact. It is safe to call repeatedly.
func (l *Ledger) RegisterUser(ctx context.Context, user models.UserID, name string) error {
	if err := l.store.CreateUser(ctx, user, name); err != nil {
		return fmt.Errorf("register user [%v]: %w", user, err)
	}
	return nil
}

// User returns a registered user or models.ErrUserNotFound.
func (l *Ledger) User(ctx context.Context, user models.UserID) (*models.User, error) {
	return l.store.GetUser(ctx, user)
}

// CreateTrip creates a trip and makes it the user's only active one.
func (l *Ledger) CreateTrip(ctx context.Context, nt NewTrip) (*models.Trip, error) {
	if nt.FromCurrency == nt.ToCurrency {
		return nil, models.ErrSameCurrency
	}
	if !nt.Rate.IsPositive() {
		return nil, models.ErrInvalidRate
	}
	if !nt.InitialAmountFrom.IsPositive() || !nt.InitialAmountTo.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	trip, err := l.store.CreateTrip(ctx, models.Trip{
		UserID:       nt.User,
		Name:         nt.Name,
		FromCountry:  nt.FromCountry,
		ToCountry:    nt.ToCountry,
		FromCurrency: nt.FromCurrency,
		ToCurrency:   nt.ToCurrency,
		ExchangeRate: nt.Rate,
		BalanceFrom:  nt.InitialAmountFrom,
		BalanceTo:    nt.InitialAmountTo,
	})
	if err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	level.Info(l.logger).Log("msg", "trip created", "user", nt.User, "trip", trip.ID,
		"from", nt.FromCurrency, "to", nt.ToCurrency, "rate", nt.Rate)
	return trip, nil
}

// ActiveTrip returns the user's active trip or models.ErrNoActiveTrip.
func (l *Ledger) ActiveTrip(ctx context.Context, user models.UserID) (*models.Trip, error) {
	return l.store.GetActiveTrip(ctx, user)
}

// Trip returns a trip by ID.
func (l *Ledger) Trip(ctx context.Context, tripID int64) (*models.Trip, error) {
	return l.store.GetTrip(ctx, tripID)
}

// Trips lists every trip of the user, most recent first.
func (l *Ledger) Trips(ctx context.Context, user models.UserID) ([]models.Trip, error) {
	return l.store.ListTrips(ctx, user)
}

// Activate switches the user's active trip. A trip that does not belong to the
// user yields models.ErrTripNotFound and changes nothing.
func (l *Ledger) Activate(ctx context.Context, user models.UserID, tripID int64) error {
	if err := l.store.ActivateTrip(ctx, user, tripID); err != nil {
		return fmt.Errorf("activate trip [%d]: %w", tripID, err)
	}
	level.Info(l.logger).Log("msg", "trip activated", "user", user, "trip", tripID)
	return nil
}

// RecordExpense appends an expense and deducts it from both balances.
// Balances may go negative.
func (l *Ledger) RecordExpense(ctx context.Context, tripID int64, amountTo, amountFrom decimal.Decimal, description string) (*models.Expense, error) {
	if !amountTo.IsPositive() || !amountFrom.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	e, err := l.store.AddExpense(ctx, tripID, amountTo, amountFrom, description)
	if err != nil {
		return nil, fmt.Errorf("record expense on trip [%d]: %w", tripID, err)
	}
	level.Info(l.logger).Log("msg", "expense recorded", "trip", tripID, "expense", e.ID,
		"amount_to", amountTo, "amount_from", amountFrom)
	return e, nil
}

// SetDescription labels an expense. A second call overwrites the first.
func (l *Ledger) SetDescription(ctx context.Context, expenseID int64, text string) error {
	if err := l.store.UpdateExpenseDescription(ctx, expenseID, text); err != nil {
		return fmt.Errorf("describe expense [%d]: %w", expenseID, err)
	}
	return nil
}

// UpdateRate stores a new rate and recomputes balance_from from balance_to.
func (l *Ledger) UpdateRate(ctx context.Context, tripID int64, rate decimal.Decimal) (*models.Trip, error) {
	if !rate.IsPositive() {
		return nil, models.ErrInvalidRate
	}
	trip, err := l.store.UpdateTripRate(ctx, tripID, rate)
	if err != nil {
		return nil, fmt.Errorf("update rate on trip [%d]: %w", tripID, err)
	}
	level.Info(l.logger).Log("msg", "rate updated", "trip", tripID, "rate", rate,
		"balance_to", trip.BalanceTo, "balance_from", trip.BalanceFrom)
	return trip, nil
}

// Expenses lists up to limit expenses of a trip, newest first.
func (l *Ledger) Expenses(ctx context.Context, tripID int64, limit int) ([]models.Expense, error) {
	return l.store.ListExpenses(ctx, tripID, limit)
}

// Summary totals the expenses of a trip.
func (l *Ledger) Summary(ctx context.Context, tripID int64) (models.TripSummary, error) {
	return l.store.TripSummary(ctx, tripID)
}
