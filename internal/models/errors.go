package models

import "errors"

// Domain-level sentinel errors shared by the ledger and its storage.
var (
	// ErrUserNotFound indicates that the user never contacted the wallet
	ErrUserNotFound = errors.New("user not found")

	// ErrTripNotFound indicates that no trip with the given ID exists for the caller
	ErrTripNotFound = errors.New("trip not found")

	// ErrNoActiveTrip indicates that the user has no active trip
	ErrNoActiveTrip = errors.New("no active trip")

	// ErrExpenseNotFound indicates that an expense with the given ID does not exist
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrSameCurrency indicates that origin and destination currencies are equal
	ErrSameCurrency = errors.New("origin and destination currencies must differ")

	// ErrInvalidRate indicates a zero or negative exchange rate
	ErrInvalidRate = errors.New("exchange rate must be positive")

	// ErrInvalidAmount indicates a zero or negative amount
	ErrInvalidAmount = errors.New("amount must be positive")
)
