package bot

import (
	"travel-wallet/internal/models"
	"travel-wallet/internal/rates"

	"github.com/shopspring/decimal"
)

// Kind identifies what a Reply tells the user.
type Kind string

const (
	KindWelcome         Kind = "welcome"
	KindHelp            Kind = "help"
	KindNotUnderstood   Kind = "not_understood"
	KindUnknownCommand  Kind = "unknown_command"
	KindStale           Kind = "stale"
	KindSessionReset    Kind = "session_reset"
	KindCancelled       Kind = "cancelled"
	KindNothingToCancel Kind = "nothing_to_cancel"
	KindNoActiveTrip    Kind = "no_active_trip"

	// Trip setup
	KindAskFromCountry         Kind = "ask_from_country"
	KindUnknownCountry         Kind = "unknown_country"
	KindAskToCountry           Kind = "ask_to_country"
	KindSameCurrency           Kind = "same_currency"
	KindOriginNotQuotable      Kind = "origin_not_quotable"
	KindDestinationNotQuotable Kind = "destination_not_quotable"
	KindRateUnavailable        Kind = "rate_unavailable"
	KindConfirmRate            Kind = "confirm_rate"
	KindAskManualRate          Kind = "ask_manual_rate"
	KindInvalidRate            Kind = "invalid_rate"
	KindAskInitialAmount       Kind = "ask_initial_amount"
	KindInvalidAmount          Kind = "invalid_amount"
	KindRateFallback           Kind = "rate_fallback"
	KindTripCreated            Kind = "trip_created"

	// Expenses
	KindNotPositive        Kind = "not_positive"
	KindConfirmExpense     Kind = "confirm_expense"
	KindExpenseRecorded    Kind = "expense_recorded"
	KindExpenseDiscarded   Kind = "expense_discarded"
	KindAskDescription     Kind = "ask_description"
	KindDescriptionSaved   Kind = "description_saved"
	KindDescriptionSkipped Kind = "description_skipped"

	// Rate change
	KindAskNewRate  Kind = "ask_new_rate"
	KindRateUpdated Kind = "rate_updated"

	// Trips
	KindTripList     Kind = "trip_list"
	KindTripSwitched Kind = "trip_switched"
	KindTripNotFound Kind = "trip_not_found"
	KindBalance      Kind = "balance"
	KindHistory      Kind = "history"
)

// Purpose names the question a yes/no confirmation answers.
type Purpose string

const (
	PurposeRate    Purpose = "rate"
	PurposeExpense Purpose = "expense"
)

// Reply is one message for the user. Only the fields relevant to Kind are
// set; amounts are at full precision and formatting is left to the transport.
type Reply struct {
	Kind Kind
	// Confirm is set when the transport must offer a yes/no choice.
	Confirm Purpose

	Text     string
	From     models.Currency
	To       models.Currency
	Rate     decimal.Decimal
	AmountTo decimal.Decimal
	// AmountFrom is in the trip's origin currency.
	AmountFrom decimal.Decimal
	Reason     rates.Reason

	Trip     *models.Trip
	Trips    []models.Trip
	Expense  *models.Expense
	Expenses []models.Expense
	Summary  *models.TripSummary
}
