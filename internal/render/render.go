// Package render turns bot replies into chat text.
package render

import (
	"fmt"
	"math/big"
	"strings"

	"travel-wallet/internal/bot"
	"travel-wallet/internal/models"
	"travel-wallet/internal/rates"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// CurrencyNamer gives the display name of a currency.
type CurrencyNamer interface {
	CurrencyName(c models.Currency) string
}

// Renderer formats replies as plain text.
type Renderer struct {
	names CurrencyNamer
}

// New constructs a Renderer.
func New(names CurrencyNamer) *Renderer {
	return &Renderer{names: names}
}

// Number formats an amount with two decimals, a space between thousands and
// a decimal comma: 12500 -> "12 500,00".
func Number(d decimal.Decimal) string {
	return group(d, 2)
}

// Rate formats an exchange rate with at least four decimals and at least four
// significant digits, so 0.0000345 reads "0,00003450" rather than zero.
func Rate(d decimal.Decimal) string {
	places := int32(4)
	if abs := d.Abs(); abs.IsPositive() && abs.LessThan(decimal.NewFromInt(1)) {
		// digits after the point before the first significant one
		frac := strings.TrimPrefix(abs.String(), "0.")
		zeros := int32(len(frac) - len(strings.TrimLeft(frac, "0")))
		places = max(places, zeros+4)
	}
	return group(d, places)
}

// group renders d rounded to places decimals, grouping the integer part by
// thousands. It never goes through float64.
func group(d decimal.Decimal, places int32) string {
	d = d.Round(places)
	digits := d.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(digits, ".")

	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return digits
	}
	out := strings.ReplaceAll(humanize.BigComma(n), ",", " ")
	if frac != "" {
		out += "," + frac
	}
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

// Text renders a single reply.
func (r *Renderer) Text(reply bot.Reply) string {
	switch reply.Kind {
	case bot.KindWelcome:
		name := reply.Text
		if name == "" {
			name = "traveler"
		}
		return fmt.Sprintf("Hi, %s! I keep track of your travel budget in two currencies.\n\n%s", name, help)
	case bot.KindHelp:
		return help
	case bot.KindNotUnderstood:
		return "I didn't understand that. Send an amount to record an expense, or /help for commands."
	case bot.KindUnknownCommand:
		return fmt.Sprintf("Unknown command /%s. Send /help for the list of commands.", reply.Text)
	case bot.KindStale:
		return "That question is no longer open. Please start again."
	case bot.KindSessionReset:
		return "Something went wrong with this conversation, so it was reset. Please start again."
	case bot.KindCancelled:
		return "Cancelled."
	case bot.KindNothingToCancel:
		return "Nothing to cancel."
	case bot.KindNoActiveTrip:
		return "You have no active trip. Create one with /newtrip or pick one with /switch."

	case bot.KindAskFromCountry:
		return "Which country are you travelling from?"
	case bot.KindUnknownCountry:
		return fmt.Sprintf("I don't know the country %q. Please try another name.", reply.Text)
	case bot.KindAskToCountry:
		return fmt.Sprintf("%s, currency %s.\nWhich country are you travelling to?", reply.Text, r.names.CurrencyName(reply.From))
	case bot.KindSameCurrency:
		return fmt.Sprintf("Both countries use %s. Please choose a destination with a different currency.", r.names.CurrencyName(reply.From))
	case bot.KindOriginNotQuotable:
		return fmt.Sprintf("No exchange rates are available for %s. Trip setup was cancelled.", r.names.CurrencyName(reply.From))
	case bot.KindDestinationNotQuotable:
		return fmt.Sprintf("No exchange rates are available for %s. Please choose another destination.", r.names.CurrencyName(reply.To))
	case bot.KindRateUnavailable:
		return fmt.Sprintf("Could not get the %s/%s rate (%s). Trip setup was cancelled, please try again later.",
			reply.From, reply.To, reason(reply.Reason))
	case bot.KindConfirmRate:
		return fmt.Sprintf("Current rate: 1 %s = %s %s\nDoes this rate suit you?", reply.From, Rate(reply.Rate), reply.To)
	case bot.KindAskManualRate:
		return fmt.Sprintf("Enter the rate manually: how many %s for 1 %s?", reply.To, reply.From)
	case bot.KindInvalidRate:
		return "The rate must be a positive number, for example 12.5"
	case bot.KindAskInitialAmount:
		return fmt.Sprintf("Enter the starting amount in %s:", r.names.CurrencyName(reply.From))
	case bot.KindInvalidAmount:
		return "The amount must be a positive number, for example 1000"
	case bot.KindRateFallback:
		return fmt.Sprintf("Live rate unavailable (%s); using 1 %s = %s %s.",
			reason(reply.Reason), reply.From, Rate(reply.Rate), reply.To)
	case bot.KindTripCreated:
		return "Trip created!\n\n" + r.trip(reply.Trip)

	case bot.KindNotPositive:
		return "The amount must be positive."
	case bot.KindConfirmExpense:
		return fmt.Sprintf("%s %s = %s %s\nRecord this expense?",
			Number(reply.AmountTo), reply.To, Number(reply.AmountFrom), reply.From)
	case bot.KindExpenseRecorded:
		return "Expense recorded.\n\nRemaining:\n   " + pair(reply.Trip.BalanceTo, reply.Trip.ToCurrency, reply.Trip.BalanceFrom, reply.Trip.FromCurrency)
	case bot.KindExpenseDiscarded:
		return "Expense discarded."
	case bot.KindAskDescription:
		return "What was it for? Send a short description, or " + bot.SkipToken + " to leave it empty."
	case bot.KindDescriptionSaved:
		return fmt.Sprintf("Saved: %s", reply.Text)
	case bot.KindDescriptionSkipped:
		return "Saved without a description."

	case bot.KindAskNewRate:
		return fmt.Sprintf("Current rate: 1 %s = %s %s\nEnter the new rate: how many %s for 1 %s?",
			reply.From, Rate(reply.Rate), reply.To, reply.To, reply.From)
	case bot.KindRateUpdated:
		return "Rate updated.\n\n" + r.trip(reply.Trip)

	case bot.KindTripList:
		return r.tripList(reply.Trips)
	case bot.KindTripSwitched:
		return fmt.Sprintf("Switched to %s.\n\n%s", reply.Trip.Name, r.trip(reply.Trip))
	case bot.KindTripNotFound:
		return fmt.Sprintf("Trip %s not found. Send /switch to list your trips.", reply.Text)
	case bot.KindBalance:
		return r.trip(reply.Trip)
	case bot.KindHistory:
		return r.history(reply.Trip, reply.Expenses, reply.Summary)
	}
	return string(reply.Kind)
}

// All renders every reply, one message per element.
func (r *Renderer) All(replies []bot.Reply) []string {
	out := make([]string, 0, len(replies))
	for _, reply := range replies {
		out = append(out, r.Text(reply))
	}
	return out
}

const help = `Commands:
/newtrip - set up a new trip
/switch [id] - list trips or switch to one
/balance - remaining balance
/history - recent expenses
/setrate - change the exchange rate
/cancel - abort the current step

Send a number to record an expense in the local currency.`

func (r *Renderer) trip(t *models.Trip) string {
	return fmt.Sprintf("%s\n%s (%s) → %s (%s)\n\nRemaining:\n   %s\n\nRate: 1 %s = %s %s",
		t.Name, t.FromCountry, t.FromCurrency, t.ToCountry, t.ToCurrency,
		pair(t.BalanceTo, t.ToCurrency, t.BalanceFrom, t.FromCurrency),
		t.FromCurrency, Rate(t.ExchangeRate), t.ToCurrency)
}

func (r *Renderer) tripList(trips []models.Trip) string {
	if len(trips) == 0 {
		return "You have no trips yet. Create one with /newtrip."
	}
	var b strings.Builder
	b.WriteString("Your trips:\n")
	for _, t := range trips {
		marker := " "
		if t.IsActive {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s #%d %s: %s %s\n", marker, t.ID, t.Name, Number(t.BalanceTo), t.ToCurrency)
	}
	b.WriteString("\nSend /switch <id> to make a trip active.")
	return b.String()
}

func (r *Renderer) history(t *models.Trip, expenses []models.Expense, summary *models.TripSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Expenses: %s\n\n", t.Name)
	if len(expenses) == 0 {
		b.WriteString("No expenses yet.")
		return b.String()
	}
	for _, e := range expenses {
		fmt.Fprintf(&b, "%s\n   %s\n", e.CreatedAt.Local().Format("02.01.2006 15:04"),
			pair(e.AmountTo, t.ToCurrency, e.AmountFrom, t.FromCurrency))
		if e.Description != "" {
			fmt.Fprintf(&b, "   %s\n", e.Description)
		}
	}
	if summary != nil {
		fmt.Fprintf(&b, "\nTotal spent (%d):\n   %s", summary.Count,
			pair(summary.TotalTo, t.ToCurrency, summary.TotalFrom, t.FromCurrency))
	}
	return b.String()
}

func pair(to decimal.Decimal, toCur models.Currency, from decimal.Decimal, fromCur models.Currency) string {
	return fmt.Sprintf("%s %s = %s %s", Number(to), toCur, Number(from), fromCur)
}

func reason(r rates.Reason) string {
	switch r {
	case rates.ReasonNetwork:
		return "network error"
	case rates.ReasonUnknownPair:
		return "pair not quoted"
	default:
		return "provider error"
	}
}
