package rates

import (
	"context"
	"errors"
	"time"

	"travel-wallet/internal/models"

	"github.com/shopspring/decimal"
)

// probeCurrency is the base used to check whether a currency is quotable at all.
const probeCurrency models.Currency = "USD"

// Conversion is the result of converting an amount at a live rate.
type Conversion struct {
	Amount decimal.Decimal
	Rate   decimal.Decimal
}

// Source answers pair quotes on top of a Service. Every call is bounded by
// timeout; running out of time is reported as a network failure.
type Source struct {
	service Service
	timeout time.Duration
}

// NewSource constructs a Source.
func NewSource(s Service, timeout time.Duration) *Source {
	return &Source{service: s, timeout: timeout}
}

// Quote returns the number of to units per one from unit.
func (s *Source) Quote(ctx context.Context, from, to models.Currency) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rates, err := s.service.ExchangeRates(ctx, from)
	if err != nil {
		return decimal.Zero, asFailure(err, from, to)
	}
	rate, ok := rates[to]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, &Failure{Reason: ReasonUnknownPair, From: from, To: to, Err: errors.New("pair not quoted")}
	}
	return rate, nil
}

// Convert converts amount from one currency to another at the live rate.
func (s *Source) Convert(ctx context.Context, amount decimal.Decimal, from, to models.Currency) (Conversion, error) {
	rate, err := s.Quote(ctx, from, to)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{Amount: amount.Mul(rate), Rate: rate}, nil
}

// IsQuotable reports whether the provider knows currency, either as a quote
// against USD or as a base of its own.
func (s *Source) IsQuotable(ctx context.Context, currency models.Currency) bool {
	if currency == probeCurrency {
		return s.hasRates(ctx, probeCurrency)
	}
	if _, err := s.Quote(ctx, probeCurrency, currency); err == nil {
		return true
	}
	return s.hasRates(ctx, currency)
}

func (s *Source) hasRates(ctx context.Context, base models.Currency) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rates, err := s.service.ExchangeRates(ctx, base)
	return err == nil && len(rates) > 0
}

func asFailure(err error, from, to models.Currency) error {
	var f *Failure
	if errors.As(err, &f) {
		return &Failure{Reason: f.Reason, From: from, To: to, Err: f.Err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Failure{Reason: ReasonNetwork, From: from, To: to, Err: err}
	}
	return &Failure{Reason: ReasonProvider, From: from, To: to, Err: err}
}
