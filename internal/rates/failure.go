package rates

import (
	"errors"
	"fmt"

	"travel-wallet/internal/models"
)

// Reason classifies why a rate lookup failed.
type Reason string

const (
	ReasonNetwork     Reason = "network"
	ReasonUnknownPair Reason = "unknown_pair"
	ReasonProvider    Reason = "provider"
)

// Failure is the error returned for every unsuccessful rate lookup.
type Failure struct {
	Reason Reason
	From   models.Currency
	To     models.Currency
	Err    error
}

func (f *Failure) Error() string {
	if f.To == "" {
		return fmt.Sprintf("rate lookup [%v] %s: %v", f.From, f.Reason, f.Err)
	}
	return fmt.Sprintf("rate lookup [%v/%v] %s: %v", f.From, f.To, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf reports the failure reason carried by err, defaulting to
// ReasonProvider for errors that are not a *Failure.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ReasonProvider
}
