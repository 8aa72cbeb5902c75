package bot

import (
	"context"
	"fmt"
	"strings"

	"travel-wallet/internal/ledger"
	"travel-wallet/internal/models"
	"travel-wallet/internal/rates"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

func (r *Router) startSetup(user models.UserID) []Reply {
	r.sessions.Save(user, AwaitingFromCountry{})
	return []Reply{{Kind: KindAskFromCountry}}
}

func (r *Router) fromCountry(user models.UserID, text string) []Reply {
	currency, ok := r.countries.Resolve(text)
	if !ok {
		return []Reply{{Kind: KindUnknownCountry, Text: text}}
	}

	r.sessions.Save(user, AwaitingToCountry{FromCountry: text, FromCurrency: currency})
	return []Reply{{Kind: KindAskToCountry, Text: text, From: currency}}
}

func (r *Router) toCountry(ctx context.Context, logger log.Logger, user models.UserID, s AwaitingToCountry, text string) []Reply {
	currency, ok := r.countries.Resolve(text)
	if !ok {
		return []Reply{{Kind: KindUnknownCountry, Text: text}}
	}
	if currency == s.FromCurrency {
		return []Reply{{Kind: KindSameCurrency, From: s.FromCurrency, To: currency}}
	}

	if !r.rates.IsQuotable(ctx, s.FromCurrency) {
		r.sessions.Clear(user)
		return []Reply{{Kind: KindOriginNotQuotable, From: s.FromCurrency}}
	}
	if !r.rates.IsQuotable(ctx, currency) {
		return []Reply{{Kind: KindDestinationNotQuotable, To: currency}}
	}

	rate, err := r.rates.Quote(ctx, s.FromCurrency, currency)
	if err != nil {
		level.Warn(logger).Log("msg", "rate discovery failed", "from", s.FromCurrency, "to", currency, "err", err)
		r.sessions.Clear(user)
		return []Reply{{Kind: KindRateUnavailable, From: s.FromCurrency, To: currency, Reason: rates.ReasonOf(err)}}
	}

	next := AwaitingRateConfirmation{
		route: route{
			FromCountry:  s.FromCountry,
			ToCountry:    text,
			FromCurrency: s.FromCurrency,
			ToCurrency:   currency,
		},
		Rate: rate,
	}
	r.sessions.Save(user, next)
	return []Reply{{Kind: KindConfirmRate, Confirm: PurposeRate, From: s.FromCurrency, To: currency, Rate: rate}}
}

func (r *Router) confirmRate(user models.UserID, s AwaitingRateConfirmation, accept bool) []Reply {
	if !accept {
		r.sessions.Save(user, AwaitingManualRate{route: s.route})
		return []Reply{{Kind: KindAskManualRate, From: s.FromCurrency, To: s.ToCurrency}}
	}
	r.sessions.Save(user, AwaitingInitialAmount{route: s.route, Rate: s.Rate, Origin: RateQuoted})
	return []Reply{{Kind: KindAskInitialAmount, From: s.FromCurrency}}
}

func (r *Router) manualRate(user models.UserID, s AwaitingManualRate, text string) []Reply {
	rate, err := ParseAmount(text)
	if err != nil {
		return []Reply{{Kind: KindInvalidRate}}
	}
	r.sessions.Save(user, AwaitingInitialAmount{route: s.route, Rate: rate, Origin: RateManual})
	return []Reply{{Kind: KindAskInitialAmount, From: s.FromCurrency}}
}

func (r *Router) initialAmount(ctx context.Context, logger log.Logger, user models.UserID, s AwaitingInitialAmount, text string) ([]Reply, error) {
	amount, err := ParseAmount(text)
	if err != nil {
		return []Reply{{Kind: KindInvalidAmount}}, nil
	}

	var replies []Reply
	rate := s.Rate
	amountTo := amount.Mul(rate)
	if r.opts.PreferLiveRate || s.Origin == RateQuoted {
		conv, err := r.rates.Convert(ctx, amount, s.FromCurrency, s.ToCurrency)
		if err != nil {
			level.Warn(logger).Log("msg", "live conversion failed, using carried rate", "origin", s.Origin, "rate", rate, "err", err)
			replies = append(replies, Reply{Kind: KindRateFallback, From: s.FromCurrency, To: s.ToCurrency, Rate: rate, Reason: rates.ReasonOf(err)})
		} else {
			rate, amountTo = conv.Rate, conv.Amount
		}
	}

	trip, err := r.ledger.CreateTrip(ctx, ledger.NewTrip{
		User:              user,
		Name:              tripName(s.FromCountry, s.ToCountry),
		FromCountry:       s.FromCountry,
		ToCountry:         s.ToCountry,
		FromCurrency:      s.FromCurrency,
		ToCurrency:        s.ToCurrency,
		Rate:              rate,
		InitialAmountFrom: amount,
		InitialAmountTo:   amountTo,
	})
	r.sessions.Clear(user)
	if err != nil {
		return nil, fmt.Errorf("committing trip: %w", err)
	}

	return append(replies, Reply{Kind: KindTripCreated, Trip: trip}), nil
}

func tripName(from, to string) string {
	return strings.TrimSpace(from) + " → " + strings.TrimSpace(to)
}
