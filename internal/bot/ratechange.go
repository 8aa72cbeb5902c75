package bot

import (
	"context"
	"errors"

	"travel-wallet/internal/models"
)

func (r *Router) startRateChange(ctx context.Context, user models.UserID) ([]Reply, error) {
	trip, err := r.ledger.ActiveTrip(ctx, user)
	if errors.Is(err, models.ErrNoActiveTrip) {
		r.sessions.Clear(user)
		return []Reply{{Kind: KindNoActiveTrip}}, nil
	}
	if err != nil {
		return nil, err
	}

	r.sessions.Save(user, AwaitingNewRate{TripID: trip.ID})
	return []Reply{{Kind: KindAskNewRate, Trip: trip, From: trip.FromCurrency, To: trip.ToCurrency, Rate: trip.ExchangeRate}}, nil
}

func (r *Router) newRate(ctx context.Context, user models.UserID, s AwaitingNewRate, text string) ([]Reply, error) {
	rate, err := ParseAmount(text)
	if err != nil {
		return []Reply{{Kind: KindInvalidRate}}, nil
	}

	trip, err := r.ledger.UpdateRate(ctx, s.TripID, rate)
	r.sessions.Clear(user)
	if errors.Is(err, models.ErrTripNotFound) {
		return []Reply{{Kind: KindSessionReset}}, nil
	}
	if err != nil {
		return nil, err
	}
	return []Reply{{Kind: KindRateUpdated, Trip: trip, Rate: rate}}, nil
}
