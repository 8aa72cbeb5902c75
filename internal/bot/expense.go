package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"travel-wallet/internal/models"

	"github.com/shopspring/decimal"
)

func (r *Router) startExpense(ctx context.Context, user models.UserID, amountTo decimal.Decimal) ([]Reply, error) {
	trip, err := r.ledger.ActiveTrip(ctx, user)
	if errors.Is(err, models.ErrNoActiveTrip) {
		return []Reply{{Kind: KindNoActiveTrip}}, nil
	}
	if err != nil {
		return nil, err
	}

	amountFrom := trip.ToOrigin(amountTo)
	r.sessions.Save(user, AwaitingExpenseConfirmation{TripID: trip.ID, AmountTo: amountTo, AmountFrom: amountFrom})
	return []Reply{{
		Kind:       KindConfirmExpense,
		Confirm:    PurposeExpense,
		Trip:       trip,
		From:       trip.FromCurrency,
		To:         trip.ToCurrency,
		AmountTo:   amountTo,
		AmountFrom: amountFrom,
	}}, nil
}

func (r *Router) confirmExpense(ctx context.Context, user models.UserID, s AwaitingExpenseConfirmation, accept bool) ([]Reply, error) {
	if !accept {
		r.sessions.Clear(user)
		return []Reply{{Kind: KindExpenseDiscarded}}, nil
	}

	e, err := r.ledger.RecordExpense(ctx, s.TripID, s.AmountTo, s.AmountFrom, "")
	if errors.Is(err, models.ErrTripNotFound) {
		r.sessions.Clear(user)
		return []Reply{{Kind: KindSessionReset}}, nil
	}
	if err != nil {
		r.sessions.Clear(user)
		return nil, err
	}

	trip, err := r.ledger.Trip(ctx, s.TripID)
	if err != nil {
		r.sessions.Clear(user)
		return nil, fmt.Errorf("reloading trip: %w", err)
	}

	r.sessions.Save(user, AwaitingDescription{TripID: s.TripID, ExpenseID: e.ID})
	return []Reply{
		{Kind: KindExpenseRecorded, Trip: trip, Expense: e},
		{Kind: KindAskDescription},
	}, nil
}

func (r *Router) describe(ctx context.Context, user models.UserID, s AwaitingDescription, text string) ([]Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []Reply{{Kind: KindAskDescription}}, nil
	}

	err := r.ledger.SetDescription(ctx, s.ExpenseID, text)
	r.sessions.Clear(user)
	if errors.Is(err, models.ErrExpenseNotFound) {
		return []Reply{{Kind: KindSessionReset}}, nil
	}
	if err != nil {
		return nil, err
	}
	return []Reply{{Kind: KindDescriptionSaved, Text: text}}, nil
}

func (r *Router) skipDescription(user models.UserID, _ AwaitingDescription) []Reply {
	r.sessions.Clear(user)
	return []Reply{{Kind: KindDescriptionSkipped}}
}
