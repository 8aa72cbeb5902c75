// Package bot implements the conversation: trip setup, expense entry and rate
// change flows, and the router that dispatches user events to them.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"travel-wallet/internal/ledger"
	"travel-wallet/internal/models"
	"travel-wallet/internal/rates"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SkipToken leaves an expense without a description.
const SkipToken = "/skip"

// Ledger is the subset of *ledger.Ledger the flows use.
type Ledger interface {
	RegisterUser(ctx context.Context, user models.UserID, name string) error
	User(ctx context.Context, user models.UserID) (*models.User, error)
	CreateTrip(ctx context.Context, nt ledger.NewTrip) (*models.Trip, error)
	ActiveTrip(ctx context.Context, user models.UserID) (*models.Trip, error)
	Trip(ctx context.Context, tripID int64) (*models.Trip, error)
	Trips(ctx context.Context, user models.UserID) ([]models.Trip, error)
	Activate(ctx context.Context, user models.UserID, tripID int64) error
	RecordExpense(ctx context.Context, tripID int64, amountTo, amountFrom decimal.Decimal, description string) (*models.Expense, error)
	SetDescription(ctx context.Context, expenseID int64, text string) error
	UpdateRate(ctx context.Context, tripID int64, rate decimal.Decimal) (*models.Trip, error)
	Expenses(ctx context.Context, tripID int64, limit int) ([]models.Expense, error)
	Summary(ctx context.Context, tripID int64) (models.TripSummary, error)
}

// RateSource quotes currency pairs. Failures are *rates.Failure.
type RateSource interface {
	Quote(ctx context.Context, from, to models.Currency) (decimal.Decimal, error)
	IsQuotable(ctx context.Context, currency models.Currency) bool
	Convert(ctx context.Context, amount decimal.Decimal, from, to models.Currency) (rates.Conversion, error)
}

// Resolver maps a country typed by the user to its currency.
type Resolver interface {
	Resolve(text string) (models.Currency, bool)
}

// Options tune the flows.
type Options struct {
	// PreferLiveRate makes trip setup re-quote the pair at commit even when
	// the user typed the rate by hand.
	PreferLiveRate bool
	// HistoryLimit caps the expenses listed by the history command.
	HistoryLimit int
}

// Router dispatches text, confirmation and command events to the flows.
// Events of one user are handled one at a time; different users proceed in
// parallel.
type Router struct {
	ledger    Ledger
	rates     RateSource
	countries Resolver
	sessions  SessionStore
	opts      Options
	logger    log.Logger

	mu    sync.Mutex
	users map[models.UserID]*userLock
}

// userLock is dropped from Router.users once no event holds or waits on it.
type userLock struct {
	sync.Mutex
	refs int
}

// NewRouter constructs a Router.
func NewRouter(l Ledger, rs RateSource, countries Resolver, sessions SessionStore, opts Options, logger log.Logger) *Router {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	return &Router{
		ledger:    l,
		rates:     rs,
		countries: countries,
		sessions:  sessions,
		opts:      opts,
		logger:    logger,
		users:     make(map[models.UserID]*userLock),
	}
}

// lock serializes events of one user and returns the unlock func.
func (r *Router) lock(user models.UserID) func() {
	r.mu.Lock()
	l, ok := r.users[user]
	if !ok {
		l = &userLock{}
		r.users[user] = l
	}
	l.refs++
	r.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.users, user)
		}
		r.mu.Unlock()
	}
}

func (r *Router) eventLogger(user models.UserID, event string) log.Logger {
	return log.With(r.logger, "event", event, "event_id", uuid.NewString(), "user", user)
}

// Register records the user on first contact; later calls keep the stored
// name. Transports call it for every incoming event.
func (r *Router) Register(ctx context.Context, user models.UserID, name string) error {
	if err := r.ledger.RegisterUser(ctx, user, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("registering user: %w", err)
	}
	return nil
}

// HandleText routes a free-text message. Commands never reach the flows: text
// starting with '/' is ignored unless it is the skip token while a
// description is awaited.
func (r *Router) HandleText(ctx context.Context, user models.UserID, text string) ([]Reply, error) {
	defer r.lock(user)()
	logger := r.eventLogger(user, "text")

	text = strings.TrimSpace(text)
	st, active := r.sessions.Load(user)
	level.Debug(logger).Log("msg", "text received", "state", stateName(st))

	if strings.EqualFold(text, SkipToken) {
		if d, ok := st.(AwaitingDescription); ok {
			return r.skipDescription(user, d), nil
		}
		return nil, nil
	}
	if strings.HasPrefix(text, "/") {
		return nil, nil
	}

	if !active {
		return r.idle(ctx, user, text)
	}

	var (
		replies []Reply
		err     error
	)
	switch s := st.(type) {
	case AwaitingFromCountry:
		replies = r.fromCountry(user, text)
	case AwaitingToCountry:
		replies = r.toCountry(ctx, logger, user, s, text)
	case AwaitingManualRate:
		replies = r.manualRate(user, s, text)
	case AwaitingInitialAmount:
		replies, err = r.initialAmount(ctx, logger, user, s, text)
	case AwaitingDescription:
		replies, err = r.describe(ctx, user, s, text)
	case AwaitingNewRate:
		replies, err = r.newRate(ctx, user, s, text)
	case AwaitingRateConfirmation, AwaitingExpenseConfirmation:
		// Only a confirmation event advances these states.
		return nil, nil
	default:
		level.Error(logger).Log("msg", "unexpected session state", "state", fmt.Sprintf("%T", st))
		r.sessions.Clear(user)
		return []Reply{{Kind: KindSessionReset}}, nil
	}
	if err != nil {
		level.Error(logger).Log("msg", "handling text failed", "err", err)
	}
	return replies, err
}

// HandleConfirmation routes a yes/no answer. An answer whose purpose does not
// match the pending question is stale: the session is cleared.
func (r *Router) HandleConfirmation(ctx context.Context, user models.UserID, purpose Purpose, accept bool) ([]Reply, error) {
	defer r.lock(user)()
	logger := r.eventLogger(user, "confirmation")

	st, _ := r.sessions.Load(user)
	level.Debug(logger).Log("msg", "confirmation received", "purpose", purpose, "accept", accept, "state", stateName(st))

	switch purpose {
	case PurposeRate:
		if s, ok := st.(AwaitingRateConfirmation); ok {
			return r.confirmRate(user, s, accept), nil
		}
	case PurposeExpense:
		if s, ok := st.(AwaitingExpenseConfirmation); ok {
			replies, err := r.confirmExpense(ctx, user, s, accept)
			if err != nil {
				level.Error(logger).Log("msg", "recording expense failed", "err", err)
			}
			return replies, err
		}
	}

	level.Warn(logger).Log("msg", "stale confirmation", "purpose", purpose, "state", stateName(st))
	r.sessions.Clear(user)
	return []Reply{{Kind: KindStale}}, nil
}

// idle handles text outside any flow: a bare number starts an expense.
func (r *Router) idle(ctx context.Context, user models.UserID, text string) ([]Reply, error) {
	amount, err := ParseAmount(text)
	switch {
	case errors.Is(err, models.ErrInvalidAmount):
		return []Reply{{Kind: KindNotPositive}}, nil
	case err != nil:
		return []Reply{{Kind: KindNotUnderstood}}, nil
	}
	return r.startExpense(ctx, user, amount)
}

func stateName(st State) string {
	if st == nil {
		return "idle"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", st), "bot.")
}
