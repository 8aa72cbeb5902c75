package bot

import (
	"sync"

	"travel-wallet/internal/models"

	"github.com/shopspring/decimal"
)

// State is the position of a user inside a multi-step flow. Each
// implementation carries exactly the fields valid in that state.
type State interface {
	state()
}

// RateOrigin records where the rate carried through trip setup came from.
type RateOrigin string

const (
	RateQuoted RateOrigin = "quoted"
	RateManual RateOrigin = "manual"
)

// route is the country and currency pair collected by trip setup.
type route struct {
	FromCountry  string
	ToCountry    string
	FromCurrency models.Currency
	ToCurrency   models.Currency
}

type (
	AwaitingFromCountry struct{}

	AwaitingToCountry struct {
		FromCountry  string
		FromCurrency models.Currency
	}

	AwaitingRateConfirmation struct {
		route
		Rate decimal.Decimal
	}

	AwaitingManualRate struct {
		route
	}

	AwaitingInitialAmount struct {
		route
		Rate   decimal.Decimal
		Origin RateOrigin
	}

	AwaitingExpenseConfirmation struct {
		TripID     int64
		AmountTo   decimal.Decimal
		AmountFrom decimal.Decimal
	}

	AwaitingDescription struct {
		TripID    int64
		ExpenseID int64
	}

	AwaitingNewRate struct {
		TripID int64
	}
)

func (AwaitingFromCountry) state()         {}
func (AwaitingToCountry) state()           {}
func (AwaitingRateConfirmation) state()    {}
func (AwaitingManualRate) state()          {}
func (AwaitingInitialAmount) state()       {}
func (AwaitingExpenseConfirmation) state() {}
func (AwaitingDescription) state()         {}
func (AwaitingNewRate) state()             {}

// SessionStore keeps the in-flight State of each user. A missing entry means
// the user is idle.
type SessionStore interface {
	Load(user models.UserID) (State, bool)
	Save(user models.UserID, s State)
	Clear(user models.UserID)
}

// MemoryStore is a process-local SessionStore.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[models.UserID]State
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[models.UserID]State)}
}

func (m *MemoryStore) Load(user models.UserID) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[user]
	return s, ok
}

func (m *MemoryStore) Save(user models.UserID, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[user] = s
}

func (m *MemoryStore) Clear(user models.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, user)
}
