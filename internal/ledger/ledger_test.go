package ledger_test

import (
	"context"
	"testing"

	"travel-wallet/internal/ledger"
	"travel-wallet/internal/models"
	"travel-wallet/internal/storage"

	"github.com/go-kit/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertInvariant checks balance_to == balance_from * rate within 1e-6 relative.
func assertInvariant(t *testing.T, trip *models.Trip) {
	t.Helper()
	want := trip.BalanceFrom.Mul(trip.ExchangeRate)
	diff := want.Sub(trip.BalanceTo).Abs()
	tolerance := trip.BalanceTo.Abs().Mul(dec("0.000001"))
	if tolerance.LessThan(dec("0.000001")) {
		tolerance = dec("0.000001")
	}
	assert.True(t, diff.LessThanOrEqual(tolerance),
		"balance_to %s != balance_from %s * rate %s", trip.BalanceTo, trip.BalanceFrom, trip.ExchangeRate)
}

type LedgerTestSuite struct {
	suite.Suite
	db     *storage.DB
	ledger *ledger.Ledger
	ctx    context.Context
}

func (suite *LedgerTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ledger = ledger.New(db, log.NewNopLogger())
	suite.ctx = context.Background()
}

func (suite *LedgerTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *LedgerTestSuite) createTrip(user models.UserID) *models.Trip {
	trip, err := suite.ledger.CreateTrip(suite.ctx, ledger.NewTrip{
		User:              user,
		Name:              "Russia → China",
		FromCountry:       "Russia",
		ToCountry:         "China",
		FromCurrency:      "RUB",
		ToCurrency:        "CNY",
		Rate:              dec("12.5"),
		InitialAmountFrom: dec("1000"),
		InitialAmountTo:   dec("12500"),
	})
	require.NoError(suite.T(), err)
	return trip
}

func (suite *LedgerTestSuite) TestCreateTripRoundTrip() {
	trip := suite.createTrip("42")
	assert.True(suite.T(), dec("12500").Equal(trip.BalanceTo))
	assert.True(suite.T(), dec("1000").Equal(trip.BalanceFrom))
	assertInvariant(suite.T(), trip)
}

func (suite *LedgerTestSuite) TestCreateTripRejectsInvalidInput() {
	base := ledger.NewTrip{
		User: "42", Name: "x", FromCountry: "a", ToCountry: "b",
		FromCurrency: "RUB", ToCurrency: "CNY",
		Rate: dec("12.5"), InitialAmountFrom: dec("1000"), InitialAmountTo: dec("12500"),
	}

	tests := []struct {
		name    string
		mutate  func(nt *ledger.NewTrip)
		wantErr error
	}{
		{"same currency", func(nt *ledger.NewTrip) { nt.ToCurrency = "RUB" }, models.ErrSameCurrency},
		{"zero rate", func(nt *ledger.NewTrip) { nt.Rate = decimal.Zero }, models.ErrInvalidRate},
		{"negative rate", func(nt *ledger.NewTrip) { nt.Rate = dec("-1") }, models.ErrInvalidRate},
		{"zero amount from", func(nt *ledger.NewTrip) { nt.InitialAmountFrom = decimal.Zero }, models.ErrInvalidAmount},
		{"negative amount to", func(nt *ledger.NewTrip) { nt.InitialAmountTo = dec("-5") }, models.ErrInvalidAmount},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			nt := base
			tt.mutate(&nt)
			_, err := suite.ledger.CreateTrip(suite.ctx, nt)
			assert.ErrorIs(suite.T(), err, tt.wantErr)
		})
	}

	trips, err := suite.ledger.Trips(suite.ctx, "42")
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), trips, "rejected trips must not be stored")
}

func (suite *LedgerTestSuite) TestExpenseScenario() {
	trip := suite.createTrip("42")

	amountTo := dec("500")
	amountFrom := trip.ToOrigin(amountTo)
	assert.True(suite.T(), dec("40").Equal(amountFrom))

	_, err := suite.ledger.RecordExpense(suite.ctx, trip.ID, amountTo, amountFrom, "")
	require.NoError(suite.T(), err)

	trip, err = suite.ledger.Trip(suite.ctx, trip.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), dec("12000").Equal(trip.BalanceTo))
	assert.True(suite.T(), dec("960").Equal(trip.BalanceFrom))
	assertInvariant(suite.T(), trip)
}

func (suite *LedgerTestSuite) TestUpdateRateScenario() {
	trip := suite.createTrip("42")
	_, err := suite.ledger.RecordExpense(suite.ctx, trip.ID, dec("500"), dec("40"), "")
	require.NoError(suite.T(), err)

	trip, err = suite.ledger.UpdateRate(suite.ctx, trip.ID, dec("13.0"))
	require.NoError(suite.T(), err)
	assert.True(suite.T(), dec("12000").Equal(trip.BalanceTo))
	assert.InDelta(suite.T(), 923.076923, trip.BalanceFrom.InexactFloat64(), 1e-6)
	assertInvariant(suite.T(), trip)

	_, err = suite.ledger.UpdateRate(suite.ctx, trip.ID, decimal.Zero)
	assert.ErrorIs(suite.T(), err, models.ErrInvalidRate)
}

func (suite *LedgerTestSuite) TestExpenseAndRateChangeAgree() {
	trip := suite.createTrip("42")

	// The per-expense conversion and the rate-change recomputation use the same
	// direction, so recomputing at the unchanged rate is a no-op.
	amountTo := dec("1234.56")
	_, err := suite.ledger.RecordExpense(suite.ctx, trip.ID, amountTo, trip.ToOrigin(amountTo), "")
	require.NoError(suite.T(), err)

	before, err := suite.ledger.Trip(suite.ctx, trip.ID)
	require.NoError(suite.T(), err)
	after, err := suite.ledger.UpdateRate(suite.ctx, trip.ID, before.ExchangeRate)
	require.NoError(suite.T(), err)

	assert.InDelta(suite.T(), before.BalanceFrom.InexactFloat64(), after.BalanceFrom.InexactFloat64(), 1e-9)
}

func (suite *LedgerTestSuite) TestInvariantAcrossMutations() {
	trip := suite.createTrip("42")

	steps := []struct {
		expense string
		rate    string
	}{
		{"333.33", ""},
		{"", "11.7"},
		{"1000", ""},
		{"0.01", "14.123456"},
		{"99999", ""},
		{"", "0.3"},
	}
	for _, step := range steps {
		if step.expense != "" {
			current, err := suite.ledger.Trip(suite.ctx, trip.ID)
			require.NoError(suite.T(), err)
			amountTo := dec(step.expense)
			_, err = suite.ledger.RecordExpense(suite.ctx, trip.ID, amountTo, current.ToOrigin(amountTo), "")
			require.NoError(suite.T(), err)
		}
		if step.rate != "" {
			_, err := suite.ledger.UpdateRate(suite.ctx, trip.ID, dec(step.rate))
			require.NoError(suite.T(), err)
		}
		current, err := suite.ledger.Trip(suite.ctx, trip.ID)
		require.NoError(suite.T(), err)
		assertInvariant(suite.T(), current)
	}
}

func (suite *LedgerTestSuite) TestActivateLeavesExactlyOneActive() {
	first := suite.createTrip("42")
	second := suite.createTrip("42")
	third := suite.createTrip("42")

	for _, id := range []int64{first.ID, third.ID, second.ID, second.ID} {
		require.NoError(suite.T(), suite.ledger.Activate(suite.ctx, "42", id))

		trips, err := suite.ledger.Trips(suite.ctx, "42")
		require.NoError(suite.T(), err)
		active := 0
		for _, t := range trips {
			if t.IsActive {
				active++
				assert.Equal(suite.T(), id, t.ID)
			}
		}
		assert.Equal(suite.T(), 1, active)
	}

	err := suite.ledger.Activate(suite.ctx, "someone-else", first.ID)
	assert.ErrorIs(suite.T(), err, models.ErrTripNotFound)
}

func (suite *LedgerTestSuite) TestRegisterUserKeepsFirstName() {
	require.NoError(suite.T(), suite.ledger.RegisterUser(suite.ctx, "42", "alice"))
	require.NoError(suite.T(), suite.ledger.RegisterUser(suite.ctx, "42", ""))

	u, err := suite.ledger.User(suite.ctx, "42")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "alice", u.Name)

	_, err = suite.ledger.User(suite.ctx, "7")
	assert.ErrorIs(suite.T(), err, models.ErrUserNotFound)
}

func (suite *LedgerTestSuite) TestNoActiveTrip() {
	_, err := suite.ledger.ActiveTrip(suite.ctx, "42")
	assert.ErrorIs(suite.T(), err, models.ErrNoActiveTrip)
}

func (suite *LedgerTestSuite) TestSetDescriptionTwice() {
	trip := suite.createTrip("42")
	e, err := suite.ledger.RecordExpense(suite.ctx, trip.ID, dec("500"), dec("40"), "")
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.ledger.SetDescription(suite.ctx, e.ID, "taxi"))
	require.NoError(suite.T(), suite.ledger.SetDescription(suite.ctx, e.ID, "train"))

	expenses, err := suite.ledger.Expenses(suite.ctx, trip.ID, 10)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), expenses, 1)
	assert.Equal(suite.T(), "train", expenses[0].Description)
}

func (suite *LedgerTestSuite) TestRecordExpenseRejectsNonPositive() {
	trip := suite.createTrip("42")
	_, err := suite.ledger.RecordExpense(suite.ctx, trip.ID, decimal.Zero, decimal.Zero, "")
	assert.ErrorIs(suite.T(), err, models.ErrInvalidAmount)
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}
