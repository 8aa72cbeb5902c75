package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type reply struct {
	Kind    string `json:"kind"`
	Text    string `json:"text"`
	Confirm string `json:"confirm"`
}

type repliesResponse struct {
	Replies []reply `json:"replies"`
}

type trip struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	BalanceFrom  decimal.Decimal `json:"balance_from"`
	BalanceTo    decimal.Decimal `json:"balance_to"`
	IsActive     bool            `json:"is_active"`
}

// E2ETestSuite provides a test suite for end-to-end tests
type E2ETestSuite struct {
	suite.Suite
	user string
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	// Every test talks as a fresh user so sessions and trips never leak between tests
	suite.user = uuid.NewString()
}

func (suite *E2ETestSuite) post(path string, body any) []reply {
	data, err := json.Marshal(body)
	require.NoError(suite.T(), err)

	resp, err := http.Post(appURL+path, "application/json", bytes.NewReader(data))
	require.NoError(suite.T(), err, "could not reach app")
	defer resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var out repliesResponse
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&out))
	return out.Replies
}

func (suite *E2ETestSuite) say(text string) []reply {
	return suite.post("/api/messages", map[string]string{"user_id": suite.user, "name": "e2e", "text": text})
}

func (suite *E2ETestSuite) confirm(purpose string, accept bool) []reply {
	return suite.post("/api/confirmations", map[string]any{"user_id": suite.user, "purpose": purpose, "accept": accept})
}

func (suite *E2ETestSuite) trips() []trip {
	resp, err := http.Get(fmt.Sprintf("%s/api/users/%s/trips", appURL, suite.user))
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var out struct {
		Trips []trip `json:"trips"`
	}
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&out))
	return out.Trips
}

func (suite *E2ETestSuite) lastKind(replies []reply) string {
	require.NotEmpty(suite.T(), replies)
	return replies[len(replies)-1].Kind
}

func (suite *E2ETestSuite) createTrip() {
	suite.say("/start")
	suite.say("/newtrip")
	suite.say("Russia")
	replies := suite.say("China")
	require.Equal(suite.T(), "confirm_rate", suite.lastKind(replies))
	assert.Equal(suite.T(), "rate", replies[0].Confirm)
	assert.Contains(suite.T(), replies[0].Text, "1 RUB = 12,5000 CNY")

	suite.confirm("rate", true)
	replies = suite.say("1000")
	require.Equal(suite.T(), "trip_created", suite.lastKind(replies))
}

func (suite *E2ETestSuite) TestCreateTripAndRecordExpense() {
	suite.createTrip()

	replies := suite.say("500")
	require.Equal(suite.T(), "confirm_expense", suite.lastKind(replies))
	assert.Contains(suite.T(), replies[0].Text, "500,00 CNY = 40,00 RUB")

	replies = suite.confirm("expense", true)
	require.Len(suite.T(), replies, 2)
	assert.Contains(suite.T(), replies[0].Text, "12 000,00 CNY = 960,00 RUB")

	replies = suite.say("Dumplings")
	assert.Equal(suite.T(), "description_saved", suite.lastKind(replies))

	trips := suite.trips()
	require.Len(suite.T(), trips, 1)
	assert.True(suite.T(), trips[0].IsActive)
	assert.True(suite.T(), decimal.NewFromInt(12000).Equal(trips[0].BalanceTo))
	assert.True(suite.T(), decimal.NewFromInt(960).Equal(trips[0].BalanceFrom))
}

func (suite *E2ETestSuite) TestRateChangeRecomputesOriginBalance() {
	suite.createTrip()
	suite.say("500")
	suite.confirm("expense", true)
	suite.say("/skip")

	replies := suite.say("/setrate")
	require.Equal(suite.T(), "ask_new_rate", suite.lastKind(replies))
	replies = suite.say("13")
	require.Equal(suite.T(), "rate_updated", suite.lastKind(replies))

	trips := suite.trips()
	require.Len(suite.T(), trips, 1)
	assert.True(suite.T(), decimal.NewFromInt(12000).Equal(trips[0].BalanceTo))
	assert.InDelta(suite.T(), 923.076923, trips[0].BalanceFrom.InexactFloat64(), 1e-6)
}

func (suite *E2ETestSuite) TestRejectedRateAsksForManualRate() {
	suite.say("/newtrip")
	suite.say("Russia")
	suite.say("China")

	replies := suite.confirm("rate", false)
	assert.Equal(suite.T(), "ask_manual_rate", suite.lastKind(replies))

	replies = suite.say("abc")
	assert.Equal(suite.T(), "invalid_rate", suite.lastKind(replies))

	suite.say("12,5")
	replies = suite.say("1000")
	require.Equal(suite.T(), "trip_created", suite.lastKind(replies))

	trips := suite.trips()
	require.Len(suite.T(), trips, 1)
	assert.True(suite.T(), decimal.NewFromInt(12500).Equal(trips[0].BalanceTo))
	assert.True(suite.T(), decimal.NewFromInt(1000).Equal(trips[0].BalanceFrom))
}

func (suite *E2ETestSuite) TestStaleConfirmation() {
	replies := suite.confirm("expense", true)
	assert.Equal(suite.T(), "stale", suite.lastKind(replies))
}

func (suite *E2ETestSuite) TestSameCurrencyReprompts() {
	suite.say("/newtrip")
	suite.say("Russia")
	replies := suite.say("Russia")
	assert.Equal(suite.T(), "same_currency", suite.lastKind(replies))

	replies = suite.say("Thailand")
	assert.Equal(suite.T(), "confirm_rate", suite.lastKind(replies))
}

func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
