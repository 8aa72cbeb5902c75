package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_ExchangeRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/live", req.URL.Path)
		assert.Equal(t, "RUB", req.URL.Query().Get("source"))
		assert.Equal(t, "secret", req.URL.Query().Get("access_key"))
		response := `{
			"success": true,
			"source": "RUB",
			"quotes": {
				"RUBCNY": 0.0812345678901234,
				"RUBUSD": 0.011
			}
		}`
		_, _ = rw.Write([]byte(response))
	}))
	defer server.Close()

	s := NewService(server.URL, "secret", time.Second)

	rates, err := s.ExchangeRates(context.Background(), "RUB")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.0812345678901234").Equal(rates["CNY"]), "full precision is kept")
	assert.True(t, decimal.RequireFromString("0.011").Equal(rates["USD"]))
}

func TestService_ExchangeRatesProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		_, _ = rw.Write([]byte(`{"success": false, "error": {"code": 101, "info": "invalid access key"}}`))
	}))
	defer server.Close()

	s := NewService(server.URL, "bad", time.Second)

	_, err := s.ExchangeRates(context.Background(), "RUB")
	require.Error(t, err)
	assert.Equal(t, ReasonProvider, ReasonOf(err))
	assert.Contains(t, err.Error(), "invalid access key")
}

func TestService_ExchangeRatesBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	s := NewService(server.URL, "", time.Second)

	_, err := s.ExchangeRates(context.Background(), "RUB")
	require.Error(t, err)
	assert.Equal(t, ReasonProvider, ReasonOf(err))
}

func TestService_ExchangeRatesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = rw.Write([]byte("{}"))
	}))
	defer server.Close()

	s := NewService(server.URL, "", 1*time.Millisecond)

	_, err := s.ExchangeRates(context.Background(), "RUB")
	require.Error(t, err)
	assert.Equal(t, ReasonNetwork, ReasonOf(err))
}
