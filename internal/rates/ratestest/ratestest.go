// Package ratestest provides a fake exchangerate.host server for tests.
package ratestest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"travel-wallet/internal/models"

	"github.com/shopspring/decimal"
)

// Server answers /live requests from a table of USD rates. Cross rates are
// derived as usd[quote] / usd[source].
type Server struct {
	*httptest.Server
	usd      map[models.Currency]decimal.Decimal
	failing  atomic.Bool
	requests atomic.Int64
}

// NewServer starts a Server. usd maps a currency to its units per 1 USD.
func NewServer(usd map[models.Currency]string) *Server {
	s := &Server{usd: map[models.Currency]decimal.Decimal{"USD": decimal.NewFromInt(1)}}
	for c, v := range usd {
		s.usd[c] = decimal.RequireFromString(v)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.live))
	return s
}

// Fail makes every following request answer with a provider error.
func (s *Server) Fail(fail bool) {
	s.failing.Store(fail)
}

// Requests returns the number of requests served.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

func (s *Server) live(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path != "/live" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if s.failing.Load() {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   map[string]any{"code": 104, "type": "usage_limit_reached", "info": "monthly usage limit reached"},
		})
		return
	}

	source := models.Currency(r.URL.Query().Get("source"))
	base, ok := s.usd[source]
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   map[string]any{"code": 201, "type": "invalid_source_currency", "info": "invalid source currency"},
		})
		return
	}

	quotes := map[string]json.Number{}
	for c, v := range s.usd {
		if c == source {
			continue
		}
		quotes[string(source)+string(c)] = json.Number(v.Div(base).String())
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"source":  source,
		"quotes":  quotes,
	})
}
