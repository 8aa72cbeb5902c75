// Package rates looks up live currency exchange rates.
package rates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"travel-wallet/internal/models"

	"github.com/shopspring/decimal"
)

const ApiUrlBase = "https://api.exchangerate.host"

// Rates maps a quote currency to the number of its units per one base unit.
type Rates map[models.Currency]decimal.Decimal

// Service loads every known rate for a base currency.
type Service interface {
	ExchangeRates(ctx context.Context, base models.Currency) (Rates, error)
}

// service exchangerate.host API
type service struct {
	// url base API url
	url string

	// key is the access key sent with every request
	key string

	// client for HTTP requests
	client http.Client
}

// NewService constructs a Service talking to the exchangerate.host live
// endpoint at baseURL.
func NewService(baseURL, accessKey string, timeout time.Duration) Service {
	if baseURL == "" {
		baseURL = ApiUrlBase
	}
	return &service{
		url: strings.TrimRight(baseURL, "/"),
		key: accessKey,
		client: http.Client{
			Timeout: timeout,
		},
	}
}

// ExchangeRates loads the live quotes for base. Quotes in the response are
// keyed by the concatenated pair, e.g. "RUBCNY".
func (s *service) ExchangeRates(ctx context.Context, base models.Currency) (Rates, error) {
	type Response struct {
		Success bool                   `json:"success"`
		Source  string                 `json:"source"`
		Quotes  map[string]json.Number `json:"quotes"`
		Error   *struct {
			Code int    `json:"code"`
			Type string `json:"type"`
			Info string `json:"info"`
		} `json:"error"`
	}

	query := url.Values{}
	query.Set("access_key", s.key)
	query.Set("source", string(base))
	endpoint := fmt.Sprintf("%v/live?%v", s.url, query.Encode())

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Failure{Reason: ReasonProvider, From: base, Err: fmt.Errorf("building http request: %w", err)}
	}
	httpResponse, err := s.client.Do(request)
	if err != nil {
		return nil, &Failure{Reason: ReasonNetwork, From: base, Err: fmt.Errorf("http get: %w", err)}
	}
	defer httpResponse.Body.Close()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, &Failure{Reason: ReasonNetwork, From: base, Err: fmt.Errorf("reading body: %w", err)}
	}
	if httpResponse.StatusCode != http.StatusOK {
		return nil, &Failure{Reason: ReasonProvider, From: base, Err: fmt.Errorf("unexpected status %d", httpResponse.StatusCode)}
	}

	var response Response
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&response); err != nil {
		return nil, &Failure{Reason: ReasonProvider, From: base, Err: fmt.Errorf("decoding json: %w", err)}
	}

	if !response.Success {
		info := "unknown error"
		if response.Error != nil && response.Error.Info != "" {
			info = response.Error.Info
		}
		return nil, &Failure{Reason: ReasonProvider, From: base, Err: errors.New(info)}
	}

	rates := Rates{}
	for pair, v := range response.Quotes {
		quote, ok := strings.CutPrefix(pair, string(base))
		if !ok || quote == "" {
			continue
		}
		rate, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil, &Failure{Reason: ReasonProvider, From: base, Err: fmt.Errorf("bad rate value: %w", err)}
		}
		rates[models.Currency(quote)] = rate
	}

	return rates, nil
}
