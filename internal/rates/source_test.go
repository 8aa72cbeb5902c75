package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-wallet/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticService struct {
	rates map[models.Currency]Rates
	delay time.Duration
}

func (m *staticService) ExchangeRates(ctx context.Context, base models.Currency) (Rates, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	rates, ok := m.rates[base]
	if !ok {
		return nil, &Failure{Reason: ReasonProvider, From: base, Err: errors.New("unsupported source")}
	}
	return rates, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newStatic() *staticService {
	return &staticService{rates: map[models.Currency]Rates{
		"USD": {"RUB": dec("90"), "CNY": dec("7.2")},
		"RUB": {"CNY": dec("0.08"), "USD": dec("0.011")},
		"XTS": {"USD": dec("2")},
	}}
}

func TestSource_Quote(t *testing.T) {
	s := NewSource(newStatic(), time.Second)

	tests := []struct {
		name       string
		from, to   models.Currency
		want       string
		wantReason Reason
	}{
		{"known pair", "RUB", "CNY", "0.08", ""},
		{"missing quote", "RUB", "EUR", "", ReasonUnknownPair},
		{"unknown base", "ABC", "USD", "", ReasonProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Quote(context.Background(), tt.from, tt.to)
			if tt.wantReason != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantReason, ReasonOf(err))
				var f *Failure
				require.True(t, errors.As(err, &f))
				assert.Equal(t, tt.from, f.From)
				assert.Equal(t, tt.to, f.To)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got))
		})
	}
}

func TestSource_Convert(t *testing.T) {
	s := NewSource(newStatic(), time.Second)

	c, err := s.Convert(context.Background(), dec("1000"), "RUB", "CNY")
	require.NoError(t, err)
	assert.True(t, dec("80").Equal(c.Amount))
	assert.True(t, dec("0.08").Equal(c.Rate))
}

func TestSource_IsQuotable(t *testing.T) {
	s := NewSource(newStatic(), time.Second)
	ctx := context.Background()

	assert.True(t, s.IsQuotable(ctx, "USD"))
	assert.True(t, s.IsQuotable(ctx, "CNY"), "quoted against USD")
	assert.True(t, s.IsQuotable(ctx, "XTS"), "only available as a base")
	assert.False(t, s.IsQuotable(ctx, "ZZZ"))
}

func TestSource_TimeoutIsNetworkFailure(t *testing.T) {
	svc := newStatic()
	svc.delay = 100 * time.Millisecond
	s := NewSource(svc, 5*time.Millisecond)

	_, err := s.Quote(context.Background(), "RUB", "CNY")
	require.Error(t, err)
	assert.Equal(t, ReasonNetwork, ReasonOf(err))
}
