package rates

import (
	"context"
	"time"

	"travel-wallet/internal/models"

	"github.com/go-kit/log"
)

// loggingService decorates a rates.Service with logging
type loggingService struct {
	next   Service
	logger log.Logger
}

// NewLoggingService return a new logging service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) ExchangeRates(ctx context.Context, base models.Currency) (rates Rates, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "exchange_rates",
			"currency", base,
			"quotes", len(rates),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ExchangeRates(ctx, base)
}
