package rates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"travel-wallet/internal/models"

	"github.com/go-kit/log"
)

// cachingService decorates a rates.Service with a cache of exchange rates.
// The cachingService is concurrency safe and will periodically refresh cached values.
type cachingService struct {
	// next the service being decorated with a cache
	next Service

	// cache the cache of rates
	cache map[models.Currency]Rates

	// updateFrequency how often to refresh cached values
	updateFrequency time.Duration

	// lifetime bounds the refresh goroutines; cancelling it empties the cache
	lifetime context.Context

	// lock synchronizes access to cache to make it concurrency safe
	lock sync.RWMutex

	logger log.Logger
}

// NewCachingService returns a new caching Service. Refresh goroutines stop
// when lifetime is cancelled.
func NewCachingService(lifetime context.Context, updateFrequency time.Duration, logger log.Logger, s Service) Service {
	return &cachingService{
		next:            s,
		cache:           map[models.Currency]Rates{},
		updateFrequency: updateFrequency,
		lifetime:        lifetime,
		logger:          logger,
	}
}

// ExchangeRates looks up exchange rates and caches the results
func (s *cachingService) ExchangeRates(ctx context.Context, base models.Currency) (Rates, error) {
	s.lock.RLock()
	rates, ok := s.cache[base]
	s.lock.RUnlock()

	if ok {
		return rates, nil
	}

	// Concurrent misses for the same currency may each call the provider;
	// refreshNow reports which of them seeded the cache so only one refresh
	// goroutine is started.
	rates, firstTime, err := s.refreshNow(ctx, base)
	if err != nil {
		return nil, err
	}
	if firstTime {
		go s.refreshPeriodically(base)
	}
	return rates, nil
}

// refreshNow refreshes a cached entry immediately
func (s *cachingService) refreshNow(ctx context.Context, base models.Currency) (Rates, bool, error) {
	rates, err := s.next.ExchangeRates(ctx, base)
	if err != nil {
		return nil, false, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.cache[base]
	s.cache[base] = rates
	return rates, !ok, nil
}

// refreshPeriodically refreshes a cached entry on a given schedule.
// This is expected to be called from a go-routine for each currency.
func (s *cachingService) refreshPeriodically(base models.Currency) {
	ticker := time.NewTicker(s.updateFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, _, err := s.refreshNow(s.lifetime, base); err != nil {
				// Keep serving the previous rates; the next tick may succeed.
				s.logger.Log("msg", "periodic refresh failed", "currency", base, "err", fmt.Sprint(err))
			}
		case <-s.lifetime.Done():
			s.uncache(base)
			return
		}
	}
}

// uncache safely removes currency from cachingService
func (s *cachingService) uncache(base models.Currency) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.cache, base)
}
