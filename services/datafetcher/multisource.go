package datafetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kmj_screener/services/kmj"

	"github.com/rs/zerolog/log"
)

// ErrAllSourcesFailed is returned when no provider produced bars
var ErrAllSourcesFailed = errors.New("all data sources failed")

// MultiSource tries providers in order; the first non-empty answer wins
type MultiSource struct {
	providers []Provider
	attempts  int
	backoff   time.Duration
}

// NewMultiSource creates a fallback chain with 3 attempts per provider
func NewMultiSource(providers ...Provider) *MultiSource {
	return &MultiSource{
		providers: providers,
		attempts:  3,
		backoff:   time.Second,
	}
}

// WithRetry overrides attempts per provider and the linear backoff step
func (m *MultiSource) WithRetry(attempts int, backoff time.Duration) *MultiSource {
	if attempts < 1 {
		attempts = 1
	}
	m.attempts = attempts
	m.backoff = backoff
	return m
}

func (m *MultiSource) Name() string { return "multi" }

// FetchDaily implements Provider
func (m *MultiSource) FetchDaily(ctx context.Context, code Code, start, end time.Time) ([]kmj.Bar, error) {
	if len(m.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrAllSourcesFailed)
	}

	var errs []error
	for _, p := range m.providers {
		bars, err := m.fetchWithRetry(ctx, p, code, start, end)
		if err == nil {
			return bars, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Str("provider", p.Name()).Str("code", code.String()).Msg("Provider failed, trying next")
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
}

func (m *MultiSource) fetchWithRetry(ctx context.Context, p Provider, code Code, start, end time.Time) ([]kmj.Bar, error) {
	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		bars, err := p.FetchDaily(ctx, code, start, end)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
		if err == nil {
			err = ErrNoData
		}
		lastErr = err
		if !retryable(err) || attempt == m.attempts {
			break
		}

		wait := time.Duration(attempt) * m.backoff
		log.Debug().Err(err).Str("provider", p.Name()).Int("attempt", attempt).Dur("wait", wait).Msg("Retrying fetch")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func retryable(err error) bool {
	if errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
