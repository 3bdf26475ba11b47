package kmj

import (
	"fmt"
	"time"
)

// Bar is one trading day of OHLCV data
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is a time-ordered run of bars, oldest first
type Series []Bar

// NewSeries copies bars into a Series after checking the ordering invariant.
// Dates must be strictly increasing; duplicates are rejected.
func NewSeries(bars []Bar) (Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars", ErrInvalidInput)
	}
	s := make(Series, len(bars))
	copy(s, bars)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the series is non-empty and strictly increasing by date
func (s Series) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no bars", ErrInvalidInput)
	}
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("%w: %w at index %d (%s after %s)", ErrInvalidInput, ErrUnorderedSeries,
				i, s[i].Date.Format("2006-01-02"), s[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes extracts close prices in series order
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}
