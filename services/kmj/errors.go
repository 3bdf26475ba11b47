package kmj

import "errors"

var (
	// ErrInvalidInput is returned for nil, empty or structurally broken series
	ErrInvalidInput = errors.New("invalid input series")

	// ErrUnorderedSeries is wrapped into ErrInvalidInput when dates are not strictly increasing
	ErrUnorderedSeries = errors.New("bar dates must be strictly increasing")
)
