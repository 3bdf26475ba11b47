package kmj

import "fmt"

// Trend is the three-state direction of KMJ2 relative to KMJ3
type Trend int

const (
	// TrendUnknown marks bars where KMJ2 or KMJ3 is undefined
	TrendUnknown Trend = iota
	TrendFlat
	TrendUp
	TrendDown
)

// FlatBand is the relative KMJ2/KMJ3 gap treated as a plateau (0.1%)
const FlatBand = 0.001

// ClassifyTrend labels a bar from its KMJ2 and KMJ3 readings.
// It returns TrendUnknown when either input is undefined or KMJ3 is zero.
func ClassifyTrend(kmj2, kmj3 Value) Trend {
	v2, ok2 := kmj2.Get()
	v3, ok3 := kmj3.Get()
	if !ok2 || !ok3 || v3 == 0 {
		return TrendUnknown
	}

	rel := v2/v3 - 1
	switch {
	case rel > FlatBand:
		return TrendUp
	case rel < -FlatBand:
		return TrendDown
	default:
		return TrendFlat
	}
}

// String returns the string representation of Trend
func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	case TrendFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// MarshalText encodes the trend label
func (t Trend) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a trend label
func (t *Trend) UnmarshalText(b []byte) error {
	switch string(b) {
	case "up":
		*t = TrendUp
	case "down":
		*t = TrendDown
	case "flat":
		*t = TrendFlat
	case "unknown", "":
		*t = TrendUnknown
	default:
		return fmt.Errorf("unknown trend %q", string(b))
	}
	return nil
}
