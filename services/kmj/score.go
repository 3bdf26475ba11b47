package kmj

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Score weights
const (
	BaseScore      = 50.0
	UpTrendBonus   = 30.0
	DownTrendMalus = 20.0
	MaxSpreadTerm  = 20.0
	MaxMomentum    = 20.0
	MaxVolumeTerm  = 10.0

	MomentumLookback = 5
	VolumeWindow     = 5
)

// ComputationFault records why a score could not be computed
type ComputationFault struct {
	Reason string
}

func (f *ComputationFault) Error() string {
	return "score computation fault: " + f.Reason
}

// ScoreTerms breaks the score into its additive parts
type ScoreTerms struct {
	Trend    float64 `json:"trend"`
	Spread   float64 `json:"spread"`
	Momentum float64 `json:"momentum"`
	Volume   float64 `json:"volume"`
}

// ScoreResult is either a score in [0, 100] or a fault
type ScoreResult struct {
	Value float64           `json:"value"`
	Terms ScoreTerms        `json:"terms"`
	Fault *ComputationFault `json:"fault,omitempty"`
}

// Faulted reports whether the computation hit a fault
func (r ScoreResult) Faulted() bool {
	return r.Fault != nil
}

// Score returns the technical score of the latest bar, or 0 on any fault
func Score(a *Annotated) float64 {
	r := EvaluateScore(a)
	if r.Faulted() {
		return 0
	}
	return r.Value
}

// EvaluateScore computes the composite technical score of the latest bar.
// Missing indicators skip their term; unexpected numeric faults and panics
// are reported through ScoreResult.Fault.
func EvaluateScore(a *Annotated) (result ScoreResult) {
	defer func() {
		if r := recover(); r != nil {
			result = ScoreResult{Fault: &ComputationFault{Reason: fmt.Sprint(r)}}
		}
	}()

	latest, ok := a.Latest()
	if !ok {
		return faulted("empty series")
	}

	var terms ScoreTerms
	terms.Trend = trendTerm(latest.Trend)
	terms.Spread = spreadTerm(latest)

	m, err := momentumTerm(a)
	if err != nil {
		return faulted(err.Error())
	}
	terms.Momentum = m
	terms.Volume = volumeTerm(a)

	total := BaseScore + terms.Trend + terms.Spread + terms.Momentum + terms.Volume
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return faulted("non-finite score")
	}

	total = math.Max(0, math.Min(100, total))
	return ScoreResult{
		Value: decimal.NewFromFloat(total).Round(2).InexactFloat64(),
		Terms: terms,
	}
}

func faulted(reason string) ScoreResult {
	return ScoreResult{Fault: &ComputationFault{Reason: reason}}
}

func trendTerm(t Trend) float64 {
	switch t {
	case TrendUp:
		return UpTrendBonus
	case TrendDown:
		return -DownTrendMalus
	default:
		return 0
	}
}

// spreadTerm rewards KMJ2/KMJ3 separation regardless of direction or sign.
// The term is never negative.
func spreadTerm(p Point) float64 {
	v2, ok2 := p.KMJ2.Get()
	v3, ok3 := p.KMJ3.Get()
	if !ok2 || !ok3 || v3 == 0 {
		return 0
	}
	return math.Min(MaxSpreadTerm, math.Abs(v2-v3)/math.Abs(v3)*100)
}

// momentumTerm scores the 5-bar close change, capped at ±20
func momentumTerm(a *Annotated) (float64, error) {
	n := a.Len()
	if n < MomentumLookback+1 {
		return 0, nil
	}
	last := a.At(n - 1).Close
	base := a.At(n - 1 - MomentumLookback).Close
	if base == 0 {
		return 0, fmt.Errorf("zero close %d bars back", MomentumLookback)
	}

	pct := (last/base - 1) * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, fmt.Errorf("non-finite momentum")
	}
	if pct > 0 {
		return math.Min(MaxMomentum, pct), nil
	}
	return -math.Min(MaxMomentum, math.Abs(pct)), nil
}

// volumeTerm compares the last 5 volumes with the 5 before them
// (or with the whole series when fewer than 10 bars exist)
func volumeTerm(a *Annotated) float64 {
	n := a.Len()
	if n <= VolumeWindow {
		return 0
	}

	recent := meanVolume(a, n-VolumeWindow, n)
	var prior float64
	if n >= 2*VolumeWindow {
		prior = meanVolume(a, n-2*VolumeWindow, n-VolumeWindow)
	} else {
		prior = meanVolume(a, 0, n)
	}
	if math.IsNaN(recent) || math.IsNaN(prior) || prior <= 0 {
		return 0
	}

	change := (recent/prior - 1) * 100
	if math.IsNaN(change) || math.IsInf(change, 0) {
		return 0
	}
	if change > 0 {
		return math.Min(MaxVolumeTerm, change/2)
	}
	return -math.Min(MaxVolumeTerm, math.Abs(change)/2)
}

// meanVolume averages volumes in [from, to), ignoring NaN entries.
// It returns NaN when the range has no usable values.
func meanVolume(a *Annotated, from, to int) float64 {
	sum, count := 0.0, 0
	for i := from; i < to; i++ {
		v := a.At(i).Volume
		if math.IsNaN(v) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// ScoreSeries runs the full pipeline and scores the result; invalid input scores 0
func ScoreSeries(series Series) float64 {
	a, err := Analyze(series)
	if err != nil {
		return 0
	}
	return Score(a)
}
