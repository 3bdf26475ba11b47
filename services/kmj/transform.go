package kmj

import (
	"fmt"
	"math"
)

// Window lengths of the KMJ formula
const (
	KMJ2Period = 21
	KMJ3Period = 5

	// MinBarsForSignals is the history needed for a defined KMJ3 on the latest bar
	MinBarsForSignals = KMJ2Period + KMJ3Period - 1
)

// kmj2WeightSum is 21+20+...+1
const kmj2WeightSum = KMJ2Period * (KMJ2Period + 1) / 2

// Compute derives KMJ1, KMJ2, KMJ3 and the trend label for every bar.
// The input series is left untouched.
func Compute(series Series) (*Annotated, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	points := make([]Point, len(series))
	for i, b := range series {
		points[i] = Point{Bar: b, KMJ1: KMJ1(b)}
	}

	for i := range points {
		points[i].KMJ2 = weightedAverage(points, i)
	}
	for i := range points {
		points[i].KMJ3 = simpleAverage(points, i)
		points[i].Trend = ClassifyTrend(points[i].KMJ2, points[i].KMJ3)
	}

	return &Annotated{points: points}, nil
}

// KMJ1 is the close-weighted typical price (L+H+O+3C)/6
func KMJ1(b Bar) Value {
	for _, v := range []float64{b.Low, b.High, b.Open, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return None()
		}
	}
	return Some((b.Low + b.High + b.Open + 3*b.Close) / 6)
}

// weightedAverage is the 21-bar linearly weighted mean of KMJ1 ending at i.
// The newest bar weighs 21, the oldest 1. A full window is required.
func weightedAverage(points []Point, i int) Value {
	if i < KMJ2Period-1 {
		return None()
	}
	start := i - KMJ2Period + 1
	sum := 0.0
	for j := 0; j < KMJ2Period; j++ {
		v, ok := points[start+j].KMJ1.Get()
		if !ok {
			return None()
		}
		sum += v * float64(j+1)
	}
	return Some(sum / kmj2WeightSum)
}

// simpleAverage is the 5-bar mean of KMJ2 ending at i
func simpleAverage(points []Point, i int) Value {
	if i < KMJ3Period-1 {
		return None()
	}
	sum := 0.0
	for j := i - KMJ3Period + 1; j <= i; j++ {
		v, ok := points[j].KMJ2.Get()
		if !ok {
			return None()
		}
		sum += v
	}
	return Some(sum / KMJ3Period)
}

// Analyze runs the whole pipeline: transform, trend and signals
func Analyze(series Series) (*Annotated, error) {
	annotated, err := Compute(series)
	if err != nil {
		return nil, fmt.Errorf("compute kmj: %w", err)
	}
	return DetectSignals(annotated), nil
}
