package kmj

import (
	"math"
	"testing"
	"time"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.9f, want %.9f (tol=%g)", label, got, want, tol)
	}
}

// flatBar returns a bar whose OHLC all equal price
func flatBar(i int, price, volume float64) Bar {
	return Bar{
		Date:   day0.AddDate(0, 0, i),
		Open:   price,
		High:   price,
		Low:    price,
		Close:  price,
		Volume: volume,
	}
}

func seriesFromCloses(closes []float64) Series {
	s := make(Series, len(closes))
	for i, c := range closes {
		s[i] = flatBar(i, c, 1000)
	}
	return s
}

func constantSeries(n int, price float64) Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return seriesFromCloses(closes)
}

// annotatedFromSpread builds points whose KMJ2-KMJ3 gap follows diffs
func annotatedFromSpread(diffs []float64) *Annotated {
	points := make([]Point, len(diffs))
	for i, d := range diffs {
		points[i] = Point{
			Bar:  flatBar(i, 100, 1000),
			KMJ2: Some(100 + d),
			KMJ3: Some(100),
		}
	}
	return &Annotated{points: points}
}
