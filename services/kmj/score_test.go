package kmj

import (
	"math"
	"math/rand"
	"testing"
)

// momentumFixture has undefined indicators and flat volume so only the
// momentum term can move the score
func momentumFixture(pct float64) *Annotated {
	points := make([]Point, 10)
	for i := range points {
		points[i] = Point{Bar: flatBar(i, 100, 1000)}
	}
	points[9].Close = 100 * (1 + pct/100)
	return &Annotated{points: points}
}

func TestScore_ConstantSeriesIsNeutral(t *testing.T) {
	a, err := Analyze(constantSeries(30, 10))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	r := EvaluateScore(a)
	if r.Faulted() {
		t.Fatalf("unexpected fault: %v", r.Fault)
	}
	if r.Value != 50 {
		t.Errorf("got %.2f, want 50", r.Value)
	}
}

func TestScore_TrendTerms(t *testing.T) {
	tests := []struct {
		trend Trend
		want  float64
	}{
		{TrendUp, 30},
		{TrendDown, -20},
		{TrendFlat, 0},
		{TrendUnknown, 0},
	}
	for _, tt := range tests {
		if got := trendTerm(tt.trend); got != tt.want {
			t.Errorf("trendTerm(%s) = %v, want %v", tt.trend, got, tt.want)
		}
	}
}

func TestScore_SpreadTerm(t *testing.T) {
	t.Run("below cap", func(t *testing.T) {
		got := spreadTerm(Point{KMJ2: Some(105), KMJ3: Some(100)})
		assertClose(t, "spread", got, 5, 1e-9)
	})
	t.Run("direction ignored", func(t *testing.T) {
		got := spreadTerm(Point{KMJ2: Some(95), KMJ3: Some(100)})
		assertClose(t, "spread", got, 5, 1e-9)
	})
	t.Run("capped", func(t *testing.T) {
		got := spreadTerm(Point{KMJ2: Some(150), KMJ3: Some(100)})
		assertClose(t, "spread", got, 20, 1e-9)
	})
	t.Run("negative kmj3", func(t *testing.T) {
		got := spreadTerm(Point{KMJ2: Some(-1.05), KMJ3: Some(-1)})
		assertClose(t, "spread", got, 5, 1e-9)
	})
	t.Run("negative kmj3 capped", func(t *testing.T) {
		got := spreadTerm(Point{KMJ2: Some(-3), KMJ3: Some(-1)})
		assertClose(t, "spread", got, 20, 1e-9)
	})
	t.Run("zero kmj3 skipped", func(t *testing.T) {
		if got := spreadTerm(Point{KMJ2: Some(1), KMJ3: Some(0)}); got != 0 {
			t.Errorf("got %v, want 0", got)
		}
	})
	t.Run("undefined skipped", func(t *testing.T) {
		if got := spreadTerm(Point{KMJ2: Some(1)}); got != 0 {
			t.Errorf("got %v, want 0", got)
		}
	})
}

func TestScore_MomentumSaturates(t *testing.T) {
	tests := []struct {
		pct  float64
		want float64
	}{
		{0, 50},
		{10, 60},
		{-10, 40},
		{30, 70},
		{-30, 30},
	}
	for _, tt := range tests {
		got := Score(momentumFixture(tt.pct))
		assertClose(t, "score", got, tt.want, 0.005)
	}
}

func TestScore_MonotonicInMomentum(t *testing.T) {
	prev := -1.0
	for pct := -50.0; pct <= 50.0; pct += 0.25 {
		got := Score(momentumFixture(pct))
		if got < prev {
			t.Fatalf("score decreased at pct=%.2f: %.2f < %.2f", pct, got, prev)
		}
		prev = got
	}
}

func TestScore_MomentumNeedsSixBars(t *testing.T) {
	a := momentumFixture(15)
	a.points = a.points[5:]
	if got := Score(a); got != 50 {
		t.Errorf("with 5 bars momentum must be skipped, got %.2f", got)
	}
}

func TestScore_VolumeTerm(t *testing.T) {
	build := func(vols []float64) *Annotated {
		points := make([]Point, len(vols))
		for i, v := range vols {
			points[i] = Point{Bar: flatBar(i, 100, v)}
		}
		return &Annotated{points: points}
	}

	tests := []struct {
		name string
		vols []float64
		want float64
	}{
		{"rising capped", []float64{100, 100, 100, 100, 100, 150, 150, 150, 150, 150}, 10},
		{"rising", []float64{100, 100, 100, 100, 100, 110, 110, 110, 110, 110}, 5},
		{"falling", []float64{100, 100, 100, 100, 100, 90, 90, 90, 90, 90}, -5},
		{"short series uses full mean", []float64{100, 100, 100, 120, 120, 120, 120, 120}, 10.0 / 3},
		{"zero prior skipped", []float64{0, 0, 0, 0, 0, 10, 10, 10, 10, 10}, 0},
		{"too short", []float64{100, 200, 300}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertClose(t, "volume", volumeTerm(build(tt.vols)), tt.want, 1e-9)
		})
	}
}

func TestScore_FaultsMapToZero(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		r := EvaluateScore(nil)
		if !r.Faulted() {
			t.Fatal("expected fault for nil input")
		}
		if Score(nil) != 0 {
			t.Error("faulted score must be 0")
		}
	})

	t.Run("zero base close", func(t *testing.T) {
		a := momentumFixture(10)
		a.points[4].Close = 0
		r := EvaluateScore(a)
		if !r.Faulted() {
			t.Fatal("expected fault for zero close")
		}
		if got := Score(a); got != 0 {
			t.Errorf("got %.2f, want 0", got)
		}
	})

	t.Run("legitimate zero is not a fault", func(t *testing.T) {
		a := momentumFixture(-40)
		for i := range a.points {
			a.points[i].Trend = TrendDown
		}
		for i := 5; i < 10; i++ {
			a.points[i].Volume = 100
		}
		r := EvaluateScore(a)
		if r.Faulted() {
			t.Fatalf("unexpected fault: %v", r.Fault)
		}
		if r.Value != 0 {
			t.Errorf("got %.2f, want 0 after clamping", r.Value)
		}
	})
}

func TestScore_RandomSeriesBoundedAndDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for n := 0; n < 1000; n++ {
		size := 1 + rng.Intn(80)
		s := make(Series, size)
		price := 5 + rng.Float64()*50
		for i := range s {
			price *= 1 + (rng.Float64()-0.5)*0.2
			open := price * (1 + (rng.Float64()-0.5)*0.02)
			s[i] = Bar{
				Date:   day0.AddDate(0, 0, i),
				Open:   open,
				High:   math.Max(open, price) * (1 + rng.Float64()*0.02),
				Low:    math.Min(open, price) * (1 - rng.Float64()*0.02),
				Close:  price,
				Volume: rng.Float64() * 1e6,
			}
		}

		first := ScoreSeries(s)
		if first < 0 || first > 100 {
			t.Fatalf("series %d: score %.4f out of range", n, first)
		}
		if math.Round(first*100)/100 != first {
			t.Fatalf("series %d: score %v not rounded to 2 decimals", n, first)
		}
		if again := ScoreSeries(s); again != first {
			t.Fatalf("series %d: non-deterministic score %v vs %v", n, first, again)
		}
	}
}
