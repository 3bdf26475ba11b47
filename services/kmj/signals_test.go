package kmj

import "testing"

func TestDetectSignals_SingleUpwardCrossing(t *testing.T) {
	diffs := make([]float64, 21)
	for i := range diffs {
		if i < 10 {
			diffs[i] = -1
		} else {
			diffs[i] = 1
		}
	}

	out := DetectSignals(annotatedFromSpread(diffs))
	buys, sells := SignalCounts(out)
	if buys != 1 || sells != 0 {
		t.Fatalf("got %d buys / %d sells, want 1 / 0", buys, sells)
	}
	if !out.At(10).Buy {
		t.Error("buy signal expected at index 10")
	}
}

func TestDetectSignals_DownwardCrossing(t *testing.T) {
	out := DetectSignals(annotatedFromSpread([]float64{2, 1, -1, -2}))
	if !out.At(2).Sell || out.At(2).Buy {
		t.Errorf("expected sell only at index 2, got %+v", out.At(2))
	}
	if _, sells := SignalCounts(out); sells != 1 {
		t.Errorf("got %d sells, want 1", sells)
	}
}

func TestDetectSignals_TouchThenCross(t *testing.T) {
	// equal on the previous bar still counts as "at or below"
	out := DetectSignals(annotatedFromSpread([]float64{0, 0.5}))
	if !out.At(1).Buy {
		t.Error("crossing up from a touch should signal buy")
	}
	out = DetectSignals(annotatedFromSpread([]float64{0, -0.5}))
	if !out.At(1).Sell {
		t.Error("crossing down from a touch should signal sell")
	}
}

func TestDetectSignals_UndefinedNeverSignals(t *testing.T) {
	a := annotatedFromSpread([]float64{-1, 1, -1, 1})
	a.points[0].KMJ3 = None()
	a.points[2].KMJ2 = None()

	out := DetectSignals(a)
	for i := 0; i < out.Len(); i++ {
		p := out.At(i)
		if p.Buy || p.Sell {
			t.Errorf("bar %d: no crossover may be inferred from missing data: %+v", i, p)
		}
	}
}

func TestDetectSignals_LimitUp(t *testing.T) {
	a, err := Compute(seriesFromCloses([]float64{10, 11, 11.5, 12.6, 12.6}))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	out := DetectSignals(a)

	want := []bool{false, true, false, false, false}
	for i, w := range want {
		if got := out.At(i).LimitUp; got != w {
			t.Errorf("bar %d: LimitUp=%v, want %v", i, got, w)
		}
	}
}

func TestDetectSignals_ReturnsCopy(t *testing.T) {
	a := annotatedFromSpread([]float64{-1, 1})
	out := DetectSignals(a)
	if a.At(1).Buy {
		t.Error("input annotation must not be modified")
	}
	if !out.At(1).Buy {
		t.Error("output should carry the buy flag")
	}
	if DetectSignals(nil) != nil {
		t.Error("nil input should return nil")
	}
}
