package kmj

// LimitUpRatio models the ~10% daily price cap; a close above
// prevClose*LimitUpRatio counts as limit-up.
const LimitUpRatio = 1.0985

// DetectSignals returns a copy of a with buy, sell and limit-up flags set.
// Buy and sell are evaluated independently of each other.
func DetectSignals(a *Annotated) *Annotated {
	if a == nil {
		return nil
	}
	out := a.clone()
	for i := range out.points {
		out.points[i].Buy = false
		out.points[i].Sell = false
		out.points[i].LimitUp = false
		if i == 0 {
			continue
		}
		prev, cur := out.points[i-1], out.points[i]
		out.points[i].Buy = crossedAbove(prev, cur)
		out.points[i].Sell = crossedBelow(prev, cur)
		out.points[i].LimitUp = cur.Close > prev.Close*LimitUpRatio
	}
	return out
}

// crossedAbove reports KMJ2 moving from at-or-below KMJ3 to above it
func crossedAbove(prev, cur Point) bool {
	p2, p3, c2, c3, ok := crossInputs(prev, cur)
	return ok && p2 <= p3 && c2 > c3
}

// crossedBelow reports KMJ2 moving from at-or-above KMJ3 to below it
func crossedBelow(prev, cur Point) bool {
	p2, p3, c2, c3, ok := crossInputs(prev, cur)
	return ok && p2 >= p3 && c2 < c3
}

func crossInputs(prev, cur Point) (p2, p3, c2, c3 float64, ok bool) {
	var ok1, ok2, ok3, ok4 bool
	p2, ok1 = prev.KMJ2.Get()
	p3, ok2 = prev.KMJ3.Get()
	c2, ok3 = cur.KMJ2.Get()
	c3, ok4 = cur.KMJ3.Get()
	return p2, p3, c2, c3, ok1 && ok2 && ok3 && ok4
}

// SignalCounts tallies buy and sell events across the series
func SignalCounts(a *Annotated) (buys, sells int) {
	for i := 0; i < a.Len(); i++ {
		p := a.At(i)
		if p.Buy {
			buys++
		}
		if p.Sell {
			sells++
		}
	}
	return buys, sells
}
