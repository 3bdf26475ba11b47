package kmj

// Point is a bar together with the indicators derived for it
type Point struct {
	Bar
	KMJ1    Value `json:"kmj1"`
	KMJ2    Value `json:"kmj2"`
	KMJ3    Value `json:"kmj3"`
	Trend   Trend `json:"trend"`
	Buy     bool  `json:"buy_signal"`
	Sell    bool  `json:"sell_signal"`
	LimitUp bool  `json:"limit_up"`
}

// Annotated is the read-only output of the KMJ pipeline.
// Accessors hand out copies so consumers cannot edit computed values.
type Annotated struct {
	points []Point
}

// Len returns the number of bars
func (a *Annotated) Len() int {
	if a == nil {
		return 0
	}
	return len(a.points)
}

// At returns a copy of the point at index i
func (a *Annotated) At(i int) Point {
	return a.points[i]
}

// Latest returns the last point and false when the series is empty
func (a *Annotated) Latest() (Point, bool) {
	if a.Len() == 0 {
		return Point{}, false
	}
	return a.points[len(a.points)-1], true
}

// Points returns a copy of all points
func (a *Annotated) Points() []Point {
	if a == nil {
		return nil
	}
	out := make([]Point, len(a.points))
	copy(out, a.points)
	return out
}

func (a *Annotated) clone() *Annotated {
	return &Annotated{points: a.Points()}
}
