package kmj

import (
	"encoding/json"
	"math"
	"testing"
)

func TestValue_NonFiniteIsUndefined(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if Some(v).Defined() {
			t.Errorf("Some(%v) should be undefined", v)
		}
	}
	if got := None().Or(-1); got != -1 {
		t.Errorf("None().Or(-1) = %v", got)
	}
}

func TestValue_JSON(t *testing.T) {
	in := struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}{A: Some(12.5), B: None()}

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"a":12.5,"b":null}` {
		t.Errorf("marshal = %s", b)
	}

	out := in
	out.B = Some(3)
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if v, ok := out.A.Get(); !ok || v != 12.5 {
		t.Errorf("A = %v", out.A)
	}
	if out.B.Defined() {
		t.Errorf("B = %v, want undefined", out.B)
	}

	if err := json.Unmarshal([]byte(`{"a":"x"}`), &out); err == nil {
		t.Error("expected error for non-numeric value")
	}
}
