package series

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
)

func TestDifference(t *testing.T) {
	values := []float64{1, 4, 9, 16, 25}

	tests := []struct {
		d    int
		want []float64
	}{
		{d: 0, want: []float64{1, 4, 9, 16, 25}},
		{d: 1, want: []float64{3, 5, 7, 9}},
		{d: 2, want: []float64{2, 2, 2}},
	}

	for _, tt := range tests {
		if got := Difference(values, tt.d); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Difference(d=%d) = %v, want %v", tt.d, got, tt.want)
		}
	}

	if got := Difference([]float64{1}, 2); len(got) != 0 {
		t.Errorf("Difference beyond length = %v, want empty", got)
	}
}

func TestIntegrate_RoundTripExact(t *testing.T) {
	values := []float64{120, 118, 125, 131, 129, 140, 152, 149}

	for d := 0; d <= 2; d++ {
		got := Integrate(Difference(values, d), Heads(values, d))
		if !reflect.DeepEqual(got, values) {
			t.Errorf("d=%d: round trip = %v, want %v", d, got, values)
		}
	}
}

func TestIntegrate_RoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	values := make([]float64, 200)
	for i := range values {
		values[i] = 1000 + r.NormFloat64()*50
	}

	for d := 0; d <= 2; d++ {
		got := Integrate(Difference(values, d), Heads(values, d))
		for i := range values {
			if math.Abs(got[i]-values[i]) > 1e-9 {
				t.Fatalf("d=%d: value[%d] = %v, want %v", d, i, got[i], values[i])
			}
		}
	}
}

func TestUndifference_ContinuesSeries(t *testing.T) {
	// Quadratic series: second differences are constant 2.
	values := []float64{1, 4, 9, 16, 25}
	tails := Tails(values, 2)
	if !reflect.DeepEqual(tails, []float64{25, 9}) {
		t.Fatalf("Tails() = %v, want [25 9]", tails)
	}

	got := Undifference([]float64{2, 2, 2}, tails)
	want := []float64{36, 49, 64}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Undifference() = %v, want %v", got, want)
	}

	// Zero increments carry the last value (d=1) or the last trend (d=2).
	if got := Undifference([]float64{0, 0}, Tails(values, 1)); !reflect.DeepEqual(got, []float64{25, 25}) {
		t.Errorf("d=1 carry-forward = %v", got)
	}
	if got := Undifference([]float64{0, 0}, tails); !reflect.DeepEqual(got, []float64{34, 43}) {
		t.Errorf("d=2 trend carry-forward = %v", got)
	}
}
