package scenario

import (
	"errors"
	"testing"
)

func TestCompare_KeepsInputOrder(t *testing.T) {
	base, _ := Base(forecast)
	low, _ := Custom(forecast, 0.5, "Low")
	high, _ := Custom(forecast, 2, "High")

	rows, err := Compare([]Scenario{high, base, low})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	for i, want := range []string{"High", BaseName, "Low"} {
		if rows[i].Name != want {
			t.Errorf("row %d = %q, want %q", i, rows[i].Name, want)
		}
	}
	if rows[0].Total != 800 || rows[2].Max != 60 {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestCompare_DuplicateName(t *testing.T) {
	a, _ := Custom(forecast, 1.1, "Plan")
	b, _ := Custom(forecast, 0.9, "Plan")
	if _, err := Compare([]Scenario{a, b}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Compare() error = %v, want ErrDuplicateName", err)
	}
}

func TestSummarize(t *testing.T) {
	s, _ := Base([]float64{1, 2, 3, 4, 5})
	rows, err := Summarize([]Scenario{s})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	got := rows[0]
	if got.Count != 5 || got.Q25 != 2 || got.Median != 3 || got.Q75 != 4 || got.Min != 1 || got.Max != 5 {
		t.Errorf("Summarize() = %+v", got)
	}
}
