package models

import (
	"errors"
	"testing"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{"1,1,1", Order{1, 1, 1}, false},
		{"(2, 0, 3)", Order{2, 0, 3}, false},
		{"ARIMA(0,2,0)", Order{0, 2, 0}, false},
		{"1,1", Order{}, true},
		{"a,b,c", Order{}, true},
		{"1,-1,0", Order{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrder(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOrder(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("error %v does not wrap ErrInvalidOrder", err)
			}
			if got != tt.want {
				t.Errorf("ParseOrder(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOrder_String(t *testing.T) {
	if got := (Order{P: 1, D: 2, Q: 3}).String(); got != "arima(1,2,3)" {
		t.Errorf("String() = %q", got)
	}
}

func TestOrder_Validate(t *testing.T) {
	if err := (Order{P: 5, D: 2, Q: 5}).Validate(5, 2, 5); err != nil {
		t.Errorf("Validate() at bounds = %v", err)
	}
	if err := (Order{D: 3}).Validate(5, 2, 5); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("Validate() d=3 = %v, want ErrInvalidOrder", err)
	}
}

func TestParseConfidenceLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"p95", 0.95, false},
		{"P80", 0.80, false},
		{"90%", 0.90, false},
		{"0.99", 0.99, false},
		{"", DefaultConfidence, false},
		{"1", 0, true},
		{"p100", 0, true},
		{"0", 0, true},
		{"high", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConfidenceLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConfidenceLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseConfidenceLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatConfidenceLevel(t *testing.T) {
	for in, want := range map[float64]string{0.95: "95%", 0.8: "80%", 0.975: "97.5%"} {
		if got := FormatConfidenceLevel(in); got != want {
			t.Errorf("FormatConfidenceLevel(%v) = %q, want %q", in, got, want)
		}
	}
}
