package format

import (
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestNumber(t *testing.T) {
	tests := []struct {
		name     string
		v        *float64
		decimals int
		want     string
	}{
		{"nil", nil, 1, Placeholder},
		{"nan", fp(math.NaN()), 1, Placeholder},
		{"two decimals", fp(3.14159), 2, "3.14"},
		{"zero decimals", fp(7.9), 0, "8"},
		{"pads zeros", fp(5.0), 2, "5.00"},
		{"negative", fp(-0.5), 1, "-0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Number(tt.v, tt.decimals); got != tt.want {
				t.Errorf("Number(%v, %d) = %q, want %q", tt.v, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestFloat(t *testing.T) {
	if got := Float(2.5, 1); got != "2.5" {
		t.Errorf("Float = %q", got)
	}
	if got := Float(math.NaN(), 1); got != Placeholder {
		t.Errorf("Float(NaN) = %q, want placeholder", got)
	}
}
