package engine

import (
	"math"
	"testing"
)

func TestSampleRatesDefensiveDenominator(t *testing.T) {
	// Counts exceed the declared total; rates must use the larger sum.
	s := PerformanceSample{Correct: 6, Wrong: 3, Blank: 3, Total: 10}
	r := SampleRates(s)
	if got := r.Wrong; math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("wrong rate = %f, want 0.25", got)
	}
	if got := r.Correct + r.Wrong + r.Blank; math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("rates sum to %f, want 1.0", got)
	}
}

func TestEffectiveTotalNeverZero(t *testing.T) {
	s := PerformanceSample{}
	if got := s.EffectiveTotal(); got != 1 {
		t.Fatalf("EffectiveTotal() = %d, want 1", got)
	}
}

func TestMinMaxNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"spread", []float64{0, 5, 10}, []float64{0, 50, 100}},
		{"uniform", []float64{7, 7, 7}, []float64{50, 50, 50}},
		{"single", []float64{42}, []float64{50}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinMaxNormalize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("length %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Fatalf("index %d = %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStdDev(t *testing.T) {
	if got := StdDev([]float64{0.5}); got != 0 {
		t.Fatalf("one sample should have zero deviation, got %f", got)
	}
	got := StdDev([]float64{0.2, 0.8})
	if math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("StdDev = %f, want 0.3", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Fatalf("Clamp(5,0,1) = %f", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Fatalf("Clamp(-5,0,1) = %f", got)
	}
	if got := Clamp01(0.4); got != 0.4 {
		t.Fatalf("Clamp01(0.4) = %f", got)
	}
}

func TestWeightedSum(t *testing.T) {
	got := WeightedSum([]WeightedTerm{
		{Weight: 0.5, Value: 1.0},
		{Weight: 0.5, Value: 0.5},
	})
	if math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("WeightedSum = %f, want 0.75", got)
	}
}
