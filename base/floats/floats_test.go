package floats_test

import (
	"slices"
	"testing"

	"example.com/ppsdo/base/floats"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name      string
		input     []float64
		want      float64
		wantPanic bool
	}{
		{
			name:      "Nil slice",
			input:     nil,
			wantPanic: true,
		},
		{
			name:      "Empty slice",
			input:     []float64{},
			wantPanic: true,
		},
		{
			name:  "Single element",
			input: []float64{42.0},
			want:  42.0,
		},
		{
			name:  "Two elements",
			input: []float64{1.0, 2.0},
			want:  1.5,
		},
		{
			name:  "Three elements",
			input: []float64{3.0, 1.0, 2.0},
			want:  2.0,
		},
		{
			name:  "Four elements",
			input: []float64{4.0, 1.0, 3.0, 2.0},
			want:  2.5,
		},
		{
			name:  "Outlier",
			input: []float64{-0.1, 0.0, 0.1, 0.0, 1000.0},
			want:  0.0,
		},
		{
			name:  "Negative values",
			input: []float64{-1.0, -2.0, -3.0, -4.0, -5.0},
			want:  -3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("expected panic, got none")
					}
				}()
				_ = floats.Median(tt.input)
			} else {
				in := slices.Clone(tt.input)
				got := floats.Median(tt.input)
				if got != tt.want {
					t.Errorf("Median(%v) = %v, want %v", tt.input, got, tt.want)
				}
				if !slices.Equal(in, tt.input) {
					t.Errorf("Median reordered its input: %v, was %v", tt.input, in)
				}
			}
		})
	}
}
