package sqlite

import (
	"math"
	"testing"
)

func TestVectorRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
	}{
		{name: "empty", vec: []float32{}},
		{name: "single", vec: []float32{0.5}},
		{name: "typical", vec: []float32{0.1, -0.2, 0.3, 1.5, -42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := serializeVector(tt.vec)
			if err != nil {
				t.Fatalf("serializeVector() error = %v", err)
			}
			got, err := deserializeVector(blob)
			if err != nil {
				t.Fatalf("deserializeVector() error = %v", err)
			}
			if len(got) != len(tt.vec) {
				t.Fatalf("round trip length = %d, want %d", len(got), len(tt.vec))
			}
			for i := range got {
				if got[i] != tt.vec[i] {
					t.Errorf("element %d = %v, want %v", i, got[i], tt.vec[i])
				}
			}
		})
	}
}

func TestDeserializeVector_BadLength(t *testing.T) {
	if _, err := deserializeVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for blob length not divisible by 4")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "mismatched length", a: []float32{1, 2}, b: []float32{1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "both empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("cosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
