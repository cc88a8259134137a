package astro

import (
	"errors"
	"math"
	"testing"
)

func TestMeanObliquity(t *testing.T) {
	eps, err := MeanObliquity(J2000)
	if err != nil {
		t.Fatalf("MeanObliquity(J2000) error: %v", err)
	}

	// 23°26'21.448" at J2000
	want := 23 + 26.0/60 + 21.448/3600
	if got := radToDeg(eps); math.Abs(got-want) > 1e-5 {
		t.Errorf("MeanObliquity(J2000) = %v°, want %v°", got, want)
	}
}

func TestMeanObliquity_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		jd   float64
	}{
		{"NaN", math.NaN()},
		{"infinite", math.Inf(1)},
		{"far future", J2000 + 1e8},
		{"far past", J2000 - 1e8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eps, err := MeanObliquity(tt.jd)
			if !errors.Is(err, ErrObliquityUnavailable) {
				t.Fatalf("MeanObliquity(%v) error = %v, want ErrObliquityUnavailable", tt.jd, err)
			}
			if math.IsNaN(eps) {
				t.Error("MeanObliquity returned NaN alongside error")
			}
		})
	}
}

func TestNominalObliquity(t *testing.T) {
	if math.Abs(NominalObliquity-23.44*math.Pi/180) > 1e-15 {
		t.Errorf("NominalObliquity = %v", NominalObliquity)
	}
}
