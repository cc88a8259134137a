package astro

import (
	"math"
	"testing"
)

func TestGreenwichMeanSiderealTime(t *testing.T) {
	// At J2000 the polynomial reduces to its constant term.
	gmst := GreenwichMeanSiderealTime(J2000)
	if math.Abs(gmst-280.46061837) > 1e-4 {
		t.Errorf("GMST at J2000 = %v, want 280.46061837", gmst)
	}

	// Meeus example 12.a: 1987-04-10 0h UT, GMST = 13h10m46.3668s
	in := Instant{Year: 1987, DayOfYear: 100}
	want := (13 + 10.0/60 + 46.3668/3600) * 15
	if got := GreenwichMeanSiderealTime(JulianDate(in)); math.Abs(got-want) > 1e-4 {
		t.Errorf("GMST 1987-04-10 = %v, want %v", got, want)
	}
}

func TestLocalSiderealTime(t *testing.T) {
	in := Instant{Year: 2024, DayOfYear: 167, MinutesUTC: 720}

	s0 := LocalSiderealTime(in, 0)
	gmst := GreenwichMeanSiderealTime(s0.JD)
	if math.Abs(s0.LSTDeg-gmst) > 1e-9 {
		t.Errorf("LST at lon=0 should equal GMST: got %v, want %v", s0.LSTDeg, gmst)
	}

	s90 := LocalSiderealTime(in, 90)
	if want := NormalizeDegrees(gmst + 90); math.Abs(s90.LSTDeg-want) > 1e-9 {
		t.Errorf("LST at lon=90 = %v, want %v", s90.LSTDeg, want)
	}
	if s90.JD != s0.JD {
		t.Errorf("JD should not depend on longitude: %v vs %v", s90.JD, s0.JD)
	}

	for lon := -180.0; lon <= 180; lon += 30 {
		lst := LocalSiderealTime(in, lon).LSTDeg
		if lst < 0 || lst >= 360 {
			t.Errorf("LST at lon=%v out of range: %v", lon, lst)
		}
	}
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{720.5, 0.5},
		{-90, 270},
		{-360, 0},
		{-1e-14, 0},
		{359.999, 359.999},
		{math.Copysign(0, -1), 0},
	}

	for _, tt := range tests {
		got := NormalizeDegrees(tt.in)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeDegrees(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got < 0 || got >= 360 || math.Signbit(got) {
			t.Errorf("NormalizeDegrees(%v) = %v outside [0, 360)", tt.in, got)
		}
	}
}

func TestNormalizeRadians(t *testing.T) {
	for _, a := range []float64{-7, -2 * math.Pi, -1e-17, 0, math.Pi, 2 * math.Pi, 13} {
		got := NormalizeRadians(a)
		if got < 0 || got >= 2*math.Pi {
			t.Errorf("NormalizeRadians(%v) = %v outside [0, 2π)", a, got)
		}
	}
}
