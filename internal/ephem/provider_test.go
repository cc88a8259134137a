package ephem

import (
	"errors"
	"math"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
	}{
		{"analytic", ModeAnalytic},
		{"meeus", ModeAnalytic},
		{"vsop87", ModeAnalytic},
		{"horizons", ModeHorizons},
		{"table", ModeTable},
		{"csv", ModeTable},
		{"mean", ModeMean},
		{"auto", ModeAuto},
		{"", ModeAuto},        // default
		{"invalid", ModeAuto}, // default for unknown
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := ParseMode(tc.input)
			if got != tc.expected {
				t.Errorf("ParseMode(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode     Mode
		expected string
	}{
		{ModeAuto, "auto"},
		{ModeAnalytic, "analytic"},
		{ModeHorizons, "horizons"},
		{ModeTable, "table"},
		{ModeMean, "mean"},
		{Mode(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			got := tc.mode.String()
			if got != tc.expected {
				t.Errorf("Mode(%d).String() = %q, want %q", tc.mode, got, tc.expected)
			}
		})
	}
}

func TestNewLongitude(t *testing.T) {
	lon, err := newLongitude(Sun, -math.Pi/2, "test")
	if err != nil {
		t.Fatalf("newLongitude: %v", err)
	}
	if math.Abs(lon.Deg()-270) > 1e-9 {
		t.Errorf("Deg() = %v, want 270", lon.Deg())
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1)} {
		if _, err := newLongitude(Sun, bad, "test"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("newLongitude(%v) error = %v, want ErrUnavailable", bad, err)
		}
	}
}

func TestNew(t *testing.T) {
	p, err := New(ModeMean, Options{})
	if err != nil {
		t.Fatalf("New(mean): %v", err)
	}
	if p.Name() != "Mean" {
		t.Errorf("Name() = %q, want Mean", p.Name())
	}

	if _, err := New(ModeTable, Options{}); err == nil {
		t.Error("New(table) without a path should fail")
	}

	p, err = New(ModeAuto, Options{Offline: true})
	if err != nil {
		t.Fatalf("New(auto): %v", err)
	}
	chain, ok := p.(*Chain)
	if !ok {
		t.Fatalf("auto mode returned %T, want *Chain", p)
	}
	if len(chain.Providers()) != 1 || chain.Providers()[0].Name() != "Meeus" {
		t.Errorf("offline auto chain = %s, want Meeus only", chain.Name())
	}
}

func TestJDToTime(t *testing.T) {
	got := jdToTime(2451545.0)
	if got.Year() != 2000 || got.YearDay() != 1 || got.Hour() != 12 {
		t.Errorf("jdToTime(J2000) = %v", got)
	}
}
