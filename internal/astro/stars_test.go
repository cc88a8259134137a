package astro

import (
	"math"
	"testing"
)

func TestBrightStars(t *testing.T) {
	all := BrightStars(10)
	if len(all) != len(brightStars) {
		t.Fatalf("BrightStars(10) = %d stars, want %d", len(all), len(brightStars))
	}

	bright := BrightStars(1.0)
	for _, s := range bright {
		if s.Mag > 1.0 {
			t.Errorf("%s mag %.2f exceeds limit", s.Name, s.Mag)
		}
	}
	if len(bright) == 0 || bright[0].Name != "Sirius" {
		t.Errorf("brightest star = %v, want Sirius first", bright)
	}
}

func TestStar_EclipticLonDeg(t *testing.T) {
	eps := degToRad(23.4393)
	tests := []struct {
		name   string
		wantLo float64 // J2000 ecliptic longitude, degrees
	}{
		{"Regulus", 149.83},
		{"Spica", 203.84},
		{"Aldebaran", 69.79},
		{"Antares", 249.76},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := StarByName(tt.name)
			if !ok {
				t.Fatalf("%s not in catalog", tt.name)
			}
			got := s.EclipticLonDeg(eps)
			if math.Abs(got-tt.wantLo) > 0.2 {
				t.Errorf("EclipticLonDeg = %.2f, want %.2f", got, tt.wantLo)
			}
		})
	}
}

func TestStar_HorizontalPolaris(t *testing.T) {
	polaris, ok := StarByName("Polaris")
	if !ok {
		t.Fatal("Polaris not in catalog")
	}
	lat := degToRad(51.4769)
	// Polaris stays within a degree of the pole altitude at every LST.
	for lstDeg := 0.0; lstDeg < 360; lstDeg += 45 {
		h := polaris.Horizontal(degToRad(lstDeg), lat)
		if math.Abs(h.AltDeg()-51.4769) > 1.0 {
			t.Errorf("LST %.0f: Polaris alt %.2f, want ~51.5", lstDeg, h.AltDeg())
		}
	}
}

func TestRoyalStarsInCatalog(t *testing.T) {
	for _, name := range RoyalStars {
		if _, ok := StarByName(name); !ok {
			t.Errorf("royal star %s missing", name)
		}
	}
}
