package ephem

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/litescript/ls-armillary/internal/astro"
)

func TestMeanProvider(t *testing.T) {
	ctx := context.Background()
	var p MeanProvider

	jd := astro.DayStartJD(2024, 1)
	sun, err := p.Longitude(ctx, Sun, jd)
	if err != nil {
		t.Fatalf("Sun: %v", err)
	}
	if math.Abs(sun.Deg()-280) > 1e-9 {
		t.Errorf("Sun on day 1 = %v, want 280", sun.Deg())
	}

	moon, err := p.Longitude(ctx, Moon, astro.DayStartJD(2024, 100))
	if err != nil {
		t.Fatalf("Moon: %v", err)
	}
	want := math.Mod(100*13.176, 360)
	if math.Abs(moon.Deg()-want) > 1e-9 {
		t.Errorf("Moon on day 100 = %v, want %v", moon.Deg(), want)
	}

	if p.Available(Mars) {
		t.Error("mean provider should not cover planets")
	}
	if _, err := p.Longitude(ctx, Mars, jd); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Mars error = %v, want ErrUnavailable", err)
	}
}
