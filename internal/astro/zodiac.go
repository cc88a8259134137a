package astro

import (
	"fmt"
	"math"
)

// Element is the classical element of a zodiac sign.
type Element string

const (
	Fire  Element = "Fire"
	Earth Element = "Earth"
	Air   Element = "Air"
	Water Element = "Water"
)

// Sign is one 30° segment of the ecliptic, starting at the vernal equinox.
type Sign struct {
	Name     string
	Glyph    string
	Element  Element
	StartDeg float64
}

// Signs lists the twelve tropical signs in ecliptic order.
var Signs = [12]Sign{
	{"Aries", "♈", Fire, 0},
	{"Taurus", "♉", Earth, 30},
	{"Gemini", "♊", Air, 60},
	{"Cancer", "♋", Water, 90},
	{"Leo", "♌", Fire, 120},
	{"Virgo", "♍", Earth, 150},
	{"Libra", "♎", Air, 180},
	{"Scorpio", "♏", Water, 210},
	{"Sagittarius", "♐", Fire, 240},
	{"Capricorn", "♑", Earth, 270},
	{"Aquarius", "♒", Air, 300},
	{"Pisces", "♓", Water, 330},
}

// ZodiacPosition is an ecliptic longitude expressed as whole degrees and
// minutes within a sign.
type ZodiacPosition struct {
	Sign    int // index into Signs
	Degrees int // 0..29
	Minutes int // 0..59
}

// Zodiac converts an ecliptic longitude in degrees to sign, degrees and
// minutes. Leftover seconds of 30 or more round the minute up, carrying into
// degrees, the next sign and past Pisces back to Aries.
func Zodiac(lonDeg float64) ZodiacPosition {
	lon := NormalizeDegrees(lonDeg)

	sign := int(math.Floor(lon / 30))
	within := lon - float64(sign)*30
	deg := int(math.Floor(within))
	minutes := (within - float64(deg)) * 60
	arcmin := int(math.Floor(minutes))
	sec := (minutes - float64(arcmin)) * 60

	if sec >= 30 {
		arcmin++
	}
	if arcmin >= 60 {
		arcmin = 0
		deg++
	}
	if deg >= 30 {
		deg = 0
		sign++
	}

	return ZodiacPosition{Sign: sign % 12, Degrees: deg, Minutes: arcmin}
}

// SignInfo returns the sign the position falls in.
func (z ZodiacPosition) SignInfo() Sign {
	return Signs[z.Sign]
}

// String formats the position as e.g. "12°05' Leo".
func (z ZodiacPosition) String() string {
	return fmt.Sprintf("%d°%02d' %s", z.Degrees, z.Minutes, Signs[z.Sign].Name)
}

// ToZodiacString formats an ecliptic longitude in degrees as a zodiac string.
func ToZodiacString(lonDeg float64) string {
	return Zodiac(lonDeg).String()
}
