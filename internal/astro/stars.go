package astro

// Star is a fixed star from the bright star catalog. Positions are J2000;
// precession is ignored at display resolution.
type Star struct {
	Name   string
	RAdeg  float64
	DecDeg float64
	Mag    float64 // visual magnitude, lower is brighter
}

// Horizontal returns the star's altitude and azimuth for a local sidereal
// time and latitude in radians.
func (s Star) Horizontal(lst, lat float64) Horizontal {
	return EquatorialToHorizontal(degToRad(s.RAdeg), degToRad(s.DecDeg), lst, lat)
}

// EclipticLonDeg returns the star's ecliptic longitude in degrees for
// obliquity eps in radians.
func (s Star) EclipticLonDeg(eps float64) float64 {
	return radToDeg(EquatorialToEcliptic(degToRad(s.RAdeg), degToRad(s.DecDeg), eps).Lon)
}

// BrightStars returns the catalog stars at or brighter than maxMag, brightest
// first.
func BrightStars(maxMag float64) []Star {
	out := make([]Star, 0, len(brightStars))
	for _, s := range brightStars {
		if s.Mag <= maxMag {
			out = append(out, s)
		}
	}
	return out
}

// RoyalStars are the four bright stars near the ecliptic marked on the wheel.
var RoyalStars = []string{"Aldebaran", "Regulus", "Antares", "Fomalhaut"}

// StarByName looks up a catalog star.
func StarByName(name string) (Star, bool) {
	for _, s := range brightStars {
		if s.Name == name {
			return s, true
		}
	}
	return Star{}, false
}

// Yale Bright Star Catalog, brightest first.
var brightStars = []Star{
	{"Sirius", 101.287, -16.716, -1.46},
	{"Canopus", 95.988, -52.696, -0.74},
	{"Arcturus", 213.915, 19.182, -0.05},
	{"Vega", 279.235, 38.784, 0.03},
	{"Capella", 79.172, 45.998, 0.08},
	{"Rigel", 78.634, -8.202, 0.13},
	{"Procyon", 114.826, 5.225, 0.34},
	{"Achernar", 24.429, -57.237, 0.46},
	{"Betelgeuse", 88.793, 7.407, 0.50},
	{"Hadar", 210.956, -60.373, 0.61},
	{"Altair", 297.696, 8.868, 0.76},
	{"Acrux", 186.650, -63.099, 0.76},
	{"Aldebaran", 68.980, 16.509, 0.85},
	{"Antares", 247.352, -26.432, 0.96},
	{"Spica", 201.298, -11.161, 0.97},
	{"Pollux", 116.329, 28.026, 1.14},
	{"Fomalhaut", 344.413, -29.622, 1.16},
	{"Deneb", 310.358, 45.280, 1.25},
	{"Mimosa", 191.930, -59.689, 1.25},
	{"Regulus", 152.093, 11.967, 1.35},
	{"Adhara", 104.656, -28.972, 1.50},
	{"Castor", 113.650, 31.889, 1.58},
	{"Shaula", 263.402, -37.104, 1.63},
	{"Bellatrix", 81.283, 6.350, 1.64},
	{"Elnath", 81.573, 28.608, 1.65},
	{"Alnilam", 84.053, -1.202, 1.69},
	{"Alioth", 193.507, 55.960, 1.77},
	{"Dubhe", 165.932, 61.751, 1.79},
	{"Mirfak", 51.081, 49.861, 1.79},
	{"Kaus Australis", 276.043, -34.384, 1.85},
	{"Alkaid", 206.885, 49.313, 1.86},
	{"Alhena", 99.428, 16.399, 1.93},
	{"Alphard", 141.897, -8.659, 2.00},
	{"Hamal", 31.793, 23.463, 2.00},
	{"Polaris", 37.954, 89.264, 2.02},
	{"Nunki", 283.816, -26.297, 2.02},
	{"Mizar", 200.981, 54.925, 2.04},
	{"Alpheratz", 2.097, 29.091, 2.06},
	{"Kochab", 222.676, 74.156, 2.08},
	{"Rasalhague", 263.734, 12.560, 2.08},
	{"Algol", 47.042, 40.957, 2.12},
	{"Denebola", 177.265, 14.572, 2.13},
	{"Alphecca", 233.672, 26.715, 2.23},
	{"Sadr", 305.557, 40.257, 2.23},
	{"Schedar", 10.127, 56.537, 2.23},
	{"Enif", 326.046, 9.875, 2.39},
	{"Scheat", 345.944, 28.083, 2.42},
	{"Markab", 346.190, 15.205, 2.49},
	{"Zubeneschamali", 229.252, -9.383, 2.61},
	{"Alcyone", 56.871, 24.105, 2.87},
}
