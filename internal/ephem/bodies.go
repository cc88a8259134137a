package ephem

import (
	"strconv"
	"strings"

	pp "github.com/soniakeys/meeus/v3/planetposition"
)

// Body is a solar-system body identified by its NAIF SPICE ID.
type Body int

// NAIF IDs of the bodies the engine tracks.
// Sourced from https://naif.jpl.nasa.gov/pub/naif/toolkit_docs/C/req/naif_ids.html
const (
	Sun     Body = 10
	Mercury Body = 199
	Venus   Body = 299
	Earth   Body = 399
	Moon    Body = 301
	Mars    Body = 499
	Jupiter Body = 599
	Saturn  Body = 699
	Uranus  Body = 799
	Neptune Body = 899
	Pluto   Body = 999
)

// noVSOP marks bodies without a VSOP87 series.
const noVSOP = -1

// BodyInfo describes a tracked body.
type BodyInfo struct {
	Body    Body
	Name    string
	Glyph   string
	Code    string   // short display code
	VSOP    int      // planetposition index, or noVSOP
	Aliases []string // alternative names accepted on input
}

// Bodies is the canonical list of tracked bodies in display order.
var Bodies = []BodyInfo{
	{Body: Sun, Name: "Sun", Glyph: "☉", Code: "SUN", VSOP: noVSOP, Aliases: []string{"sol"}},
	{Body: Moon, Name: "Moon", Glyph: "☽", Code: "MOO", VSOP: noVSOP, Aliases: []string{"luna"}},
	{Body: Mercury, Name: "Mercury", Glyph: "☿", Code: "MER", VSOP: pp.Mercury},
	{Body: Venus, Name: "Venus", Glyph: "♀", Code: "VEN", VSOP: pp.Venus},
	{Body: Earth, Name: "Earth", Glyph: "⊕", Code: "EAR", VSOP: pp.Earth, Aliases: []string{"terra"}},
	{Body: Mars, Name: "Mars", Glyph: "♂", Code: "MAR", VSOP: pp.Mars},
	{Body: Jupiter, Name: "Jupiter", Glyph: "♃", Code: "JUP", VSOP: pp.Jupiter},
	{Body: Saturn, Name: "Saturn", Glyph: "♄", Code: "SAT", VSOP: pp.Saturn},
	{Body: Uranus, Name: "Uranus", Glyph: "♅", Code: "URA", VSOP: pp.Uranus},
	{Body: Neptune, Name: "Neptune", Glyph: "♆", Code: "NEP", VSOP: pp.Neptune},
	{Body: Pluto, Name: "Pluto", Glyph: "♇", Code: "PLU", VSOP: noVSOP},
}

// BodiesByNAIF maps NAIF IDs to body info.
var BodiesByNAIF = func() map[Body]BodyInfo {
	m := make(map[Body]BodyInfo, len(Bodies))
	for _, b := range Bodies {
		m[b.Body] = b
	}
	return m
}()

// BodiesByName maps lowercase names, codes and aliases to body info.
var BodiesByName = func() map[string]BodyInfo {
	m := make(map[string]BodyInfo, len(Bodies)*3)
	for _, b := range Bodies {
		m[normalizeName(b.Name)] = b
		m[normalizeName(b.Code)] = b
		for _, alias := range b.Aliases {
			m[normalizeName(alias)] = b
		}
	}
	return m
}()

// Planets returns the eight bodies besides the Sun and Moon whose geocentric
// longitudes are charted, in order from the Sun.
func Planets() []Body {
	return []Body{Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// String returns the body name, or "body <id>" for unknown IDs.
func (b Body) String() string {
	if info, ok := BodiesByNAIF[b]; ok {
		return info.Name
	}
	return "body " + strconv.Itoa(int(b))
}

// Info returns the registry entry for the body.
func (b Body) Info() (BodyInfo, bool) {
	info, ok := BodiesByNAIF[b]
	return info, ok
}

// IsPlanet reports whether the body is one of Planets.
func (b Body) IsPlanet() bool {
	for _, p := range Planets() {
		if p == b {
			return true
		}
	}
	return false
}

// LookupBody returns the body for a name, code or alias (case-insensitive).
func LookupBody(name string) (Body, bool) {
	b, ok := BodiesByName[normalizeName(name)]
	return b.Body, ok
}
