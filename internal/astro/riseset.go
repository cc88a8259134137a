package astro

import (
	"fmt"
	"math"
	"time"
)

// HorizonAltitude is the reference altitude for sunrise and sunset: the Sun's
// upper limb on the horizon after atmospheric refraction.
const HorizonAltitude = -0.833

// EventKind distinguishes a clock time from a polar sentinel.
type EventKind int

const (
	EventTime     EventKind = iota // an actual minute of the UTC day
	EventNoRise                    // no up-crossing found
	EventNoSet                     // no down-crossing found
	EventAlwaysUp                  // Sun above the horizon all day
)

// Event is a sunrise, sunset or transit: either a minute of the scanned UTC
// day or a sentinel.
type Event struct {
	Kind      EventKind
	MinuteUTC int
}

// IsTime reports whether the event carries a clock time.
func (e Event) IsTime() bool { return e.Kind == EventTime }

// Sentinel returns the display text for a sentinel event, or "" for a time.
func (e Event) Sentinel() string {
	switch e.Kind {
	case EventNoRise:
		return "no sunrise"
	case EventNoSet:
		return "no sunset"
	case EventAlwaysUp:
		return "24h sun"
	default:
		return ""
	}
}

// Condition summarizes the day at the observer's location.
type Condition int

const (
	ConditionNormal     Condition = iota
	ConditionAlwaysUp             // polar day
	ConditionAlwaysDown           // polar night
)

func (c Condition) String() string {
	switch c {
	case ConditionAlwaysUp:
		return "always up"
	case ConditionAlwaysDown:
		return "always down"
	default:
		return "normal"
	}
}

// RiseSet is the result of a day's horizon-crossing scan.
type RiseSet struct {
	Year        int
	DayOfYear   int
	LonDeg      float64
	Sunrise     Event
	Sunset      Event
	Transit     Event
	Condition   Condition
	MaxAltitude float64 // degrees, at transit
}

// DayLength returns the time between sunrise and sunset when both are clock
// times in order, 24h in polar day and 0 otherwise.
func (rs RiseSet) DayLength() time.Duration {
	switch {
	case rs.Condition == ConditionAlwaysUp:
		return 24 * time.Hour
	case rs.Sunrise.IsTime() && rs.Sunset.IsTime() && rs.Sunset.MinuteUTC > rs.Sunrise.MinuteUTC:
		return time.Duration(rs.Sunset.MinuteUTC-rs.Sunrise.MinuteUTC) * time.Minute
	default:
		return 0
	}
}

// ScanRiseSet finds sunrise, sunset and transit by sampling the Sun's altitude
// at every minute of the UTC day. sunLon supplies the Sun's ecliptic longitude
// and eps the obliquity (radians) for the day.
//
// Sunrise is the first up-crossing of HorizonAltitude and sunset the first
// down-crossing. When the Sun is already up at 00:00 UTC the sunset found can
// precede the sunrise; the result is reported as found.
func ScanRiseSet(sunLon SunLongitudeFunc, loc GeoLocation, year, dayOfYear int, eps float64) RiseSet {
	rs := RiseSet{
		Year:        year,
		DayOfYear:   dayOfYear,
		LonDeg:      loc.LonDeg,
		Sunrise:     Event{Kind: EventNoRise},
		Sunset:      Event{Kind: EventNoSet},
		MaxAltitude: math.Inf(-1),
	}

	jd0 := DayStartJD(year, dayOfYear)
	lat := degToRad(loc.LatDeg)

	var (
		prevAlt  float64
		riseSeen bool
		setSeen  bool
	)
	for m := 0; m < MinutesPerDay; m++ {
		alt := sunAltitude(sunLon, jd0, float64(m), loc.LonDeg, lat, eps)

		if alt > rs.MaxAltitude {
			rs.MaxAltitude = alt
			rs.Transit = Event{Kind: EventTime, MinuteUTC: m}
		}

		if m > 0 {
			if !riseSeen && prevAlt < HorizonAltitude && alt >= HorizonAltitude {
				rs.Sunrise = Event{Kind: EventTime, MinuteUTC: m}
				riseSeen = true
			}
			if !setSeen && prevAlt >= HorizonAltitude && alt < HorizonAltitude {
				rs.Sunset = Event{Kind: EventTime, MinuteUTC: m}
				setSeen = true
			}
		}
		prevAlt = alt

		// Once rise precedes set the maximum lies between them.
		if riseSeen && setSeen && rs.Sunrise.MinuteUTC < rs.Sunset.MinuteUTC {
			break
		}
	}

	if !riseSeen && !setSeen {
		// Local mean noon in UTC minutes
		noon := math.Mod(720-4*loc.LonDeg, MinutesPerDay)
		if noon < 0 {
			noon += MinutesPerDay
		}
		if sunAltitude(sunLon, jd0, noon, loc.LonDeg, lat, eps) >= HorizonAltitude {
			rs.Sunrise = Event{Kind: EventAlwaysUp}
			rs.Sunset = Event{Kind: EventAlwaysUp}
			rs.Condition = ConditionAlwaysUp
		} else {
			rs.Condition = ConditionAlwaysDown
		}
	}

	return rs
}

func sunAltitude(sunLon SunLongitudeFunc, jd0, minute, lonDeg, lat, eps float64) float64 {
	jd := jd0 + minute/MinutesPerDay
	lst := degToRad(LocalSiderealTimeJD(jd, lonDeg))
	eq := EclipticToEquatorial(sunLon(minute), 0, eps)
	return radToDeg(EquatorialToHorizontal(eq.RA, eq.Dec, lst, lat).Alt)
}

// AltitudeSample is the Sun's altitude at a minute of the UTC day.
type AltitudeSample struct {
	MinuteUTC int
	AltDeg    float64
}

// AltitudeTrace samples the Sun's altitude every step minutes across the UTC day.
func AltitudeTrace(sunLon SunLongitudeFunc, loc GeoLocation, year, dayOfYear int, eps float64, step int) []AltitudeSample {
	if step <= 0 {
		step = 10
	}
	jd0 := DayStartJD(year, dayOfYear)
	lat := degToRad(loc.LatDeg)

	samples := make([]AltitudeSample, 0, MinutesPerDay/step+1)
	for m := 0; m < MinutesPerDay; m += step {
		samples = append(samples, AltitudeSample{
			MinuteUTC: m,
			AltDeg:    sunAltitude(sunLon, jd0, float64(m), loc.LonDeg, lat, eps),
		})
	}
	return samples
}

// LocalTimes holds rise/set/transit formatted for display.
type LocalTimes struct {
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
	Transit string `json:"transit"`
	Zone    string `json:"zone"`
}

// Format renders the events as HH:MM. With a non-empty IANA zone name times
// are shown in that zone, otherwise in UTC. If the zone cannot be loaded the
// offset is approximated as round(lon/15) hours and approximated is true.
func (rs RiseSet) Format(tz string) (lt LocalTimes, approximated bool) {
	midnight := time.Date(rs.Year, time.January, rs.DayOfYear, 0, 0, 0, 0, time.UTC)

	var loc *time.Location
	switch {
	case tz == "":
		loc = time.UTC
	default:
		l, err := time.LoadLocation(tz)
		if err != nil {
			hours := int(math.Round(rs.LonDeg / 15))
			loc = time.FixedZone(fmt.Sprintf("UTC%+d", hours), hours*3600)
			approximated = true
		} else {
			loc = l
		}
	}

	clock := func(e Event) string {
		if !e.IsTime() {
			return e.Sentinel()
		}
		return midnight.Add(time.Duration(e.MinuteUTC) * time.Minute).In(loc).Format("15:04")
	}

	return LocalTimes{
		Sunrise: clock(rs.Sunrise),
		Sunset:  clock(rs.Sunset),
		Transit: clock(rs.Transit),
		Zone:    loc.String(),
	}, approximated
}

// TwilightTier classifies the Sun's altitude for display.
type TwilightTier int

const (
	TierDay TwilightTier = iota
	TierCivil
	TierNautical
	TierAstronomical
	TierNight
)

func (t TwilightTier) String() string {
	switch t {
	case TierDay:
		return "day"
	case TierCivil:
		return "civil twilight"
	case TierNautical:
		return "nautical twilight"
	case TierAstronomical:
		return "astronomical twilight"
	default:
		return "night"
	}
}

// GetTwilightTier returns the tier for a solar altitude in degrees.
func GetTwilightTier(altDeg float64) TwilightTier {
	switch {
	case altDeg >= HorizonAltitude:
		return TierDay
	case altDeg >= -6:
		return TierCivil
	case altDeg >= -12:
		return TierNautical
	case altDeg >= -18:
		return TierAstronomical
	default:
		return TierNight
	}
}
