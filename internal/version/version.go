// Package version provides build and version information.
package version

import "fmt"

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - SQLite rise/set store, websocket and MQTT frame feeds, almanac CSV
// 0.2.0 - Horizons and tabulated ephemerides with provider chain, orrery view
// 0.1.0 - Initial release: angles, zodiac, lunar phase, rise/set scan, TUI dashboard

// String returns the name and version for banners.
func String() string {
	return fmt.Sprintf("ls-armillary %s", Version)
}
