// Package config loads ls-armillary settings from an optional TOML file.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/naoina/toml"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/ephem"
	"github.com/litescript/ls-armillary/internal/logging"
)

const (
	DefaultRefresh = 5 * time.Second
	MinRefresh     = 1 * time.Second
	MaxRefresh     = 5 * time.Minute

	DefaultMQTTTopic = "armillary/frame"
)

// Config is the file representation of all settings.
type Config struct {
	Observer  Observer  `toml:"observer"`
	Ephemeris Ephemeris `toml:"ephemeris"`
	Log       Log       `toml:"log"`
	Store     Store     `toml:"store"`
	Feed      Feed      `toml:"feed"`

	// Refresh is a Go duration string ("5s", "1m").
	Refresh string `toml:"refresh"`

	ClampLatitude float64 `toml:"clamp_latitude"`

	interval time.Duration
}

type Observer struct {
	Lat      float64 `toml:"lat"`
	Lon      float64 `toml:"lon"`
	Timezone string  `toml:"timezone"`
}

type Ephemeris struct {
	Mode        string `toml:"mode"`
	VSOP87Dir   string `toml:"vsop87_dir"`
	TablePath   string `toml:"table_path"`
	HorizonsURL string `toml:"horizons_url"`
	Offline     bool   `toml:"offline"`
	Timeout     string `toml:"timeout"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Store struct {
	Path string `toml:"path"`
}

type Feed struct {
	WebsocketAddr string `toml:"websocket_addr"`
	MQTTBroker    string `toml:"mqtt_broker"`
	MQTTTopic     string `toml:"mqtt_topic"`
	MQTTClientID  string `toml:"mqtt_client_id"`
}

// Default returns the built-in settings: Greenwich, auto ephemeris, 5s refresh.
func Default() Config {
	return Config{
		Observer: Observer{Lat: 51.4769, Lon: 0, Timezone: "UTC"},
		Ephemeris: Ephemeris{
			Mode:        ephem.ModeAuto.String(),
			HorizonsURL: ephem.HorizonsAPIURL,
			Timeout:     "10s",
		},
		Log:           Log{Level: "info", Format: "text"},
		Feed:          Feed{MQTTTopic: DefaultMQTTTopic},
		Refresh:       DefaultRefresh.String(),
		ClampLatitude: 89.9,
		interval:      DefaultRefresh,
	}
}

// Load reads path over the defaults. A missing field keeps its default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field and clamps the refresh interval into
// [MinRefresh, MaxRefresh].
func (c *Config) Validate() error {
	var errs []error

	if err := c.Location().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observer: %w", err))
	}
	if c.Observer.Timezone == "" {
		c.Observer.Timezone = "UTC"
	}

	if m := c.Ephemeris.Mode; m != "" && m != "auto" && ephem.ParseMode(m) == ephem.ModeAuto {
		errs = append(errs, fmt.Errorf("ephemeris: unknown mode %q", m))
	}
	if c.Ephemeris.Timeout != "" {
		if d, err := time.ParseDuration(c.Ephemeris.Timeout); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("ephemeris: bad timeout %q", c.Ephemeris.Timeout))
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}

	d := DefaultRefresh
	if c.Refresh != "" {
		parsed, err := time.ParseDuration(c.Refresh)
		if err != nil {
			errs = append(errs, fmt.Errorf("refresh: %w", err))
		} else {
			d = parsed
		}
	}
	c.SetRefresh(d)

	if c.ClampLatitude <= 0 || c.ClampLatitude > 90 {
		errs = append(errs, fmt.Errorf("clamp_latitude %.3f out of (0, 90]", c.ClampLatitude))
	}

	if c.Feed.MQTTBroker != "" && !strings.Contains(c.Feed.MQTTBroker, "://") {
		errs = append(errs, fmt.Errorf("feed: mqtt broker %q needs a scheme (tcp://host:1883)", c.Feed.MQTTBroker))
	}
	if c.Feed.MQTTTopic == "" {
		c.Feed.MQTTTopic = DefaultMQTTTopic
	}

	return errors.Join(errs...)
}

// RefreshInterval returns the clamped refresh interval.
func (c Config) RefreshInterval() time.Duration {
	if c.interval == 0 {
		return DefaultRefresh
	}
	return c.interval
}

// SetRefresh clamps d and stores it.
func (c *Config) SetRefresh(d time.Duration) {
	if d < MinRefresh {
		d = MinRefresh
	} else if d > MaxRefresh {
		d = MaxRefresh
	}
	c.interval = d
	c.Refresh = d.String()
}

// Mode returns the parsed ephemeris mode.
func (c Config) Mode() ephem.Mode {
	return ephem.ParseMode(c.Ephemeris.Mode)
}

// Logger builds a logger from the log section.
func (c Config) Logger() *logging.Logger {
	return logging.NewWithFormat(logging.ParseLevel(c.Log.Level), logging.ParseFormat(c.Log.Format), os.Stderr)
}

// ProviderTimeout returns the per-call ephemeris timeout, zero when unset.
func (c Config) ProviderTimeout() time.Duration {
	d, err := time.ParseDuration(c.Ephemeris.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Location returns the observer as a GeoLocation.
func (c Config) Location() astro.GeoLocation {
	return astro.GeoLocation{LatDeg: c.Observer.Lat, LonDeg: c.Observer.Lon}
}

// EphemOptions maps the ephemeris section onto provider options.
func (c Config) EphemOptions() ephem.Options {
	return ephem.Options{
		VSOP87Dir:   c.Ephemeris.VSOP87Dir,
		TablePath:   c.Ephemeris.TablePath,
		HorizonsURL: c.Ephemeris.HorizonsURL,
		Offline:     c.Ephemeris.Offline,
	}
}
