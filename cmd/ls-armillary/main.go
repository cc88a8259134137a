// Command ls-armillary is a terminal armillary sphere: the sky's angles,
// zodiac positions, lunar phase and the Sun's day for an observer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-armillary/internal/config"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/ephem"
	"github.com/litescript/ls-armillary/internal/feed"
	"github.com/litescript/ls-armillary/internal/logging"
	"github.com/litescript/ls-armillary/internal/state"
	"github.com/litescript/ls-armillary/internal/store"
	"github.com/litescript/ls-armillary/internal/ui"
	"github.com/litescript/ls-armillary/internal/version"
)

// CLI flags for headless mode
var (
	summaryMode   bool
	watchInterval time.Duration
	snapshotPath  string
	eventsMode    bool
	beepMode      bool
	almanacMode   bool
	checkMode     bool
	tablePath     string
	longitudePath string
	almanacDays   int
	atTime        string
)

func main() {
	configPath := flag.String("config", "", "TOML config file")
	lat := flag.Float64("lat", 0, "Observer latitude in degrees, north positive")
	lon := flag.Float64("lon", 0, "Observer longitude in degrees, east positive")
	tz := flag.String("tz", "", "IANA time zone for rise/set times (e.g., Europe/London)")
	ephemMode := flag.String("ephem", "", "Ephemeris provider (auto, mean, analytic, horizons, table)")
	vsopDir := flag.String("vsop87", "", "Directory of VSOP87B files for the analytic provider")
	ephemTable := flag.String("ephem-table", "", "CSV of tabulated longitudes for the table provider")
	offline := flag.Bool("offline", false, "Never contact JPL Horizons")
	refresh := flag.Duration("refresh", config.DefaultRefresh, "Frame refresh interval (e.g., 5s, 1m)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	dbPath := flag.String("db", "", "SQLite file for the rise/set store and frame log")
	serveAddr := flag.String("serve", "", "Serve the websocket frame feed on addr (e.g., :8080)")
	mqttBroker := flag.String("mqtt", "", "Publish frames to an MQTT broker (e.g., tcp://localhost:1883)")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.BoolVar(&summaryMode, "summary", false, "Print text summary instead of TUI")
	flag.DurationVar(&watchInterval, "watch", 0, "Repeat headless output at interval (e.g., 30s)")
	flag.StringVar(&snapshotPath, "snapshot-path", "", "Export JSON snapshot to file (use - for stdout)")
	flag.BoolVar(&eventsMode, "events", false, "Show event log")
	flag.BoolVar(&beepMode, "beep", false, "Beep on sky events (TTY only)")
	flag.BoolVar(&almanacMode, "almanac", false, "Print a rise/set almanac for -days days")
	flag.BoolVar(&checkMode, "check", false, "Add a closed-form sunrise/sunset column to the almanac")
	flag.StringVar(&tablePath, "table", "", "Write the almanac as CSV to file (use - for stdout)")
	flag.StringVar(&longitudePath, "dump-longitudes", "", "Write daily body longitudes as CSV (use - for stdout)")
	flag.IntVar(&almanacDays, "days", 7, "Days covered by -almanac, -table and -dump-longitudes")
	flag.StringVar(&atTime, "at", "", "Start the sky clock at an RFC 3339 time instead of now")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		cfg = loaded
	}

	// Flags given on the command line win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			cfg.Observer.Lat = *lat
		case "lon":
			cfg.Observer.Lon = *lon
		case "tz":
			cfg.Observer.Timezone = *tz
		case "ephem":
			cfg.Ephemeris.Mode = *ephemMode
		case "vsop87":
			cfg.Ephemeris.VSOP87Dir = *vsopDir
		case "ephem-table":
			cfg.Ephemeris.TablePath = *ephemTable
		case "offline":
			cfg.Ephemeris.Offline = *offline
		case "refresh":
			cfg.Refresh = refresh.String()
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		case "db":
			cfg.Store.Path = *dbPath
		case "serve":
			cfg.Feed.WebsocketAddr = *serveAddr
		case "mqtt":
			cfg.Feed.MQTTBroker = *mqttBroker
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	start := time.Now()
	if atTime != "" {
		t, err := time.Parse(time.RFC3339, atTime)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad -at time: %v\n", err)
			os.Exit(2)
		}
		start = t
	}
	clock := newSkyClock(start)

	logger := cfg.Logger()

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider, err := ephem.New(cfg.Mode(), cfg.EphemOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: ephemeris: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("ephemeris provider %s", provider.Name())

	engOpts := engine.Options{
		Provider:        provider,
		Logger:          logger,
		ClampLatitude:   cfg.ClampLatitude,
		ProviderTimeout: cfg.ProviderTimeout(),
		Cache:           engine.NewRiseSetCache(366),
		Heliocentric:    true,
	}

	var db *store.Almanac
	if cfg.Store.Path != "" {
		db, err = store.Open(cfg.Store.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		engOpts.Store = db
	}
	eng := engine.New(engOpts)

	// Initialize components
	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = cfg.RefreshInterval()
	stateCfg.Observer = state.Observer{Location: cfg.Location(), Timezone: cfg.Observer.Timezone}
	stateMgr := state.NewManager(stateCfg)
	logger = logger.With("session", stateMgr.SessionID())

	pub, err := startFeeds(ctx, cfg, stateMgr.SessionID(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer pub.Close()

	c := &computer{
		eng:   eng,
		state: stateMgr,
		pub:   pub,
		db:    db,
		clock: clock,
		log:   logger,
	}

	// Range outputs run once and exit
	if almanacMode || tablePath != "" || longitudePath != "" {
		if err := runRange(ctx, eng, stateMgr.Observer(), start); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Headless mode: no TUI
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	headless := summaryMode || snapshotPath != "" || eventsMode || !isTTY
	if headless {
		if !summaryMode && snapshotPath == "" && !eventsMode {
			summaryMode = true
		}
		runHeadless(ctx, c, isTTY)
		return
	}

	// Create TUI model
	model := ui.New(stateMgr)

	// Create Bubble Tea program
	p := tea.NewProgram(model, tea.WithAltScreen())
	c.program = p

	// Start compute loop in background
	go runComputeLoop(ctx, c)

	// Run TUI (blocks until quit)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// startFeeds starts the configured frame feeds. With none configured the
// returned publisher does nothing.
func startFeeds(ctx context.Context, cfg config.Config, session string, logger *logging.Logger) (feed.Multi, error) {
	var pubs feed.Multi

	if addr := cfg.Feed.WebsocketAddr; addr != "" {
		hub := feed.NewHub(session, logger)
		go func() {
			if err := hub.Serve(ctx, addr); err != nil {
				logger.Error("feed server: %v", err)
			}
		}()
		pubs = append(pubs, hub)
	}

	if broker := cfg.Feed.MQTTBroker; broker != "" {
		mp, err := feed.NewMQTTPublisher(ctx, feed.MQTTOptions{
			Broker:   broker,
			Topic:    cfg.Feed.MQTTTopic,
			ClientID: cfg.Feed.MQTTClientID,
			Session:  session,
			Logger:   logger,
		})
		if err != nil {
			pubs.Close()
			return nil, err
		}
		pubs = append(pubs, mp)
	}

	return pubs, nil
}

// skyClock runs from a start instant at wall-clock speed.
type skyClock struct {
	start   time.Time
	started time.Time
}

func newSkyClock(start time.Time) skyClock {
	return skyClock{start: start, started: time.Now()}
}

// Now returns the current sky time.
func (c skyClock) Now() time.Time {
	return c.start.Add(time.Since(c.started)).UTC()
}

// computer produces one frame per refresh and hands it to every consumer.
type computer struct {
	eng     *engine.Engine
	state   *state.Manager
	pub     feed.Publisher
	db      *store.Almanac
	clock   skyClock
	log     *logging.Logger
	program *tea.Program
}

// compute runs the engine for the current sky time and records the result.
func (c *computer) compute(ctx context.Context) (*engine.Frame, error) {
	obs := c.state.Observer()
	began := time.Now()
	f, err := c.eng.Compute(ctx, engine.InputsAt(c.clock.Now(), obs.Location, obs.Timezone))
	elapsed := time.Since(began)

	c.state.Update(f, elapsed, err)
	if err != nil {
		c.log.Error("compute failed: %v", err)
		return nil, err
	}
	c.log.Debug("frame jd=%.5f in %v, %d fallback(s)", f.JulianDate, elapsed, len(f.Fallbacks))

	if err := c.pub.Publish(ctx, f); err != nil {
		c.log.Warn("publish frame: %v", err)
	}
	if c.db != nil {
		if err := c.db.SaveFrame(ctx, c.state.SessionID(), f); err != nil {
			c.log.Warn("%v", err)
		}
	}
	return f, nil
}

func runComputeLoop(ctx context.Context, c *computer) {
	// Do initial compute immediately
	doCompute(ctx, c)

	ticker := time.NewTicker(c.state.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Debug("compute loop shutting down")
			return
		case <-ticker.C:
			doCompute(ctx, c)
		}
	}
}

func doCompute(ctx context.Context, c *computer) {
	if _, err := c.compute(ctx); err != nil {
		c.program.Send(ui.ErrorMsg{Error: err})
		return
	}
	c.program.Send(ui.FrameUpdateMsg{Snapshot: c.state.Snapshot()})
}
