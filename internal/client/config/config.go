package config

import "time"

// Config holds runtime settings for the wardrive CLI.
//
// The SSH password and the API token are deliberately absent from flags:
// they come from the JSON file or from an interactive prompt so they never
// land in shell history.
type Config struct {
	// Capture host (the Pi running the capture service).
	Host           string
	Port           int
	User           string
	KeyFile        string
	Password       string
	KnownHostsFile string

	// Capture service and artifact locations.
	ServiceName     string
	RemoteDir       string
	LocalDir        string
	OverlayDir      string
	ArtifactPattern string

	// Ingestion API.
	APIURL   string
	APIName  string
	APIToken string

	// Timeouts and bounds.
	ConnectTimeout    time.Duration
	CommandTimeout    time.Duration
	UploadConcurrency int
	RetryMax          int
	RetryBase         time.Duration

	// Logging.
	LogLevel  string
	LogFormat string
}

// LoadDefaults populates c with sensible defaults for a stock Pi setup.
func (c *Config) LoadDefaults() {
	c.Host = "raspberrypi.local"
	c.Port = 22
	c.User = "pi"

	c.ServiceName = "kismet"
	c.RemoteDir = "/home/pi/kismet"
	c.LocalDir = "./captures"
	c.OverlayDir = "./overlays"
	c.ArtifactPattern = "*.wiglecsv"

	c.APIURL = "https://api.wigle.net/api/v2"

	c.ConnectTimeout = 10 * time.Second
	c.CommandTimeout = 30 * time.Second
	c.UploadConcurrency = 2
	c.RetryMax = 3
	c.RetryBase = 500 * time.Millisecond

	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
