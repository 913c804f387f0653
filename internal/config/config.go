package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/paulmach/orb"
)

const dateLayout = "2006-01-02"

type Config struct {
	Server  ServerConfig
	Worker  WorkerConfig
	Feed    FeedConfig
	Popup   PopupConfig
	Map     MapConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	RateLimit int // requests per second across all clients
	Burst     int // requests allowed at once before the rate applies
}

type WorkerConfig struct {
	Count int
}

type FeedConfig struct {
	URL     string
	Start   time.Time
	End     time.Time
	Window  time.Duration // when set, overrides Start/End with [now-Window, now]
	MinLat  float64
	MaxLat  float64
	MinLon  float64
	MaxLon  float64
	Timeout time.Duration
	Strict  bool // abort the whole render on the first malformed feature
}

// Bound returns the query bounding box.
func (f FeedConfig) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{f.MinLon, f.MinLat},
		Max: orb.Point{f.MaxLon, f.MaxLat},
	}
}

type PopupConfig struct {
	Timezone string
	Location *time.Location
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvInt("SERVER_PORT", 8080),
			RateLimit: getEnvInt("RATE_LIMIT_RPS", 5),
			Burst:     getEnvInt("RATE_LIMIT_BURST", 0),
		},
		Worker: WorkerConfig{
			Count: getEnvInt("WORKER_COUNT", 4),
		},
		Feed: FeedConfig{
			URL:     getEnv("FEED_URL", "https://earthquake.usgs.gov/fdsnws/event/1/query"),
			Start:   getEnvDate("FEED_START", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)),
			End:     getEnvDate("FEED_END", time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)),
			Window:  getEnvDuration("FEED_WINDOW", 0),
			MinLat:  getEnvFloat("FEED_MIN_LAT", 25.16517337),
			MaxLat:  getEnvFloat("FEED_MAX_LAT", 48.74894534),
			MinLon:  getEnvFloat("FEED_MIN_LON", -123.83789062),
			MaxLon:  getEnvFloat("FEED_MAX_LON", -69.52148437),
			Timeout: getEnvDuration("FEED_TIMEOUT", 15*time.Second),
			Strict:  getEnvBool("FEED_STRICT", false),
		},
		Popup: PopupConfig{
			Timezone: getEnv("POPUP_TIMEZONE", "UTC"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	mapCfg, err := LoadMap(os.Getenv("MAP_CONFIG"))
	if err != nil {
		return nil, err
	}
	cfg.Map = mapCfg

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be at least 1")
	}
	if c.Server.Burst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must not be negative")
	}
	if c.Server.Burst == 0 {
		c.Server.Burst = c.Server.RateLimit
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Feed.URL == "" {
		return fmt.Errorf("FEED_URL is required")
	}
	if c.Feed.MinLat < -90 || c.Feed.MaxLat > 90 || c.Feed.MinLat >= c.Feed.MaxLat {
		return fmt.Errorf("invalid latitude range: %v..%v", c.Feed.MinLat, c.Feed.MaxLat)
	}
	if c.Feed.MinLon < -180 || c.Feed.MaxLon > 180 || c.Feed.MinLon >= c.Feed.MaxLon {
		return fmt.Errorf("invalid longitude range: %v..%v", c.Feed.MinLon, c.Feed.MaxLon)
	}
	if c.Feed.Window < 0 {
		return fmt.Errorf("FEED_WINDOW must not be negative")
	}
	if c.Feed.Window == 0 && !c.Feed.Start.Before(c.Feed.End) {
		return fmt.Errorf("FEED_START must be before FEED_END")
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("FEED_TIMEOUT must be positive")
	}

	loc, err := time.LoadLocation(c.Popup.Timezone)
	if err != nil {
		return fmt.Errorf("invalid POPUP_TIMEZONE %q: %w", c.Popup.Timezone, err)
	}
	c.Popup.Location = loc

	return c.Map.validate()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDate(key string, fallback time.Time) time.Time {
	if val := os.Getenv(key); val != "" {
		if t, err := time.Parse(dateLayout, val); err == nil {
			return t
		}
	}
	return fallback
}
