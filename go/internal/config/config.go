package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingURL is returned by Validate when one of the required endpoints is empty.
var ErrMissingURL = errors.New("missing required url")

// ClockMode selects how the running match clock advances between ticks.
type ClockMode string

const (
	// ClockModeCounter increments a local minute counter once per tick.
	ClockModeCounter ClockMode = "counter"
	// ClockModeWall recomputes the minute from wall time on every tick.
	ClockModeWall ClockMode = "wall"
)

// Config is injected into every collaborator at construction.
type Config struct {
	MatchesBaseURL        string `yaml:"matchesBaseUrl"`
	TeamsBaseURL          string `yaml:"teamsBaseUrl"`
	CompetitionsBaseURL   string `yaml:"competitionsBaseUrl"`
	MatchEventsChannelURL string `yaml:"matchEventsChannelUrl"`

	GatewayPort string    `yaml:"gatewayPort"`
	LogLevel    string    `yaml:"logLevel"`
	ClockMode   ClockMode `yaml:"clockMode"`

	ListHighlight     time.Duration `yaml:"listHighlight"`
	DetailHighlight   time.Duration `yaml:"detailHighlight"`
	KnockoutHighlight time.Duration `yaml:"knockoutHighlight"`
	HTTPTimeout       time.Duration `yaml:"httpTimeout"`
}

// Default returns the configuration used when no file or environment is present.
func Default() Config {
	return Config{
		MatchesBaseURL:        "http://localhost:8080/api/matches",
		TeamsBaseURL:          "http://localhost:8080/api/teams",
		CompetitionsBaseURL:   "http://localhost:8080/api/competitions",
		MatchEventsChannelURL: "ws://localhost:8080/ws/match-events",
		GatewayPort:           "8081",
		LogLevel:              "info",
		ClockMode:             ClockModeCounter,
		ListHighlight:         15 * time.Second,
		DetailHighlight:       3 * time.Second,
		KnockoutHighlight:     5 * time.Second,
		HTTPTimeout:           30 * time.Second,
	}
}

// Load reads an optional YAML file on top of the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.MatchesBaseURL = getEnv("MATCHES_BASE_URL", c.MatchesBaseURL)
	c.TeamsBaseURL = getEnv("TEAMS_BASE_URL", c.TeamsBaseURL)
	c.CompetitionsBaseURL = getEnv("COMPETITIONS_BASE_URL", c.CompetitionsBaseURL)
	c.MatchEventsChannelURL = getEnv("MATCH_EVENTS_CHANNEL_URL", c.MatchEventsChannelURL)
	c.GatewayPort = getEnv("GATEWAY_PORT", c.GatewayPort)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.ClockMode = ClockMode(getEnv("CLOCK_MODE", string(c.ClockMode)))
	c.ListHighlight = getEnvAsDuration("LIST_HIGHLIGHT", c.ListHighlight)
	c.DetailHighlight = getEnvAsDuration("DETAIL_HIGHLIGHT", c.DetailHighlight)
	c.KnockoutHighlight = getEnvAsDuration("KNOCKOUT_HIGHLIGHT", c.KnockoutHighlight)
	c.HTTPTimeout = getEnvAsDuration("HTTP_TIMEOUT", c.HTTPTimeout)
}

// Validate checks the required endpoints and enumerated values.
func (c Config) Validate() error {
	required := map[string]string{
		"matchesBaseUrl":        c.MatchesBaseURL,
		"teamsBaseUrl":          c.TeamsBaseURL,
		"competitionsBaseUrl":   c.CompetitionsBaseURL,
		"matchEventsChannelUrl": c.MatchEventsChannelURL,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingURL, key)
		}
		if _, err := url.Parse(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	switch c.ClockMode {
	case ClockModeCounter, ClockModeWall:
	default:
		return fmt.Errorf("invalid clockMode %q", c.ClockMode)
	}

	if _, err := c.EventsScheme(); err != nil {
		return err
	}
	return nil
}

// EventsScheme returns the push transport scheme of MatchEventsChannelURL.
func (c Config) EventsScheme() (string, error) {
	u, err := url.Parse(c.MatchEventsChannelURL)
	if err != nil {
		return "", fmt.Errorf("invalid matchEventsChannelUrl: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "nats":
		return u.Scheme, nil
	default:
		return "", fmt.Errorf("unsupported matchEventsChannelUrl scheme %q", u.Scheme)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// plain milliseconds
		if ms := getEnvAsInt(key, -1); ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}
