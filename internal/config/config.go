package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every tunable of the tool. Values resolve with the
// precedence flags > environment variables > config file > defaults; the
// flag layer is applied by the CLI after Load.
type Config struct {
	// CSVPath is the default schedule file used when a command gets no
	// explicit --csv flag.
	CSVPath         string `json:"csv_path,omitempty"`
	TokenPath       string `json:"token_path,omitempty"`
	CredentialsPath string `json:"credentials_path,omitempty"`

	// PalettePath optionally points at a YAML file overriding the built-in
	// course color mapping.
	PalettePath string `json:"palette_path,omitempty"`

	Timezone      string   `json:"timezone,omitempty"`
	ExpectedWeeks []string `json:"expected_weeks,omitempty"`

	// PauseSeconds is the minimum gap between calendar-level mutations;
	// EventPauseMillis between event-level mutations.
	PauseSeconds     int `json:"pause_seconds,omitempty"`
	EventPauseMillis int `json:"event_pause_ms,omitempty"`

	Retry RetrySettings `json:"retry,omitempty"`

	// ExtractorCommand is the external tool the extract command shells out
	// to; it must produce the same CSV schema this tool consumes.
	ExtractorCommand string `json:"extractor_command,omitempty"`

	// ProtectedKeywords shield calendars from prune; any calendar whose
	// lowercased title contains one of these is never deleted.
	ProtectedKeywords []string `json:"protected_keywords,omitempty"`
}

// RetrySettings is the serialized form of the gateway retry policy.
type RetrySettings struct {
	MaxAttempts      int     `json:"max_attempts,omitempty"`
	BaseDelaySeconds int     `json:"base_delay_seconds,omitempty"`
	Multiplier       float64 `json:"multiplier,omitempty"`
}

// Load reads the config file (optional; missing files yield defaults),
// applies environment overrides, and fills in defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file is fine; defaults apply.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("GCAL_CSV"); v != "" {
		cfg.CSVPath = v
	}
	if v := os.Getenv("GCAL_TOKEN_PATH"); v != "" {
		cfg.TokenPath = v
	}
	if v := os.Getenv("GCAL_CREDENTIALS_PATH"); v != "" {
		cfg.CredentialsPath = v
	}
	if v := os.Getenv("GCAL_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("GCAL_PAUSE"); v != "" {
		pause, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GCAL_PAUSE value %q: %w", v, err)
		}
		cfg.PauseSeconds = pause
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.CSVPath == "" {
		c.CSVPath = "schedule.csv"
	}
	if c.TokenPath == "" {
		c.TokenPath = "token.json"
	}
	if c.CredentialsPath == "" {
		c.CredentialsPath = "credentials.json"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Paris"
	}
	if c.PauseSeconds == 0 {
		c.PauseSeconds = 30
	}
	if c.EventPauseMillis == 0 {
		c.EventPauseMillis = 500
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 5
	}
	if c.Retry.BaseDelaySeconds == 0 {
		c.Retry.BaseDelaySeconds = 10
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = 2
	}
	if c.ExtractorCommand == "" {
		c.ExtractorCommand = "final-extractor"
	}
	if len(c.ProtectedKeywords) == 0 {
		c.ProtectedKeywords = []string{
			"holiday", "birthday", "birth", "task", "tasks", "primary", "@", "semaine",
		}
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CalendarPause returns the calendar-level mutation pause.
func (c *Config) CalendarPause() time.Duration {
	return time.Duration(c.PauseSeconds) * time.Second
}

// EventPause returns the event-level mutation pause.
func (c *Config) EventPause() time.Duration {
	return time.Duration(c.EventPauseMillis) * time.Millisecond
}

// GoogleCredentials is the shape of the OAuth client file downloaded from
// Google Cloud Console.
type GoogleCredentials struct {
	Installed struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"installed"`
	Web struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"web"`
}

// LoadGoogleCredentials loads the OAuth client ID and secret from a Google
// credentials JSON file, accepting both "installed" and "web" layouts.
func LoadGoogleCredentials(path string) (clientID, clientSecret string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds GoogleCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", "", fmt.Errorf("failed to parse credentials file: %w", err)
	}

	if creds.Installed.ClientID != "" {
		return creds.Installed.ClientID, creds.Installed.ClientSecret, nil
	}
	if creds.Web.ClientID != "" {
		return creds.Web.ClientID, creds.Web.ClientSecret, nil
	}
	return "", "", fmt.Errorf("no client_id found in credentials file (expected 'installed' or 'web' section)")
}
