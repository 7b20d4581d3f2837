package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API. The
// override write path is only exposed when auth is configured.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// PreviewConfig controls the optional headless-browser screenshot of the
// upstream timetable page served at /preview.png.
type PreviewConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used for wall-clock fallbacks and the
	// ICS export (e.g. "Europe/Moscow").
	Timezone string `yaml:"timezone" json:"timezone"`

	// SourceURL is the timetable page carrying the date declaration, the
	// week keyword and the substitution table.
	SourceURL string `yaml:"source_url" json:"source_url"`

	// Group is the group identifier substitution rows are filtered by.
	Group string `yaml:"group" json:"group"`

	// RefreshCron is a cron-style schedule for the background refresh
	// (robfig/cron syntax; "@every 300s" by default).
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// BaselinePath is the static baseline timetable JSON file.
	BaselinePath string `yaml:"baseline_path" json:"baseline_path"`

	// OverridesPath is the manual-override JSON file.
	OverridesPath string `yaml:"overrides_path" json:"overrides_path"`

	// PairTimes maps pair number to its wall-time slot ("08:30-10:00").
	// Used only by the ICS export; resolution itself is pair-number based.
	PairTimes map[int]string `yaml:"pair_times" json:"pair_times"`

	// Preview configures the /preview.png screenshot of the source page.
	Preview PreviewConfig `yaml:"preview" json:"preview"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8080",
		Timezone:      "Europe/Moscow",
		SourceURL:     "https://menu.sttec.yar.ru/timetable/rasp_second.html",
		Group:         "ИБ1-41",
		RefreshCron:   "@every 300s",
		BaselinePath:  "/var/lib/raspbot/baseline.json",
		OverridesPath: "/var/lib/raspbot/overrides.json",
		PairTimes:     defaultPairTimes(),
		Preview: PreviewConfig{
			Enabled: false,
			Path:    "/var/lib/raspbot/preview.png",
		},
		LogLevel:  "info",
		BasicAuth: nil,
	}
}

func defaultPairTimes() map[int]string {
	return map[int]string{
		1: "08:30-10:00",
		2: "10:10-11:40",
		3: "12:10-13:40",
		4: "13:50-15:20",
		5: "15:30-17:00",
		6: "17:10-18:40",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Moscow"
	}
	if c.SourceURL == "" {
		c.SourceURL = "https://menu.sttec.yar.ru/timetable/rasp_second.html"
	}
	if c.Group == "" {
		c.Group = "ИБ1-41"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "@every 300s"
	}
	if c.BaselinePath == "" {
		c.BaselinePath = "/var/lib/raspbot/baseline.json"
	}
	if c.OverridesPath == "" {
		c.OverridesPath = "/var/lib/raspbot/overrides.json"
	}
	if len(c.PairTimes) == 0 {
		c.PairTimes = defaultPairTimes()
	}
	if c.Preview.Path == "" {
		c.Preview.Path = "/var/lib/raspbot/preview.png"
	}
	switch c.LogLevel {
	case "debug", "info", "error":
		// ok
	default:
		c.LogLevel = "info"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".raspbot-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
