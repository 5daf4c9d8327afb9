package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultListingURL is the jalan.net review listing, parameterized by yado number
const DefaultListingURL = "https://www.jalan.net/yad%s/kuchikomi/"

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Scraping ScrapingConfig `toml:"scraping"`
	Output   OutputConfig   `toml:"output"`
	Store    StoreConfig    `toml:"store"`
	Watch    WatchConfig    `toml:"watch"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Log      LogConfig      `toml:"log"`
}

type ScrapingConfig struct {
	ListingURL     string   `toml:"listing_url"`
	Headless       bool     `toml:"headless"`
	WaitTimeout    Duration `toml:"wait_timeout"`
	PageDelay      Duration `toml:"page_delay"`
	MaxPages       int      `toml:"max_pages"` // 0 means no limit
	WindowWidth    int      `toml:"window_width"`
	WindowHeight   int      `toml:"window_height"`
	UserAgent      string   `toml:"user_agent"`
	AcceptLanguage string   `toml:"accept_language"`
	KeepSnapshots  bool     `toml:"keep_snapshots"`
}

type OutputConfig struct {
	Dir       string `toml:"dir"`
	Delimiter string `toml:"delimiter"`
	Header    bool   `toml:"header"`
	CacheDir  string `toml:"cache_dir"` // empty uses the user cache dir
}

type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // empty uses <cache>/kuchikomi.db
}

type WatchConfig struct {
	Schedule string   `toml:"schedule"`
	Timezone string   `toml:"timezone"`
	YadoNos  []string `toml:"yado_nos"`
}

type MetricsConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Duration is a time.Duration stored as a string such as "500ms" or "20s"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Scraping: ScrapingConfig{
			ListingURL:     DefaultListingURL,
			Headless:       true,
			WaitTimeout:    Duration{20 * time.Second},
			PageDelay:      Duration{500 * time.Millisecond},
			WindowWidth:    1280,
			WindowHeight:   800,
			AcceptLanguage: "ja-JP,ja;q=0.9",
		},
		Output: OutputConfig{
			Dir:       ".",
			Delimiter: ",",
		},
		Watch: WatchConfig{
			Schedule: "0 6 * * *",
			Timezone: "Asia/Tokyo",
			YadoNos:  []string{},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ListingURL builds the review listing URL for a yado number
func (c *Config) ListingURL(yadoNo string) string {
	tmpl := c.Scraping.ListingURL
	if tmpl == "" {
		tmpl = DefaultListingURL
	}
	return fmt.Sprintf(tmpl, yadoNo)
}

// Comma returns the output delimiter as a rune
func (c *Config) Comma() (rune, error) {
	r := []rune(c.Output.Delimiter)
	switch {
	case len(r) == 0:
		return ',', nil
	case len(r) == 1 && r[0] != '"' && r[0] != '\r' && r[0] != '\n':
		return r[0], nil
	default:
		return 0, fmt.Errorf("invalid output delimiter %q", c.Output.Delimiter)
	}
}

// ResolvedCacheDir returns the configured cache directory or the platform default
func (c *Config) ResolvedCacheDir() (string, error) {
	if c.Output.CacheDir != "" {
		return c.Output.CacheDir, nil
	}
	return CacheDir()
}

// StorePath returns the sqlite database path
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := c.ResolvedCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kuchikomi.db"), nil
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "kuchikomi"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "kuchikomi"), nil
}

// Load reads config from the default location
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late, mid-scrape.
func (c *Config) Validate() error {
	if tmpl := c.Scraping.ListingURL; tmpl != "" {
		if strings.Count(tmpl, "%s") != 1 || strings.Count(tmpl, "%") != 1 {
			return fmt.Errorf("scraping.listing_url must contain exactly one %%s and no other verbs: %q", tmpl)
		}
	}
	if _, err := c.Comma(); err != nil {
		return err
	}
	return nil
}

// Save writes config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
