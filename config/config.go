package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSearchURL is the per-comuna search results URL; %s is the comuna slug.
const DefaultSearchURL = "https://www.portalinmobiliario.com/arriendo/departamento/%s-metropolitana"

// Config holds all runtime configuration for the scraper.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Browser  BrowserConfig  `yaml:"browser"`
	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	Robots   RobotsConfig   `yaml:"robots"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InputConfig points at the comunas table.
type InputConfig struct {
	ComunasFile  string   `yaml:"comunas_file"`
	ComunaColumn string   `yaml:"comuna_column"`
	Only         []string `yaml:"only"`
}

// ScrapeConfig controls pagination and timing.
type ScrapeConfig struct {
	SearchURL string `yaml:"search_url"`
	// MaxPages bounds pagination per comuna regardless of the site's
	// next-page anchor.
	MaxPages int `yaml:"max_pages"`
	// LoopBudget is the wall-clock budget handed to each bounded loop.
	LoopBudget Duration `yaml:"loop_budget"`
	// LinkLoopBudget bounds the per-comuna detail page loop.
	LinkLoopBudget  Duration `yaml:"link_loop_budget"`
	WaitTimeout     Duration `yaml:"wait_timeout"`
	PageLoadTimeout Duration `yaml:"page_load_timeout"`
	// RequestsPerSecond throttles navigations; zero disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// BrowserConfig configures the Chrome allocator.
type BrowserConfig struct {
	Headless     bool     `yaml:"headless"`
	UserAgent    string   `yaml:"user_agent"`
	WindowWidth  int      `yaml:"window_width"`
	WindowHeight int      `yaml:"window_height"`
	ExtraFlags   []string `yaml:"extra_flags"`
}

// OutputConfig names the JSON artifacts.
type OutputConfig struct {
	LinksFile   string `yaml:"links_file"`
	RecordsFile string `yaml:"records_file"`
	WriteLinks  bool   `yaml:"write_links"`
}

// DatabaseConfig is the optional PostgreSQL sink.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// RobotsConfig controls robots.txt checks on search URLs.
type RobotsConfig struct {
	Respect   bool   `yaml:"respect"`
	UserAgent string `yaml:"user_agent"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Input: InputConfig{
			ComunasFile:  "comunas.csv",
			ComunaColumn: "Comuna",
		},
		Scrape: ScrapeConfig{
			SearchURL:         DefaultSearchURL,
			MaxPages:          50,
			LoopBudget:        DurationFrom(10 * time.Second),
			LinkLoopBudget:    DurationFrom(10 * time.Second),
			WaitTimeout:       DurationFrom(4 * time.Second),
			PageLoadTimeout:   DurationFrom(30 * time.Second),
			RequestsPerSecond: 1,
		},
		Browser: BrowserConfig{
			Headless: true,
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:  1440,
			WindowHeight: 900,
		},
		Output: OutputConfig{
			LinksFile:   "apartments_by_commune_urls.json",
			RecordsFile: "all_apartments_data.json",
		},
		Database: DatabaseConfig{
			Enabled:  getEnvBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "portal"),
			Password: getEnv("DB_PASSWORD", "portal"),
			Name:     getEnv("DB_NAME", "portalinmobiliario"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Robots: RobotsConfig{
			Respect:   false,
			UserAgent: "portalinmobiliario-etl",
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Structured: false,
		},
	}
}

// LoadEnv reads KEY=VALUE pairs from the given .env files into the
// process environment. Missing files are ignored; variables already set
// win over file values.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env %s: %w", f, err)
		}
	}
	return nil
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader on top
// of Default().
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the invariants the scraper relies on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Input.ComunasFile) == "" && len(c.Input.Only) == 0 {
		return errors.New("input.comunas_file or input.only must be set")
	}
	if strings.Count(c.Scrape.SearchURL, "%s") != 1 {
		return fmt.Errorf("scrape.search_url must contain exactly one %%s (got %q)", c.Scrape.SearchURL)
	}
	if c.Scrape.MaxPages <= 0 {
		return fmt.Errorf("scrape.max_pages must be > 0 (got %d)", c.Scrape.MaxPages)
	}
	if c.Scrape.LoopBudget.Duration <= 0 {
		return fmt.Errorf("scrape.loop_budget must be > 0 (got %s)", c.Scrape.LoopBudget)
	}
	if c.Scrape.LinkLoopBudget.Duration <= 0 {
		return fmt.Errorf("scrape.link_loop_budget must be > 0 (got %s)", c.Scrape.LinkLoopBudget)
	}
	if c.Scrape.WaitTimeout.Duration <= 0 {
		return fmt.Errorf("scrape.wait_timeout must be > 0 (got %s)", c.Scrape.WaitTimeout)
	}
	if c.Scrape.RequestsPerSecond < 0 {
		return fmt.Errorf("scrape.requests_per_second must be >= 0 (got %v)", c.Scrape.RequestsPerSecond)
	}
	if strings.TrimSpace(c.Output.RecordsFile) == "" {
		return errors.New("output.records_file must be set")
	}
	if c.Output.WriteLinks && strings.TrimSpace(c.Output.LinksFile) == "" {
		return errors.New("output.links_file must be set when output.write_links is true")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("database.host and database.name must be set when database.enabled is true")
		}
		if c.Database.Port <= 0 {
			return fmt.Errorf("database.port must be > 0 (got %d)", c.Database.Port)
		}
	}
	if c.Robots.Respect && strings.TrimSpace(c.Robots.UserAgent) == "" {
		return errors.New("robots.user_agent must be set when robots.respect is true")
	}
	return nil
}

func (c *Config) normalise() {
	c.Input.ComunasFile = strings.TrimSpace(c.Input.ComunasFile)
	c.Input.ComunaColumn = strings.TrimSpace(c.Input.ComunaColumn)
	if c.Input.ComunaColumn == "" {
		c.Input.ComunaColumn = "Comuna"
	}
	c.Input.Only = SplitTrim(strings.Join(c.Input.Only, ","), ",")
	c.Scrape.SearchURL = strings.TrimSpace(c.Scrape.SearchURL)
	c.Browser.UserAgent = strings.TrimSpace(c.Browser.UserAgent)
	c.Robots.UserAgent = strings.TrimSpace(c.Robots.UserAgent)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

// SearchURLFor builds the first search results page for comuna.
func (c Config) SearchURLFor(comuna string) string {
	return fmt.Sprintf(c.Scrape.SearchURL, comuna)
}

// DSN renders the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// SplitTrim splits s on sep and drops empty, whitespace-only parts.
func SplitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
