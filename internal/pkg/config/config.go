package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Browser  BrowserConfig  `yaml:"browser"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Telegram TelegramConfig `yaml:"telegram"`
	Postgres PostgresConfig `yaml:"postgres"`
	Leagues  []LeagueConfig `yaml:"leagues"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type BrowserConfig struct {
	Headless        bool          `yaml:"headless"`
	UserAgent       string        `yaml:"user_agent"`
	PageLoadTimeout time.Duration `yaml:"page_load_timeout"` // soft wait for document ready
	ContentWait     time.Duration `yaml:"content_wait"`      // extra wait for lazy-loaded odds tables
	DebugDir        string        `yaml:"debug_dir"`         // where raw pages are dumped on extraction failure
}

type ServerConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
}

type StoreConfig struct {
	Dir string `yaml:"dir"` // directory holding the CSV ledgers
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// LeagueConfig describes one tracked league: where its pages live and
// how its ledgers are keyed.
type LeagueConfig struct {
	Name       string `yaml:"name"`        // "khl", "nhl"
	OddsURL    string `yaml:"odds_url"`    // tournament line page
	ResultsURL string `yaml:"results_url"` // results page, accepts ?date=YYYY-MM-DD

	OddsFile    string `yaml:"odds_file"`    // default {name}_odds.csv
	ResultsFile string `yaml:"results_file"` // default {name}_results_final.csv

	// KeyPolicy is the ledger identity key: "event" (one canonical row
	// per match) or "snapshot" (one row per scrape). Fixed per ledger.
	KeyPolicy string `yaml:"key_policy"`

	// AdjustOvertimeScore subtracts one goal from the overtime winner
	// to recover the regulation score (some results feeds report the
	// score including the deciding extra goal).
	AdjustOvertimeScore bool `yaml:"adjust_overtime_score"`

	// TeamFilter keeps only events naming one of these teams, dropping
	// other tournaments the page mixes in. Empty means keep everything.
	TeamFilter []string `yaml:"team_filter"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.UserAgent == "" {
		c.Browser.UserAgent = defaultUserAgent
	}
	if c.Browser.PageLoadTimeout <= 0 {
		c.Browser.PageLoadTimeout = 10 * time.Second
	}
	if c.Browser.ContentWait <= 0 {
		c.Browser.ContentWait = 3 * time.Second
	}
	if c.Browser.DebugDir == "" {
		c.Browser.DebugDir = "."
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "."
	}
	for i := range c.Leagues {
		l := &c.Leagues[i]
		if l.OddsFile == "" {
			l.OddsFile = l.Name + "_odds.csv"
		}
		if l.ResultsFile == "" {
			l.ResultsFile = l.Name + "_results_final.csv"
		}
	}
}

func (c *Config) validate() error {
	if len(c.Leagues) == 0 {
		return fmt.Errorf("at least one league must be configured")
	}
	seen := make(map[string]bool)
	for _, l := range c.Leagues {
		if l.Name == "" {
			return fmt.Errorf("league name must not be empty")
		}
		if seen[l.Name] {
			return fmt.Errorf("duplicate league %q", l.Name)
		}
		seen[l.Name] = true
		if l.OddsURL == "" || l.ResultsURL == "" {
			return fmt.Errorf("league %q: odds_url and results_url are required", l.Name)
		}
	}
	return nil
}

// League finds a league config by name.
func (c *Config) League(name string) (*LeagueConfig, error) {
	for i := range c.Leagues {
		if c.Leagues[i].Name == name {
			return &c.Leagues[i], nil
		}
	}
	return nil, fmt.Errorf("unknown league %q", name)
}
