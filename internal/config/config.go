package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"marketwatch/internal/browser"
	"marketwatch/internal/ledger"
	"marketwatch/internal/logger"
	"marketwatch/internal/marketplace"
)

// Defaults for the watch policy and target URL construction.
const (
	DefaultBaseURL         = "https://www.facebook.com/marketplace/buenosaires/search/"
	DefaultDistance        = 40
	DefaultDaysSinceListed = 1
	DefaultSort            = "DATE_DESC"
	DefaultSchedule        = "*/5 * * * *"
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/114.0.0.0 Safari/537.36"
)

// Config is the top-level TOML structure.
type Config struct {
	EnvFiles    []string          `toml:"env_files" mapstructure:"env_files"`
	Marketplace MarketplaceConfig `toml:"marketplace" mapstructure:"marketplace"`
	Telegram    TelegramConfig    `toml:"telegram" mapstructure:"telegram"`
	Watch       WatchConfig       `toml:"watch" mapstructure:"watch"`
	Browser     BrowserConfig     `toml:"browser" mapstructure:"browser"`
	Ledger      ledger.Config     `toml:"ledger" mapstructure:"ledger"`
	History     HistoryConfig     `toml:"history" mapstructure:"history"`
	Log         logger.Config     `toml:"log" mapstructure:"log"`
	Server      ServerConfig      `toml:"server" mapstructure:"server"`
}

type MarketplaceConfig struct {
	BaseURL         string `toml:"base_url" mapstructure:"base_url"`
	Keyword         string `toml:"keyword" mapstructure:"keyword"`
	Distance        int    `toml:"distance" mapstructure:"distance"`
	DaysSinceListed int    `toml:"days_since_listed" mapstructure:"days_since_listed"`
	Sort            string `toml:"sort" mapstructure:"sort"`
	Email           string `toml:"email" mapstructure:"email"`
	Password        string `toml:"password" mapstructure:"password"`
}

type TelegramConfig struct {
	Token   string   `toml:"token" mapstructure:"token"`
	ChatIDs []string `toml:"chat_ids" mapstructure:"chat_ids"`
}

type WatchConfig struct {
	Schedule       string        `toml:"schedule" mapstructure:"schedule"`
	SettleDelay    time.Duration `toml:"settle_delay" mapstructure:"settle_delay"`
	StableReads    int           `toml:"stable_reads" mapstructure:"stable_reads"`
	MaxScrollIters int           `toml:"max_scroll_iters" mapstructure:"max_scroll_iters"`
	AnchorSelector string        `toml:"anchor_selector" mapstructure:"anchor_selector"`
	UserAgent      string        `toml:"user_agent" mapstructure:"user_agent"`
}

type BrowserConfig struct {
	ExecPath   string `toml:"exec_path" mapstructure:"exec_path"`
	ProfileDir string `toml:"profile_dir" mapstructure:"profile_dir"`
	Headless   *bool  `toml:"headless" mapstructure:"headless"`
	MaxUses    int    `toml:"max_uses" mapstructure:"max_uses"`
	ViewportW  int    `toml:"viewport_width" mapstructure:"viewport_width"`
	ViewportH  int    `toml:"viewport_height" mapstructure:"viewport_height"`
}

type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"` // empty disables the audit trail
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"` // empty disables the status server
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

// Load reads the TOML file at path (optional), merges env_files, and applies
// environment overrides so credentials never have to live in the config file.
// The override variables keep their historical names: FB_EMAIL, FB_PASSWORD,
// TELEGRAM_TOKEN, TELEGRAM_CHAT_ID(S), KEYWORD, INTERVAL_CRON.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	env := make(map[string]string)
	for _, p := range cfg.EnvFiles {
		pairs, err := loadEnvFile(p)
		if err != nil {
			return nil, fmt.Errorf("load env file %s: %w", p, err)
		}
		for k, v := range pairs {
			env[k] = v
		}
	}
	cfg.applyEnv(env)
	cfg.applyDefaults()
	return cfg, nil
}

// lookupEnv prefers the process environment over env-file values.
func lookupEnv(env map[string]string, key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return env[key]
}

func (c *Config) applyEnv(env map[string]string) {
	if v := lookupEnv(env, "FB_EMAIL"); v != "" {
		c.Marketplace.Email = v
	}
	if v := lookupEnv(env, "FB_PASSWORD"); v != "" {
		c.Marketplace.Password = v
	}
	if v := lookupEnv(env, "KEYWORD"); v != "" {
		c.Marketplace.Keyword = v
	}
	if v := lookupEnv(env, "TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := lookupEnv(env, "TELEGRAM_CHAT_IDS"); v != "" {
		c.Telegram.ChatIDs = splitChatIDs(v)
	} else if v := lookupEnv(env, "TELEGRAM_CHAT_ID"); v != "" && len(c.Telegram.ChatIDs) == 0 {
		c.Telegram.ChatIDs = []string{v}
	}
	if v := lookupEnv(env, "INTERVAL_CRON"); v != "" {
		c.Watch.Schedule = v
	}
}

func (c *Config) applyDefaults() {
	if c.Marketplace.BaseURL == "" {
		c.Marketplace.BaseURL = DefaultBaseURL
	}
	if c.Marketplace.Distance <= 0 {
		c.Marketplace.Distance = DefaultDistance
	}
	if c.Marketplace.DaysSinceListed <= 0 {
		c.Marketplace.DaysSinceListed = DefaultDaysSinceListed
	}
	if c.Marketplace.Sort == "" {
		c.Marketplace.Sort = DefaultSort
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = DefaultSchedule
	}
	if c.Watch.UserAgent == "" {
		c.Watch.UserAgent = DefaultUserAgent
	}
	if c.Browser.ProfileDir == "" {
		c.Browser.ProfileDir = "user_data"
	}
}

// Validate enforces the startup rules: delivery must be possible (token and
// at least one destination) and the search must be parameterized. Failing
// any of these is process-fatal before the first cycle.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, errors.New("telegram token is required (set telegram.token or TELEGRAM_TOKEN)"))
	}
	if len(c.Telegram.ChatIDs) == 0 {
		errs = append(errs, errors.New("at least one telegram chat id is required (set telegram.chat_ids or TELEGRAM_CHAT_IDS)"))
	}
	if strings.TrimSpace(c.Marketplace.Keyword) == "" {
		errs = append(errs, errors.New("search keyword is required (set marketplace.keyword or KEYWORD)"))
	}
	return errors.Join(errs...)
}

// SearchSpec builds the target URL parameters from configuration.
func (c *Config) SearchSpec() marketplace.SearchSpec {
	return marketplace.SearchSpec{
		BaseURL:         c.Marketplace.BaseURL,
		Keyword:         c.Marketplace.Keyword,
		Distance:        c.Marketplace.Distance,
		DaysSinceListed: c.Marketplace.DaysSinceListed,
		Sort:            c.Marketplace.Sort,
	}
}

// BrowserConfig translated to the browser package's launch config.
func (c *Config) BrowserConfig() browser.Config {
	headless := true
	if c.Browser.Headless != nil {
		headless = *c.Browser.Headless
	}
	return browser.Config{
		ExecPath:   c.Browser.ExecPath,
		ProfileDir: c.Browser.ProfileDir,
		Headless:   headless,
		MaxUses:    c.Browser.MaxUses,
		ViewportW:  c.Browser.ViewportW,
		ViewportH:  c.Browser.ViewportH,
	}
}

func splitChatIDs(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile parses a simple .env file with KEY=VALUE lines (no export, no quotes). Lines starting with # are ignored.
func loadEnvFile(path string) (map[string]string, error) {
	clean := filepath.Clean(path)
	b, err := os.ReadFile(clean)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i >= 0 {
			k := strings.TrimSpace(line[:i])
			v := strings.TrimSpace(line[i+1:])
			m[k] = v
		}
	}
	return m, nil
}
