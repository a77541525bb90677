package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"go.withmatt.com/crmmail/internal/mail"
)

const (
	appConfigDir = "crmmail"
	apiKeyEnv    = "CRMMAIL_API_KEY"
)

// GatewayConfig points at the remote mail gateway.
type GatewayConfig struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	ClientVersion  string `toml:"client_version"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Retries        int    `toml:"retries"`
}

func (g GatewayConfig) WithDefaults() GatewayConfig {
	if g.ClientVersion == "" {
		g.ClientVersion = "crmmail/dev"
	}
	if g.TimeoutSeconds <= 0 {
		g.TimeoutSeconds = 30
	}
	if g.Retries < 0 {
		g.Retries = 0
	} else if g.Retries == 0 {
		g.Retries = 3
	}
	if key := strings.TrimSpace(os.Getenv(apiKeyEnv)); key != "" {
		g.APIKey = key
	}
	return g
}

func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// CacheConfig controls the in-memory request cache.
type CacheConfig struct {
	TTLSeconds           int `toml:"ttl_seconds"`
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
}

func (c CacheConfig) WithDefaults() CacheConfig {
	if c.TTLSeconds <= 0 {
		c.TTLSeconds = 60
	}
	if c.SweepIntervalSeconds <= 0 {
		c.SweepIntervalSeconds = 120
	}
	return c
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// ComposeConfig controls outgoing mail.
type ComposeConfig struct {
	SendIntervalMillis int `toml:"send_interval_ms"`
	MaxAttachmentMB    int `toml:"max_attachment_mb"`
}

func (c ComposeConfig) WithDefaults() ComposeConfig {
	if c.SendIntervalMillis <= 0 {
		c.SendIntervalMillis = 500
	}
	if c.MaxAttachmentMB <= 0 {
		c.MaxAttachmentMB = 25
	}
	return c
}

func (c ComposeConfig) SendInterval() time.Duration {
	return time.Duration(c.SendIntervalMillis) * time.Millisecond
}

func (c ComposeConfig) MaxAttachmentBytes() int64 {
	return int64(c.MaxAttachmentMB) << 20
}

// Config represents the crmmail configuration
type Config struct {
	Accounts []mail.Account `toml:"accounts"`
	Current  string         `toml:"current"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Cache    CacheConfig    `toml:"cache"`
	UI       UIConfig       `toml:"ui"`
	Compose  ComposeConfig  `toml:"compose"`
	Theme    Theme          `toml:"theme"`
	Keys     KeyMap         `toml:"keys"`
}

// WithDefaults fills every zero value section.
func (c Config) WithDefaults() Config {
	c.Gateway = c.Gateway.WithDefaults()
	c.Cache = c.Cache.WithDefaults()
	c.UI = c.UI.WithDefaults()
	c.Compose = c.Compose.WithDefaults()
	return c
}

// FindAccount looks an account up by email, ignoring case.
func (c *Config) FindAccount(email string) *mail.Account {
	for i := range c.Accounts {
		if strings.EqualFold(c.Accounts[i].Email, email) {
			return &c.Accounts[i]
		}
	}
	return nil
}

// CurrentAccount returns the selected account, or the first one.
func (c *Config) CurrentAccount() (mail.Account, error) {
	if len(c.Accounts) == 0 {
		return mail.Account{}, fmt.Errorf("no accounts configured. Run 'crmmail accounts' to add an account")
	}
	if c.Current != "" {
		if acct := c.FindAccount(c.Current); acct != nil {
			return *acct, nil
		}
		return mail.Account{}, fmt.Errorf("current account %q is not configured", c.Current)
	}
	return c.Accounts[0], nil
}

// RemoveAccount drops an account and resets Current if it pointed at it.
func (c *Config) RemoveAccount(email string) bool {
	filtered := make([]mail.Account, 0, len(c.Accounts))
	for _, account := range c.Accounts {
		if strings.EqualFold(account.Email, email) {
			continue
		}
		filtered = append(filtered, account)
	}
	removed := len(filtered) != len(c.Accounts)
	c.Accounts = filtered
	if strings.EqualFold(c.Current, email) {
		c.Current = ""
	}
	return removed
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(appConfigDir, "config.toml"))
}

// DataFile returns a path inside the data directory, creating parents.
func DataFile(name string) (string, error) {
	return xdg.DataFile(filepath.Join(appConfigDir, name))
}

// Load reads the config file from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a config from an explicit path. A missing file yields an
// empty config.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Accounts: []mail.Account{}}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to disk
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
