package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/coubctl/internal/validate"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "COUBCTL_CONFIG"
	// EnvDataFile overrides the account data file.
	EnvDataFile = "COUBCTL_DATA"
	// EnvTasksFile overrides the task list file.
	EnvTasksFile = "COUBCTL_TASKS"
	// EnvTokenFile overrides the token file.
	EnvTokenFile = "COUBCTL_TOKENS"
)

// Defaults applied by WithDefaults.
const (
	DefaultDataFile     = "data.txt"
	DefaultTasksFile    = "task.json"
	DefaultTokenFile    = "token.json"
	DefaultTokenStore   = "file"
	DefaultRequestDelay = 2 * time.Second
	DefaultAccountDelay = 5 * time.Second
	DefaultCycleDelay   = 24 * time.Hour
	DefaultCycleJitter  = time.Hour
	DefaultMaxRetries   = 3
)

// Config represents the CLI configuration
type Config struct {
	// Account list, one raw login payload per line
	DataFile string `yaml:"data_file,omitempty"`

	// JSON array of {id, title} tasks to claim
	TasksFile string `yaml:"tasks_file,omitempty"`

	// Token persistence: "file" or "keyring"
	TokenStore string `yaml:"token_store,omitempty"`
	TokenFile  string `yaml:"token_file,omitempty"`

	// Optional API overrides (for testing/proxies)
	APIURL     string `yaml:"api_url,omitempty"`
	RewardsURL string `yaml:"rewards_url,omitempty"`
	UserAgent  string `yaml:"user_agent,omitempty"`

	RequestDelay time.Duration `yaml:"request_delay,omitempty"`
	AccountDelay time.Duration `yaml:"account_delay,omitempty"`
	CycleDelay   time.Duration `yaml:"cycle_delay,omitempty"`
	CycleJitter  time.Duration `yaml:"cycle_jitter,omitempty"`
	MaxRetries   *int          `yaml:"max_retries,omitempty"`

	// Default output format (text, json, table, yaml)
	Output string `yaml:"output,omitempty"`

	// Default color mode (auto, always, never)
	Color string `yaml:"color,omitempty"`

	// Log handler (text, json)
	LogFormat string `yaml:"log_format,omitempty"`
}

// DefaultConfigPath returns $COUBCTL_CONFIG or ~/.config/coubctl/config.yaml
func DefaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "coubctl", "config.yaml"), nil
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return &cfg, nil
}

// SaveToPath saves config to a specific path
func (c *Config) SaveToPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// WithDefaults returns a copy with environment overrides and defaults filled
// in for every unset field.
func (c *Config) WithDefaults() Config {
	out := *c
	out.DataFile = firstNonEmpty(os.Getenv(EnvDataFile), out.DataFile, DefaultDataFile)
	out.TasksFile = firstNonEmpty(os.Getenv(EnvTasksFile), out.TasksFile, DefaultTasksFile)
	out.TokenFile = firstNonEmpty(os.Getenv(EnvTokenFile), out.TokenFile, DefaultTokenFile)
	out.TokenStore = firstNonEmpty(out.TokenStore, DefaultTokenStore)
	if out.RequestDelay <= 0 {
		out.RequestDelay = DefaultRequestDelay
	}
	if out.AccountDelay <= 0 {
		out.AccountDelay = DefaultAccountDelay
	}
	if out.CycleDelay <= 0 {
		out.CycleDelay = DefaultCycleDelay
	}
	if out.CycleJitter < 0 {
		out.CycleJitter = 0
	} else if out.CycleJitter == 0 {
		out.CycleJitter = DefaultCycleJitter
	}
	if out.MaxRetries == nil {
		n := DefaultMaxRetries
		out.MaxRetries = &n
	}
	return out
}

// Retries returns the configured retry count, or the default.
func (c *Config) Retries() int {
	if c.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *c.MaxRetries
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// setter applies a string value to one config key.
type setter func(c *Config, value string) error

var setters = map[string]setter{
	"data_file":  pathSetter("data_file", func(c *Config) *string { return &c.DataFile }),
	"tasks_file": pathSetter("tasks_file", func(c *Config) *string { return &c.TasksFile }),
	"token_file": pathSetter("token_file", func(c *Config) *string { return &c.TokenFile }),
	"token_store": choiceSetter("token_store", func(c *Config) *string { return &c.TokenStore },
		"file", "keyring"),
	"api_url":       urlSetter("api_url", func(c *Config) *string { return &c.APIURL }),
	"rewards_url":   urlSetter("rewards_url", func(c *Config) *string { return &c.RewardsURL }),
	"user_agent":    func(c *Config, v string) error { c.UserAgent = v; return nil },
	"request_delay": durationSetter("request_delay", func(c *Config) *time.Duration { return &c.RequestDelay }),
	"account_delay": durationSetter("account_delay", func(c *Config) *time.Duration { return &c.AccountDelay }),
	"cycle_delay":   durationSetter("cycle_delay", func(c *Config) *time.Duration { return &c.CycleDelay }),
	"cycle_jitter":  durationSetter("cycle_jitter", func(c *Config) *time.Duration { return &c.CycleJitter }),
	"max_retries": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("max_retries: must be an integer, got %q", v)
		}
		if err := validate.NonNegative("max_retries", n); err != nil {
			return err
		}
		c.MaxRetries = &n
		return nil
	},
	"output": choiceSetter("output", func(c *Config) *string { return &c.Output },
		"text", "json", "table", "yaml"),
	"color": choiceSetter("color", func(c *Config) *string { return &c.Color },
		"auto", "always", "never"),
	"log_format": choiceSetter("log_format", func(c *Config) *string { return &c.LogFormat },
		"text", "json"),
}

func pathSetter(key string, field func(c *Config) *string) setter {
	return func(c *Config, v string) error {
		if err := validate.NonEmpty(key, v); err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

func urlSetter(key string, field func(c *Config) *string) setter {
	return func(c *Config, v string) error {
		if err := validate.URL(key, v); err != nil {
			return err
		}
		*field(c) = strings.TrimRight(v, "/")
		return nil
	}
}

func choiceSetter(key string, field func(c *Config) *string, allowed ...string) setter {
	return func(c *Config, v string) error {
		if err := validate.OneOf(key, v, allowed...); err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

func durationSetter(key string, field func(c *Config) *time.Duration) setter {
	return func(c *Config, v string) error {
		d, err := validate.Duration(key, v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

// Set assigns a value to the named key.
func (c *Config) Set(key, value string) error {
	fn, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	return fn(c, strings.TrimSpace(value))
}

// Keys lists the settable config keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
