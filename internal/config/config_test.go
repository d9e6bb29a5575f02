package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvConfigPath, EnvDataFile, EnvTasksFile, EnvTokenFile} {
		t.Setenv(k, "")
	}
}

func TestLoadFromPath(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantErr       bool
		wantData      string
		wantStore     string
		wantReqDelay  time.Duration
		wantRetries   int
		wantRetrySet  bool
		wantLogFormat string
	}{
		{
			name: "valid config",
			content: `data_file: accounts.txt
token_store: keyring
request_delay: 500ms
max_retries: 0
log_format: json`,
			wantData:      "accounts.txt",
			wantStore:     "keyring",
			wantReqDelay:  500 * time.Millisecond,
			wantRetries:   0,
			wantRetrySet:  true,
			wantLogFormat: "json",
		},
		{
			name:    "empty config",
			content: "",
		},
		{
			name:    "invalid yaml",
			content: "invalid: [yaml",
			wantErr: true,
		},
		{
			name:    "bad duration",
			content: "cycle_delay: soon",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")

			if tt.content != "" {
				if err := os.WriteFile(configPath, []byte(tt.content), 0o600); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}
			}

			cfg, err := LoadFromPath(configPath)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadFromPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if cfg.DataFile != tt.wantData {
				t.Errorf("DataFile = %q, want %q", cfg.DataFile, tt.wantData)
			}
			if cfg.TokenStore != tt.wantStore {
				t.Errorf("TokenStore = %q, want %q", cfg.TokenStore, tt.wantStore)
			}
			if cfg.RequestDelay != tt.wantReqDelay {
				t.Errorf("RequestDelay = %v, want %v", cfg.RequestDelay, tt.wantReqDelay)
			}
			if (cfg.MaxRetries != nil) != tt.wantRetrySet {
				t.Fatalf("MaxRetries set = %v, want %v", cfg.MaxRetries != nil, tt.wantRetrySet)
			}
			if tt.wantRetrySet && *cfg.MaxRetries != tt.wantRetries {
				t.Errorf("MaxRetries = %d, want %d", *cfg.MaxRetries, tt.wantRetries)
			}
			if cfg.LogFormat != tt.wantLogFormat {
				t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, tt.wantLogFormat)
			}
		})
	}
}

func TestLoadFromPath_NonExistent(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg == nil || cfg.DataFile != "" {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestSaveToPath_RoundTripAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coubctl", "config.yaml")
	retries := 5
	cfg := &Config{DataFile: "a.txt", CycleDelay: 12 * time.Hour, MaxRetries: &retries}

	if err := cfg.SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file permissions = %v, want 0600", info.Mode().Perm())
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "cycle_delay: 12h0m0s") {
		t.Errorf("durations should be written as strings, got:\n%s", data)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.DataFile != "a.txt" || loaded.CycleDelay != 12*time.Hour || loaded.Retries() != 5 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestWithDefaults(t *testing.T) {
	clearEnv(t)

	got := (&Config{}).WithDefaults()
	if got.DataFile != DefaultDataFile || got.TasksFile != DefaultTasksFile || got.TokenFile != DefaultTokenFile {
		t.Errorf("unexpected file defaults: %+v", got)
	}
	if got.TokenStore != "file" {
		t.Errorf("TokenStore = %q, want file", got.TokenStore)
	}
	if got.RequestDelay != 2*time.Second || got.AccountDelay != 5*time.Second {
		t.Errorf("unexpected delays: %v %v", got.RequestDelay, got.AccountDelay)
	}
	if got.CycleDelay != 24*time.Hour || got.CycleJitter != time.Hour {
		t.Errorf("unexpected cycle timing: %v %v", got.CycleDelay, got.CycleJitter)
	}
	if got.Retries() != 3 {
		t.Errorf("Retries() = %d, want 3", got.Retries())
	}
}

func TestWithDefaults_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDataFile, "/tmp/env-data.txt")

	got := (&Config{DataFile: "from-config.txt", CycleJitter: -time.Second}).WithDefaults()
	if got.DataFile != "/tmp/env-data.txt" {
		t.Errorf("DataFile = %q, want env override", got.DataFile)
	}
	if got.CycleJitter != 0 {
		t.Errorf("negative jitter should disable jitter, got %v", got.CycleJitter)
	}
}

func TestDefaultConfigPath_Env(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/coubctl.yaml")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error = %v", err)
	}
	if path != "/etc/coubctl.yaml" {
		t.Errorf("DefaultConfigPath() = %q", path)
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
		check      func(*Config) bool
	}{
		{"data_file", "x.txt", false, func(c *Config) bool { return c.DataFile == "x.txt" }},
		{"token_store", "keyring", false, func(c *Config) bool { return c.TokenStore == "keyring" }},
		{"token_store", "vault", true, nil},
		{"account_delay", "10s", false, func(c *Config) bool { return c.AccountDelay == 10*time.Second }},
		{"account_delay", "ten", true, nil},
		{"max_retries", "0", false, func(c *Config) bool { return c.Retries() == 0 }},
		{"max_retries", "-1", true, nil},
		{"output", "yaml", false, func(c *Config) bool { return c.Output == "yaml" }},
		{"output", "xml", true, nil},
		{"api_url", "http://127.0.0.1:9000/api/v2/", false, func(c *Config) bool { return c.APIURL == "http://127.0.0.1:9000/api/v2" }},
		{"rewards_url", "rewards.example.invalid", true, nil},
		{"cycle_jitter", "-1h", true, nil},
		{"data_file", " ", true, nil},
		{"nope", "1", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Set(%q, %q) not applied: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("Keys() not sorted: %v", keys)
		}
	}
}
