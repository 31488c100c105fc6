// Package config provides configuration management for the control server.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// EnvConfigPath overrides the configuration file location when set.
const EnvConfigPath = "AION_CONFIG"

// Config represents the application configuration
type Config struct {
	// General contains server and startup settings
	General GeneralConfig `json:"general"`

	// Timing contains the pacing used by animated actions
	Timing TimingConfig `json:"timing"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// Port is the loopback port for the HTTP API (default: 8080)
	Port int `json:"port"`

	// APIToken is an optional bearer token required on API requests
	APIToken string `json:"api_token,omitempty"`

	// DefaultMode is the operation mode at startup ("assistant" or "production")
	DefaultMode string `json:"default_mode"`

	// ShowTray shows the system tray icon while serving
	ShowTray bool `json:"show_tray"`

	// RateLimitRPS limits requests per second per client (0 disables limiting)
	RateLimitRPS int `json:"rate_limit_rps"`

	// RateLimitBurst is the burst size allowed by the rate limiter
	RateLimitBurst int `json:"rate_limit_burst"`
}

// TimingConfig contains the step counts and delays of animated actions
type TimingConfig struct {
	// MoveSteps is the number of interpolated positions in an animated move
	MoveSteps int `json:"move_steps"`

	// StepDelayMs is the pause after each interpolated position
	StepDelayMs int `json:"step_delay_ms"`

	// ClickSettleMs is the pause between a click's pre-move and the click
	ClickSettleMs int `json:"click_settle_ms"`

	// TypeIntervalMs is the default pause between characters in assistant mode
	TypeIntervalMs int `json:"type_interval_ms"`
}

// StepDelay returns StepDelayMs as a duration.
func (t TimingConfig) StepDelay() time.Duration {
	return time.Duration(t.StepDelayMs) * time.Millisecond
}

// ClickSettle returns ClickSettleMs as a duration.
func (t TimingConfig) ClickSettle() time.Duration {
	return time.Duration(t.ClickSettleMs) * time.Millisecond
}

// TypeInterval returns TypeIntervalMs as a duration.
func (t TimingConfig) TypeInterval() time.Duration {
	return time.Duration(t.TypeIntervalMs) * time.Millisecond
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			Port:           8080,
			DefaultMode:    "assistant",
			ShowTray:       true,
			RateLimitRPS:   0,
			RateLimitBurst: 20,
		},
		Timing: TimingConfig{
			MoveSteps:      20,
			StepDelayMs:    10,
			ClickSettleMs:  50,
			TypeIntervalMs: 50,
		},
	}
}

// Validate replaces values that would break the dispatcher with defaults.
func (c *Config) Validate() {
	def := DefaultConfig()
	if c.General.Port <= 0 || c.General.Port > 65535 {
		c.General.Port = def.General.Port
	}
	if c.General.DefaultMode == "" {
		c.General.DefaultMode = def.General.DefaultMode
	}
	if c.General.RateLimitRPS < 0 {
		c.General.RateLimitRPS = 0
	}
	if c.General.RateLimitBurst < 1 {
		c.General.RateLimitBurst = def.General.RateLimitBurst
	}
	if c.Timing.MoveSteps < 1 {
		c.Timing.MoveSteps = 1
	}
	if c.Timing.StepDelayMs < 0 {
		c.Timing.StepDelayMs = 0
	}
	if c.Timing.ClickSettleMs < 0 {
		c.Timing.ClickSettleMs = 0
	}
	if c.Timing.TypeIntervalMs < 0 {
		c.Timing.TypeIntervalMs = 0
	}
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
}

// NewManager creates a configuration manager for the default config path
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager backed by path
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "aion")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "aion")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "aion")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Path returns the configuration file path
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		// No config file, use defaults
		return nil
	}
	if err != nil {
		return err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return err
	}
	cfg.Validate()
	m.config = cfg
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	log.Printf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// Set updates the configuration
func (m *Manager) Set(config Config) {
	config.Validate()
	m.mu.Lock()
	m.config = &config
	m.mu.Unlock()
}
