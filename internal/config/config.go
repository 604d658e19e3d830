package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================
// MAIN CONFIG
// ============================================================

type Config struct {
	RPCTimeout     string          `yaml:"rpc_timeout"`
	ReceiptTimeout string          `yaml:"receipt_timeout"`
	PollInterval   string          `yaml:"poll_interval"`
	EnvFile        string          `yaml:"env_file"`
	Metrics        MetricsConfig   `yaml:"metrics"`
	Programs       []ProgramConfig `yaml:"programs"`
}

type MetricsConfig struct {
	Pushgateway string `yaml:"pushgateway"`
}

// ProgramConfig overrides an entry of the built-in deprecated staking
// program table. Kind is "membership" or "flag".
type ProgramConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Kind    string `yaml:"kind"`
}

// ============================================================
// HELPER FUNCTIONS
// ============================================================

// ParseDuration parses duration strings like "1m", "5m", "30s"
func ParseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func (c *Config) RPCTimeoutDuration() time.Duration {
	return ParseDuration(c.RPCTimeout)
}

func (c *Config) ReceiptTimeoutDuration() time.Duration {
	return ParseDuration(c.ReceiptTimeout)
}

func (c *Config) PollIntervalDuration() time.Duration {
	return ParseDuration(c.PollInterval)
}

// ============================================================
// LOAD FUNCTION
// ============================================================

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	for i, p := range cfg.Programs {
		if p.Kind != "membership" && p.Kind != "flag" {
			return nil, fmt.Errorf("programs[%d]: unknown kind %q", i, p.Kind)
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RPCTimeout == "" {
		cfg.RPCTimeout = "10s"
	}
	if cfg.ReceiptTimeout == "" {
		cfg.ReceiptTimeout = "3m"
	}
	if cfg.PollInterval == "" {
		cfg.PollInterval = "3s"
	}
	if cfg.EnvFile == "" {
		cfg.EnvFile = "../.trader_runner/.env"
	}
}
