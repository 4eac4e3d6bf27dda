package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/coverlabs/mulberry/internal/covertime"
	"github.com/coverlabs/mulberry/pkg/log"
)

const (
	DefaultDataDir      = ".mulberry"
	DefaultVotingPeriod = covertime.Duration(3 * 24 * 60 * 60)
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Config holds the runtime settings for an assessment node. Values come
// from defaults, then the YAML config file, then MULBERRY_* environment
// variables, each layer overriding the previous one.
type Config struct {
	DataDir      string `yaml:"dataDir"      envconfig:"DATA_DIR"`
	InMemory     bool   `yaml:"inMemory"     envconfig:"IN_MEMORY"`
	LogLevel     string `yaml:"logLevel"     envconfig:"LOG_LEVEL"`
	LogFormat    string `yaml:"logFormat"    envconfig:"LOG_FORMAT"`
	VotingPeriod uint64 `yaml:"votingPeriod" envconfig:"VOTING_PERIOD"`
}

func defaultConfig() *Config {
	return &Config{
		DataDir:      DefaultDataDir,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		VotingPeriod: uint64(DefaultVotingPeriod),
	}
}

// Load builds a Config from the given YAML file and the environment.
// An empty path falls back to ~/.mulberry/mulberry.yaml when that file
// exists, otherwise only defaults and environment variables apply.
func Load(configFile string) (*Config, error) {
	cfg := defaultConfig()

	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".mulberry", "mulberry.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process("mulberry", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.VotingPeriod == 0 {
		return fmt.Errorf("votingPeriod must be greater than zero")
	}
	if _, err := log.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid logLevel %q: %w", c.LogLevel, err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logFormat %q (must be 'console' or 'json')", c.LogFormat)
	}
	return nil
}

// VotingPeriodDuration returns the configured voting window.
func (c *Config) VotingPeriodDuration() covertime.Duration {
	return covertime.Duration(c.VotingPeriod)
}

// InitLogging configures the process-wide loggers from the config.
func (c *Config) InitLogging() error {
	level, err := log.ParseLogLevel(c.LogLevel)
	if err != nil {
		return err
	}
	loggerType := log.ConsoleLogger
	if c.LogFormat == "json" {
		loggerType = log.JSONLogger
	}
	log.Init(log.Options{LogLevel: level, Type: loggerType})
	return nil
}
