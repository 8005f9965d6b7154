// Package config loads and validates the castpilot configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"castpilot/pkg/logger"
)

// Config is the root configuration structure.
type Config struct {
	Version   string                 `mapstructure:"version" yaml:"version"`
	Log       logger.LogConfig       `mapstructure:"log" yaml:"log"`
	Storage   StorageConfig          `mapstructure:"storage" yaml:"storage"`
	Gateway   GatewayConfig          `mapstructure:"gateway" yaml:"gateway"`
	Farcaster FarcasterConfig        `mapstructure:"farcaster" yaml:"farcaster"`
	Provider  ProviderConfig         `mapstructure:"provider" yaml:"provider"`
	Agents    map[string]AgentConfig `mapstructure:"agents" yaml:"agents,omitempty"`
}

// StorageConfig configures the sqlite database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// GatewayConfig configures the read-only status HTTP server.
type GatewayConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

// FarcasterConfig configures the Farcaster hub API client.
type FarcasterConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Timeout  string `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// GetTimeout parses the Timeout field, defaulting to 30 seconds.
func (c *FarcasterConfig) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ProviderConfig configures the LLM provider used for the decision and
// generation calls.
type ProviderConfig struct {
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey          string `mapstructure:"api_key" yaml:"api_key"`
	DecisionModel   string `mapstructure:"decision_model" yaml:"decision_model"`
	GenerationModel string `mapstructure:"generation_model" yaml:"generation_model"`
	MaxTokens       int    `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
	Timeout         string `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// GetTimeout parses the Timeout field, defaulting to 2 minutes.
func (c *ProviderConfig) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return 2 * time.Minute
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// AgentConfig holds the per-agent settings. Each named agent runs its
// own poll loop against its own Farcaster identity.
type AgentConfig struct {
	Enabled          *bool  `mapstructure:"enabled" yaml:"enabled,omitempty"`
	FID              uint64 `mapstructure:"fid" yaml:"fid"`
	SignerUUID       string `mapstructure:"signer_uuid" yaml:"signer_uuid"`
	PollInterval     int    `mapstructure:"poll_interval" yaml:"poll_interval,omitempty"`      // seconds
	DryRun           bool   `mapstructure:"dry_run" yaml:"dry_run,omitempty"`                  // log instead of posting
	MaxThreadDepth   int    `mapstructure:"max_thread_depth" yaml:"max_thread_depth,omitempty"`
	MentionPageSize  int    `mapstructure:"mention_page_size" yaml:"mention_page_size,omitempty"`
	TimelinePageSize int    `mapstructure:"timeline_page_size" yaml:"timeline_page_size,omitempty"`
	Bio              string `mapstructure:"bio" yaml:"bio,omitempty"` // persona blurb for prompts
}

// IsEnabled returns true if the agent is enabled.
// A nil Enabled pointer defaults to true.
func (c *AgentConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// GetPollInterval returns the poll interval with the 120s default,
// clamped to a 5s floor so a typo cannot hammer the hub API.
func (c *AgentConfig) GetPollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return 120 * time.Second
	}
	if c.PollInterval < 5 {
		return 5 * time.Second
	}
	return time.Duration(c.PollInterval) * time.Second
}

// GetMaxThreadDepth returns the max conversation thread depth, default 10.
func (c *AgentConfig) GetMaxThreadDepth() int {
	if c.MaxThreadDepth <= 0 {
		return 10
	}
	return c.MaxThreadDepth
}

// GetMentionPageSize returns the mention fetch page size, default 10.
func (c *AgentConfig) GetMentionPageSize() int {
	if c.MentionPageSize <= 0 {
		return 10
	}
	return c.MentionPageSize
}

// GetTimelinePageSize returns the timeline fetch page size, default 10.
func (c *AgentConfig) GetTimelinePageSize() int {
	if c.TimelinePageSize <= 0 {
		return 10
	}
	return c.TimelinePageSize
}

// Validate checks the fields an agent cannot run without.
func (c *AgentConfig) Validate() error {
	if c.FID == 0 {
		return errors.New("agent fid is required")
	}
	if c.SignerUUID == "" && !c.DryRun {
		return errors.New("agent signer_uuid is required unless dry_run is set")
	}
	return nil
}

var (
	globalConfig *Config
	configPath   string
	mu           sync.RWMutex
)

// Load loads configuration with precedence ENV > file > defaults.
func Load(path string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	SetDefaults()

	viper.SetEnvPrefix("CASTPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		expandedPath, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		configPath = expandedPath

		viper.SetConfigFile(expandedPath)
		if err := viper.ReadInConfig(); err != nil {
			// A missing file falls back to defaults; a broken file is an error.
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) && !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigParseError); ok {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// GetConfig returns the currently loaded configuration.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// Path returns the path of the loaded configuration file.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return configPath
}

// Set sets a configuration key and persists it to the config file.
func Set(key string, value any) error {
	mu.Lock()
	defer mu.Unlock()

	viper.Set(key, value)

	if configPath != "" {
		return save()
	}
	return nil
}

// save writes the current viper state back to the config file.
// Caller must hold mu.
func save() error {
	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
