// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/onsocial/onsocial-core/lib/group"
)

// Config is the top-level node configuration.
type Config struct {
	// ContractID is the contract identity requests are signed against.
	// It is folded into the signing domain, so every node serving the
	// same contract must agree on it.
	ContractID string `yaml:"contract_id"`

	// Database configures snapshot persistence.
	Database DatabaseConfig `yaml:"database"`

	// Voting overrides the voting defaults for groups created without
	// an explicit voting config. Omitted fields keep the built-in
	// defaults.
	Voting VotingConfig `yaml:"voting"`

	// Log configures daemon logging.
	Log LogConfig `yaml:"log"`
}

// DatabaseConfig configures the SQLite snapshot store.
type DatabaseConfig struct {
	// Path is the database file. The parent directory must exist.
	Path string `yaml:"path"`
}

// VotingConfig mirrors the group voting parameters in YAML form.
type VotingConfig struct {
	ParticipationQuorumBPS int64 `yaml:"participation_quorum_bps"`
	ApprovalThresholdBPS   int64 `yaml:"approval_threshold_bps"`
	VotingPeriodMS         int64 `yaml:"voting_period_ms"`
}

// LogConfig configures daemon logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string `yaml:"level"`

	// Format is "text" or "json". Default: text.
	Format string `yaml:"format"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.ContractID == "" {
		return fmt.Errorf("contract_id is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if _, err := c.VotingDefaults(); err != nil {
		return err
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q: supported values are debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: supported values are text, json", c.Log.Format)
	}
	return nil
}

// VotingDefaults resolves the configured voting overrides against the
// built-in defaults and validates the result.
func (c *Config) VotingDefaults() (group.VotingConfig, error) {
	defaults := group.DefaultVotingConfig()
	if c.Voting.ParticipationQuorumBPS != 0 {
		defaults.ParticipationQuorumBPS = c.Voting.ParticipationQuorumBPS
	}
	if c.Voting.ApprovalThresholdBPS != 0 {
		defaults.ApprovalThresholdBPS = c.Voting.ApprovalThresholdBPS
	}
	if c.Voting.VotingPeriodMS != 0 {
		defaults.VotingPeriodMS = c.Voting.VotingPeriodMS
	}
	if err := defaults.Validate(); err != nil {
		return group.VotingConfig{}, fmt.Errorf("voting: %w", err)
	}
	return defaults, nil
}
