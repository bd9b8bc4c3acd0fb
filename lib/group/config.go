// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package group

import (
	"fmt"
	"time"

	"github.com/onsocial/onsocial-core/lib/ref"
)

// Basis-point bounds for quorum and threshold parameters, and the
// allowed voting-period window.
const (
	MinBPS = 100
	MaxBPS = 10_000

	MinVotingPeriod = time.Hour
	MaxVotingPeriod = 365 * 24 * time.Hour
)

// VotingConfig parameterizes proposal voting for one group. Proposals
// snapshot the config at creation, so a later change never moves the
// bar for an open vote.
type VotingConfig struct {
	// ParticipationQuorumBPS is the minimum total-votes share of the
	// locked member count, in basis points.
	ParticipationQuorumBPS int64 `cbor:"1,keyasint"`

	// ApprovalThresholdBPS is the minimum yes-votes share of the
	// locked member count, in basis points.
	ApprovalThresholdBPS int64 `cbor:"2,keyasint"`

	// VotingPeriodMS bounds how long a proposal accepts votes after
	// creation, in milliseconds.
	VotingPeriodMS int64 `cbor:"3,keyasint"`
}

// DefaultVotingConfig returns the platform defaults: 50% quorum, 51%
// approval, 7-day voting period.
func DefaultVotingConfig() VotingConfig {
	return VotingConfig{
		ParticipationQuorumBPS: 5000,
		ApprovalThresholdBPS:   5100,
		VotingPeriodMS:         (7 * 24 * time.Hour).Milliseconds(),
	}
}

// Validate checks every parameter against its allowed range.
func (c VotingConfig) Validate() error {
	if c.ParticipationQuorumBPS < MinBPS || c.ParticipationQuorumBPS > MaxBPS {
		return fmt.Errorf("participation quorum %d bps outside [%d,%d]: %w", c.ParticipationQuorumBPS, MinBPS, MaxBPS, ErrOutOfRange)
	}
	if c.ApprovalThresholdBPS < MinBPS || c.ApprovalThresholdBPS > MaxBPS {
		return fmt.Errorf("approval threshold %d bps outside [%d,%d]: %w", c.ApprovalThresholdBPS, MinBPS, MaxBPS, ErrOutOfRange)
	}
	if period := time.Duration(c.VotingPeriodMS) * time.Millisecond; period < MinVotingPeriod || period > MaxVotingPeriod {
		return fmt.Errorf("voting period %s outside [%s,%s]: %w", period, MinVotingPeriod, MaxVotingPeriod, ErrOutOfRange)
	}
	return nil
}

// VotingChange is a partial voting-config update. Nil fields keep the
// current value.
type VotingChange struct {
	ParticipationQuorumBPS *int64 `cbor:"1,keyasint,omitempty" json:"participation_quorum_bps,omitempty"`
	ApprovalThresholdBPS   *int64 `cbor:"2,keyasint,omitempty" json:"approval_threshold_bps,omitempty"`
	VotingPeriodMS         *int64 `cbor:"3,keyasint,omitempty" json:"voting_period_ms,omitempty"`
}

// IsZero reports whether the change carries no parameters.
func (c VotingChange) IsZero() bool {
	return c.ParticipationQuorumBPS == nil && c.ApprovalThresholdBPS == nil && c.VotingPeriodMS == nil
}

// ApplyTo merges the change into a config and validates the result.
func (c VotingChange) ApplyTo(cfg VotingConfig) (VotingConfig, error) {
	if c.ParticipationQuorumBPS != nil {
		cfg.ParticipationQuorumBPS = *c.ParticipationQuorumBPS
	}
	if c.ApprovalThresholdBPS != nil {
		cfg.ApprovalThresholdBPS = *c.ApprovalThresholdBPS
	}
	if c.VotingPeriodMS != nil {
		cfg.VotingPeriodMS = *c.VotingPeriodMS
	}
	if err := cfg.Validate(); err != nil {
		return VotingConfig{}, err
	}
	return cfg, nil
}

// Config is a group's stored configuration.
type Config struct {
	Owner        ref.AccountID `cbor:"1,keyasint"`
	IsPrivate    bool          `cbor:"2,keyasint"`
	MemberDriven bool          `cbor:"3,keyasint"`
	Description  string        `cbor:"4,keyasint,omitempty"`
	Voting       VotingConfig  `cbor:"5,keyasint"`
	CreatedAt    int64         `cbor:"6,keyasint"`
}

// CreateParams are the caller-supplied knobs for CreateGroup. IsPrivate
// nil defaults to public, except for member-driven groups which
// default to private; an explicit false on a member-driven group is
// rejected rather than silently overridden.
type CreateParams struct {
	IsPrivate    *bool
	MemberDriven bool
	Description  string
	Voting       *VotingConfig
}
