// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package governance

import (
	"github.com/onsocial/onsocial-core/lib/group"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// Status is a proposal's lifecycle state. Transitions run forward
// only; every state but Active is terminal.
type Status string

const (
	// StatusActive accepts votes.
	StatusActive Status = "active"

	// StatusExecuted passed and its effect was applied.
	StatusExecuted Status = "executed"

	// StatusExecutedSkipped passed but the effect had gone stale (the
	// invite or join target became a member or was banned after
	// creation), so nothing was applied.
	StatusExecutedSkipped Status = "executed_skipped"

	// StatusRejected failed its vote, by defeat becoming inevitable or
	// by quorum shortfall.
	StatusRejected Status = "rejected"

	// StatusCancelled was withdrawn by its proposer.
	StatusCancelled Status = "cancelled"

	// StatusExpired ran out its voting period without passing.
	StatusExpired Status = "expired"
)

// Terminal reports whether the status accepts no further votes.
func (s Status) Terminal() bool { return s != StatusActive }

// Proposal is one governance proposal with its vote record.
type Proposal struct {
	ID       string        `json:"id"`
	GroupID  ref.GroupID   `json:"group_id"`
	Proposer ref.AccountID `json:"proposer"`
	Kind     Kind          `json:"kind"`
	Payload  Payload       `json:"-"`
	Status   Status        `json:"status"`

	CreatedAt int64 `json:"created_at"`
	DecidedAt int64 `json:"decided_at,omitempty"`

	// Voting holds the group's voting config as of creation; a later
	// config change never moves the bar for an open proposal.
	Voting group.VotingConfig `json:"voting"`

	// LockedMemberCount is the membership size at creation, the fixed
	// quorum denominator for this proposal's lifetime.
	LockedMemberCount int `json:"locked_member_count"`

	// Votes maps voter to approval. One vote per member, immutable
	// once cast.
	Votes map[ref.AccountID]bool `json:"votes"`
}

// deadline returns the last unix millisecond at which votes are
// accepted.
func (p *Proposal) deadline() int64 {
	return p.CreatedAt + p.Voting.VotingPeriodMS
}

// Tally is the vote arithmetic for one proposal at one moment.
type Tally struct {
	YesVotes          int `json:"yes_votes"`
	NoVotes           int `json:"no_votes"`
	TotalVotes        int `json:"total_votes"`
	LockedMemberCount int `json:"locked_member_count"`

	// MeetsThresholds reports both bars cleared: yes/locked at or
	// above the approval threshold and total/locked at or above the
	// participation quorum.
	MeetsThresholds bool `json:"meets_thresholds"`

	// DefeatInevitable reports that even if every remaining member
	// voted yes, the approval threshold would stay out of reach.
	DefeatInevitable bool `json:"defeat_inevitable"`
}

// TallyOf computes the current tally. All ratios use integer
// basis-point arithmetic against the locked denominator; nothing is
// ever rounded in the proposal's favor.
func TallyOf(p *Proposal) Tally {
	t := Tally{LockedMemberCount: p.LockedMemberCount}
	for _, approve := range p.Votes {
		if approve {
			t.YesVotes++
		} else {
			t.NoVotes++
		}
	}
	t.TotalVotes = t.YesVotes + t.NoVotes

	locked := int64(p.LockedMemberCount)
	if locked == 0 {
		return t
	}
	yes := int64(t.YesVotes) * 10_000
	total := int64(t.TotalVotes) * 10_000
	t.MeetsThresholds = yes >= p.Voting.ApprovalThresholdBPS*locked &&
		total >= p.Voting.ParticipationQuorumBPS*locked

	unvoted := locked - int64(t.TotalVotes)
	bestCase := (int64(t.YesVotes) + unvoted) * 10_000
	t.DefeatInevitable = bestCase < p.Voting.ApprovalThresholdBPS*locked
	return t
}
