// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package governance

import "errors"

var (
	// ErrProposalNotFound reports a vote or cancellation against an
	// unknown proposal id.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrProposalTerminal reports an operation on a proposal already
	// decided.
	ErrProposalTerminal = errors.New("proposal already decided")

	// ErrProposalExpired reports a vote or cancellation after the
	// voting period lapsed.
	ErrProposalExpired = errors.New("proposal voting period has expired")

	// ErrAlreadyVoted reports a second vote from the same member.
	ErrAlreadyVoted = errors.New("member has already voted")

	// ErrNotProposer reports a cancellation by anyone but the
	// proposer.
	ErrNotProposer = errors.New("only the proposer may cancel")

	// ErrVotesCast reports a cancellation after other members voted.
	ErrVotesCast = errors.New("proposal already has votes from other members")

	// ErrIneligibleVoter reports a vote from a member who joined after
	// the proposal was created.
	ErrIneligibleVoter = errors.New("member joined after proposal creation")

	// ErrEmptyChanges reports a metadata or voting-config proposal
	// carrying nothing to change.
	ErrEmptyChanges = errors.New("proposal carries no changes")

	// ErrUnknownProposalType reports an unrecognized proposal or
	// update type tag.
	ErrUnknownProposalType = errors.New("unknown proposal type")

	// ErrInvalidPayload reports a payload failing its per-type
	// validation rule.
	ErrInvalidPayload = errors.New("invalid proposal payload")
)
