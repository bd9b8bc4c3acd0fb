// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package governance

import (
	"errors"
	"fmt"
	"time"

	"github.com/onsocial/onsocial-core/lib/group"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// Engine manages every group's proposals against the shared group
// registry. Not safe for concurrent use; the state core serializes
// all access.
type Engine struct {
	groups    *group.Registry
	proposals map[string]*Proposal
}

// NewEngine returns an engine operating on groups.
func NewEngine(groups *group.Registry) *Engine {
	return &Engine{
		groups:    groups,
		proposals: make(map[string]*Proposal),
	}
}

// Create opens a proposal. The caller must be a member, except for a
// join request, which a non-member files naming only themselves. With
// autoVote set the caller's yes vote is cast immediately, which on a
// single-member group decides the proposal at creation.
func (e *Engine) Create(caller ref.AccountID, gid ref.GroupID, payload Payload, autoVote bool, now time.Time) (*Proposal, error) {
	config, err := e.groups.GetConfig(gid)
	if err != nil {
		return nil, err
	}

	if join, ok := payload.(JoinRequest); ok {
		if join.Requester != caller {
			return nil, fmt.Errorf("join request for %s filed by %s: %w", join.Requester, caller, ErrInvalidPayload)
		}
		if e.groups.IsMember(gid, caller) {
			return nil, fmt.Errorf("group %q: %s: %w", gid, caller, group.ErrAlreadyMember)
		}
		if e.groups.IsBlacklisted(gid, caller) {
			return nil, fmt.Errorf("group %q: %s: %w", gid, caller, group.ErrBlacklisted)
		}
	} else if !e.groups.IsMember(gid, caller) {
		return nil, fmt.Errorf("group %q: %s: %w", gid, caller, group.ErrNotMember)
	}

	if err := e.validate(gid, config, payload); err != nil {
		return nil, err
	}

	seq, err := e.groups.NextProposalSeq(gid)
	if err != nil {
		return nil, err
	}
	p := &Proposal{
		ID:                fmt.Sprintf("%s_%d", gid, seq),
		GroupID:           gid,
		Proposer:          caller,
		Kind:              payload.Kind(),
		Payload:           payload,
		Status:            StatusActive,
		CreatedAt:         now.UnixMilli(),
		Voting:            config.Voting,
		LockedMemberCount: e.groups.MemberCount(gid),
		Votes:             make(map[ref.AccountID]bool),
	}
	e.proposals[p.ID] = p

	// A join-request proposer is not a member and cannot vote, so
	// autoVote is meaningless there and is ignored.
	if _, isJoin := payload.(JoinRequest); autoVote && !isJoin {
		if _, err := e.Vote(caller, gid, p.ID, true, now); err != nil {
			delete(e.proposals, p.ID)
			return nil, fmt.Errorf("auto-vote: %w", err)
		}
	}
	return p, nil
}

// validate checks a payload against current group state. Execution
// revalidates what can go stale; this pass keeps obviously dead
// proposals from opening.
func (e *Engine) validate(gid ref.GroupID, config group.Config, payload Payload) error {
	switch p := payload.(type) {
	case MetadataUpdate:
		if len(p.Changes) == 0 {
			return fmt.Errorf("metadata update: %w", ErrEmptyChanges)
		}
	case RemoveMember:
		return e.validateMemberTarget(gid, config, p.Account)
	case Ban:
		return e.validateMemberTarget(gid, config, p.Account)
	case TransferOwnership:
		return e.validateMemberTarget(gid, config, p.NewOwner)
	case Unban:
		if !e.groups.IsBlacklisted(gid, p.Account) {
			return fmt.Errorf("group %q: %s: %w", gid, p.Account, group.ErrNotBlacklisted)
		}
	case PermissionChange:
		return e.validateMemberTarget(gid, config, p.Account)
	case PathGrant:
		if !p.Path.HasPrefix(group.Root(gid)) {
			return fmt.Errorf("path %q outside namespace of group %q: %w", p.Path, gid, ErrInvalidPayload)
		}
	case PathRevoke:
		if !p.Path.HasPrefix(group.Root(gid)) {
			return fmt.Errorf("path %q outside namespace of group %q: %w", p.Path, gid, ErrInvalidPayload)
		}
	case VotingChange:
		if p.Change.IsZero() {
			return fmt.Errorf("voting config change: %w", ErrEmptyChanges)
		}
		if _, err := p.Change.ApplyTo(config.Voting); err != nil {
			return fmt.Errorf("%v: %w", err, ErrInvalidPayload)
		}
	case JoinRequest:
		if !config.MemberDriven {
			return fmt.Errorf("group %q is not member-driven: %w", gid, ErrInvalidPayload)
		}
	case MemberInvite:
		if e.groups.IsMember(gid, p.Account) {
			return fmt.Errorf("group %q: %s: %w", gid, p.Account, group.ErrAlreadyMember)
		}
		if e.groups.IsBlacklisted(gid, p.Account) {
			return fmt.Errorf("group %q: %s: %w", gid, p.Account, group.ErrBlacklisted)
		}
	case Custom:
	default:
		return fmt.Errorf("payload %T: %w", payload, ErrUnknownProposalType)
	}
	return nil
}

func (e *Engine) validateMemberTarget(gid ref.GroupID, config group.Config, target ref.AccountID) error {
	if target == config.Owner {
		return fmt.Errorf("group %q: %w", gid, group.ErrOwnerImmutable)
	}
	if _, ok := e.groups.MemberData(gid, target); !ok {
		return fmt.Errorf("group %q: %s: %w", gid, target, group.ErrNotMember)
	}
	return nil
}

// Vote records a member's vote and evaluates the proposal. The voter
// must have been a member when the proposal opened. A vote that
// clears both thresholds executes the proposal; one that makes defeat
// inevitable rejects it immediately.
func (e *Engine) Vote(caller ref.AccountID, gid ref.GroupID, proposalID string, approve bool, now time.Time) (Tally, error) {
	p, err := e.lookup(gid, proposalID)
	if err != nil {
		return Tally{}, err
	}
	if p.Status.Terminal() {
		return Tally{}, fmt.Errorf("proposal %s is %s: %w", p.ID, p.Status, ErrProposalTerminal)
	}
	if err := e.expireIfPastDeadline(p, now); err != nil {
		return Tally{}, err
	}

	if !e.groups.IsMember(gid, caller) {
		return Tally{}, fmt.Errorf("group %q: %s: %w", gid, caller, group.ErrNotMember)
	}
	joinedAt, ok := e.groups.JoinedAt(gid, caller)
	if !ok || joinedAt > p.CreatedAt {
		return Tally{}, fmt.Errorf("proposal %s: %s: %w", p.ID, caller, ErrIneligibleVoter)
	}
	if _, voted := p.Votes[caller]; voted {
		return Tally{}, fmt.Errorf("proposal %s: %s: %w", p.ID, caller, ErrAlreadyVoted)
	}

	p.Votes[caller] = approve
	tally := TallyOf(p)

	switch {
	case tally.MeetsThresholds:
		status, err := e.execute(p, now)
		if err != nil {
			// The whole request fails atomically, so the vote that
			// triggered the broken execution is rolled back too.
			delete(p.Votes, caller)
			return Tally{}, fmt.Errorf("executing proposal %s: %w", p.ID, err)
		}
		p.Status = status
		p.DecidedAt = now.UnixMilli()
	case tally.DefeatInevitable:
		p.Status = StatusRejected
		p.DecidedAt = now.UnixMilli()
	}
	return tally, nil
}

// execute applies a passed proposal through the group registry's
// governance surface. Stale invite and join targets are absorbed as
// ExecutedSkipped; every other failure propagates.
func (e *Engine) execute(p *Proposal, now time.Time) (Status, error) {
	gid := p.GroupID
	var err error
	switch payload := p.Payload.(type) {
	case MetadataUpdate:
		err = e.groups.ApplyMetadata(gid, payload.Changes)
	case RemoveMember:
		err = e.groups.ApplyRemoveMember(gid, payload.Account)
	case Ban:
		err = e.groups.ApplyBan(gid, payload.Account, now)
	case Unban:
		err = e.groups.ApplyUnban(gid, payload.Account)
	case TransferOwnership:
		err = e.groups.ApplyTransferOwnership(gid, payload.NewOwner, now)
	case PermissionChange:
		err = e.groups.ApplyRoleChange(gid, payload.Account, payload.Level)
	case PathGrant:
		err = e.groups.ApplyPathGrant(gid, payload.Grantee, payload.Path, payload.Level, payload.ExpiresAt)
	case PathRevoke:
		err = e.groups.ApplyPathRevoke(gid, payload.Grantee, payload.Path)
	case VotingChange:
		err = e.groups.ApplyVotingChange(gid, payload.Change)
	case JoinRequest:
		if err := e.groups.ApplyJoin(gid, payload.Requester, now); err != nil {
			if recoverable(err) {
				return StatusExecutedSkipped, nil
			}
			return "", err
		}
	case MemberInvite:
		if err := e.groups.ApplyInvite(gid, payload.Account, p.Proposer, now); err != nil {
			if recoverable(err) {
				return StatusExecutedSkipped, nil
			}
			return "", err
		}
	case Custom:
		// Recorded decision only; no effect to apply.
	default:
		return "", fmt.Errorf("payload %T: %w", p.Payload, ErrUnknownProposalType)
	}
	if err != nil {
		return "", err
	}
	return StatusExecuted, nil
}

// recoverable reports whether a membership execution failed only
// because the world moved on since the proposal was created.
func recoverable(err error) bool {
	return errors.Is(err, group.ErrAlreadyMember) || errors.Is(err, group.ErrBlacklisted)
}

// expireIfPastDeadline flips a proposal past its voting deadline to
// StatusExpired and reports the expiry as an error. The request that
// detects the expiry fails, so the flip is not persisted with it; a
// core restored from before this point revives the proposal as active
// and the next touch re-derives expiry from CreatedAt and the voting
// period, reaching the same state.
func (e *Engine) expireIfPastDeadline(p *Proposal, now time.Time) error {
	if now.UnixMilli() <= p.deadline() {
		return nil
	}
	p.Status = StatusExpired
	p.DecidedAt = now.UnixMilli()
	return fmt.Errorf("proposal %s: %w", p.ID, ErrProposalExpired)
}

// Cancel withdraws an active proposal. Proposer only, and only while
// no other member has voted.
func (e *Engine) Cancel(caller ref.AccountID, gid ref.GroupID, proposalID string, now time.Time) error {
	p, err := e.lookup(gid, proposalID)
	if err != nil {
		return err
	}
	if p.Status.Terminal() {
		return fmt.Errorf("proposal %s is %s: %w", p.ID, p.Status, ErrProposalTerminal)
	}
	if err := e.expireIfPastDeadline(p, now); err != nil {
		return err
	}
	if p.Proposer != caller {
		return fmt.Errorf("proposal %s: %s: %w", p.ID, caller, ErrNotProposer)
	}
	for voter := range p.Votes {
		if voter != p.Proposer {
			return fmt.Errorf("proposal %s: %w", p.ID, ErrVotesCast)
		}
	}
	p.Status = StatusCancelled
	p.DecidedAt = now.UnixMilli()
	return nil
}

func (e *Engine) lookup(gid ref.GroupID, proposalID string) (*Proposal, error) {
	p, ok := e.proposals[proposalID]
	if !ok || p.GroupID != gid {
		return nil, fmt.Errorf("group %q proposal %q: %w", gid, proposalID, ErrProposalNotFound)
	}
	return p, nil
}

// GetProposal returns a proposal for inspection. Callers must not
// mutate it.
func (e *Engine) GetProposal(gid ref.GroupID, proposalID string) (*Proposal, error) {
	return e.lookup(gid, proposalID)
}

// GetTally computes the current tally for a proposal.
func (e *Engine) GetTally(gid ref.GroupID, proposalID string) (Tally, error) {
	p, err := e.lookup(gid, proposalID)
	if err != nil {
		return Tally{}, err
	}
	return TallyOf(p), nil
}

// GetVote returns a member's recorded vote, if any.
func (e *Engine) GetVote(gid ref.GroupID, proposalID string, voter ref.AccountID) (approve, voted bool, err error) {
	p, err := e.lookup(gid, proposalID)
	if err != nil {
		return false, false, err
	}
	approve, voted = p.Votes[voter]
	return approve, voted, nil
}
