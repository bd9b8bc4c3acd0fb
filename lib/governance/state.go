// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package governance

import (
	"fmt"
	"sort"

	"github.com/onsocial/onsocial-core/lib/codec"
	"github.com/onsocial/onsocial-core/lib/group"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// VoteEntry pairs a voter with their vote for persistence.
type VoteEntry struct {
	Voter   ref.AccountID `cbor:"1,keyasint"`
	Approve bool          `cbor:"2,keyasint"`
}

// State is one proposal's exportable snapshot. The payload is stored
// as raw CBOR beside its kind tag and revived through the same closed
// dispatch the engine votes through.
type State struct {
	ID                string             `cbor:"1,keyasint"`
	GroupID           ref.GroupID        `cbor:"2,keyasint"`
	Proposer          ref.AccountID      `cbor:"3,keyasint"`
	Kind              Kind               `cbor:"4,keyasint"`
	Payload           codec.RawMessage   `cbor:"5,keyasint"`
	Status            Status             `cbor:"6,keyasint"`
	CreatedAt         int64              `cbor:"7,keyasint"`
	DecidedAt         int64              `cbor:"8,keyasint,omitempty"`
	Voting            group.VotingConfig `cbor:"9,keyasint"`
	LockedMemberCount int                `cbor:"10,keyasint"`
	Votes             []VoteEntry        `cbor:"11,keyasint,omitempty"`
}

// Export snapshots every proposal in deterministic order.
func (e *Engine) Export() ([]State, error) {
	out := make([]State, 0, len(e.proposals))
	for _, p := range e.proposals {
		raw, err := codec.Marshal(p.Payload)
		if err != nil {
			return nil, fmt.Errorf("encoding payload of proposal %s: %w", p.ID, err)
		}
		state := State{
			ID:                p.ID,
			GroupID:           p.GroupID,
			Proposer:          p.Proposer,
			Kind:              p.Kind,
			Payload:           raw,
			Status:            p.Status,
			CreatedAt:         p.CreatedAt,
			DecidedAt:         p.DecidedAt,
			Voting:            p.Voting,
			LockedMemberCount: p.LockedMemberCount,
		}
		for voter, approve := range p.Votes {
			state.Votes = append(state.Votes, VoteEntry{Voter: voter, Approve: approve})
		}
		sort.Slice(state.Votes, func(i, j int) bool {
			return state.Votes[i].Voter.String() < state.Votes[j].Voter.String()
		})
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Restore replaces the engine contents with exported snapshots.
func (e *Engine) Restore(states []State) error {
	proposals := make(map[string]*Proposal, len(states))
	for _, state := range states {
		payload, err := decodePayload(state.Kind, state.Payload)
		if err != nil {
			return fmt.Errorf("proposal %s: %w", state.ID, err)
		}
		p := &Proposal{
			ID:                state.ID,
			GroupID:           state.GroupID,
			Proposer:          state.Proposer,
			Kind:              state.Kind,
			Payload:           payload,
			Status:            state.Status,
			CreatedAt:         state.CreatedAt,
			DecidedAt:         state.DecidedAt,
			Voting:            state.Voting,
			LockedMemberCount: state.LockedMemberCount,
			Votes:             make(map[ref.AccountID]bool, len(state.Votes)),
		}
		for _, vote := range state.Votes {
			p.Votes[vote.Voter] = vote.Approve
		}
		proposals[p.ID] = p
	}
	e.proposals = proposals
	return nil
}

func decodePayload(kind Kind, raw codec.RawMessage) (Payload, error) {
	var target any
	switch kind {
	case KindMetadataUpdate:
		target = &MetadataUpdate{}
	case KindRemoveMember:
		target = &RemoveMember{}
	case KindBan:
		target = &Ban{}
	case KindUnban:
		target = &Unban{}
	case KindTransferOwnership:
		target = &TransferOwnership{}
	case KindPermissionChange:
		target = &PermissionChange{}
	case KindPathGrant:
		target = &PathGrant{}
	case KindPathRevoke:
		target = &PathRevoke{}
	case KindVotingChange:
		target = &VotingChange{}
	case KindJoinRequest:
		target = &JoinRequest{}
	case KindMemberInvite:
		target = &MemberInvite{}
	case KindCustom:
		target = &Custom{}
	default:
		return nil, fmt.Errorf("kind %q: %w", kind, ErrUnknownProposalType)
	}
	if err := codec.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
	}
	// The engine's type switches match value forms.
	return valueOf(target), nil
}

func valueOf(target any) Payload {
	switch v := target.(type) {
	case *MetadataUpdate:
		return *v
	case *RemoveMember:
		return *v
	case *Ban:
		return *v
	case *Unban:
		return *v
	case *TransferOwnership:
		return *v
	case *PermissionChange:
		return *v
	case *PathGrant:
		return *v
	case *PathRevoke:
		return *v
	case *VotingChange:
		return *v
	case *JoinRequest:
		return *v
	case *MemberInvite:
		return *v
	default:
		return *(target.(*Custom))
	}
}
