// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/group"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// Action is the closed set of mutating actions a request may carry.
type Action interface {
	Type() string
	isAction()
}

// Set writes a map of data keys to values.
type Set struct {
	Data map[string]any
}

// CreateGroup registers a new group owned by the actor.
type CreateGroup struct {
	GroupID ref.GroupID
	Params  group.CreateParams
}

// JoinGroup joins or files a join request, depending on the group's
// shape.
type JoinGroup struct {
	GroupID ref.GroupID
	Reason  string
}

// LeaveGroup removes the actor's own membership.
type LeaveGroup struct {
	GroupID ref.GroupID
}

// AddGroupMember admits an account at a role level.
type AddGroupMember struct {
	GroupID ref.GroupID
	Account ref.AccountID
	Level   acl.Level
}

// RemoveGroupMember expels a member.
type RemoveGroupMember struct {
	GroupID ref.GroupID
	Account ref.AccountID
}

// BlacklistGroupMember bans an account.
type BlacklistGroupMember struct {
	GroupID ref.GroupID
	Account ref.AccountID
}

// UnblacklistGroupMember lifts a ban.
type UnblacklistGroupMember struct {
	GroupID ref.GroupID
	Account ref.AccountID
}

// SetGroupPrivacy toggles a group's privacy.
type SetGroupPrivacy struct {
	GroupID   ref.GroupID
	IsPrivate bool
}

// TransferGroupOwnership hands a group to a member.
type TransferGroupOwnership struct {
	GroupID  ref.GroupID
	NewOwner ref.AccountID
}

// SetPermission grants or revokes a path-scoped permission on the
// actor's own namespace.
type SetPermission struct {
	Grantee   string
	Path      ref.Path
	Level     acl.Level
	ExpiresAt int64
}

// SetKeyPermission grants or revokes a key-scoped permission on the
// actor's own namespace.
type SetKeyPermission struct {
	Key       ref.PublicKey
	Path      ref.Path
	Level     acl.Level
	ExpiresAt int64
}

// CreateProposal opens a governance proposal. The payload stays raw
// here; the proposal engine parses it against the proposal type.
type CreateProposal struct {
	GroupID      ref.GroupID
	ProposalType string
	Payload      map[string]any
	AutoVote     bool
}

// VoteOnProposal records a vote.
type VoteOnProposal struct {
	GroupID    ref.GroupID
	ProposalID string
	Approve    bool
}

// CancelProposal withdraws a proposal.
type CancelProposal struct {
	GroupID    ref.GroupID
	ProposalID string
}

// ApproveJoinRequest admits a pending requester.
type ApproveJoinRequest struct {
	GroupID   ref.GroupID
	Requester ref.AccountID
}

// RejectJoinRequest declines a pending requester.
type RejectJoinRequest struct {
	GroupID   ref.GroupID
	Requester ref.AccountID
}

// CancelJoinRequest withdraws the actor's own pending request.
type CancelJoinRequest struct {
	GroupID ref.GroupID
}

func (Set) Type() string                    { return "set" }
func (CreateGroup) Type() string            { return "create_group" }
func (JoinGroup) Type() string              { return "join_group" }
func (LeaveGroup) Type() string             { return "leave_group" }
func (AddGroupMember) Type() string         { return "add_group_member" }
func (RemoveGroupMember) Type() string      { return "remove_group_member" }
func (BlacklistGroupMember) Type() string   { return "blacklist_group_member" }
func (UnblacklistGroupMember) Type() string { return "unblacklist_group_member" }
func (SetGroupPrivacy) Type() string        { return "set_group_privacy" }
func (TransferGroupOwnership) Type() string { return "transfer_group_ownership" }
func (SetPermission) Type() string          { return "set_permission" }
func (SetKeyPermission) Type() string       { return "set_key_permission" }
func (CreateProposal) Type() string         { return "create_proposal" }
func (VoteOnProposal) Type() string         { return "vote_on_proposal" }
func (CancelProposal) Type() string         { return "cancel_proposal" }
func (ApproveJoinRequest) Type() string     { return "approve_join_request" }
func (RejectJoinRequest) Type() string      { return "reject_join_request" }
func (CancelJoinRequest) Type() string      { return "cancel_join_request" }

func (Set) isAction()                    {}
func (CreateGroup) isAction()            {}
func (JoinGroup) isAction()              {}
func (LeaveGroup) isAction()             {}
func (AddGroupMember) isAction()         {}
func (RemoveGroupMember) isAction()      {}
func (BlacklistGroupMember) isAction()   {}
func (UnblacklistGroupMember) isAction() {}
func (SetGroupPrivacy) isAction()        {}
func (TransferGroupOwnership) isAction() {}
func (SetPermission) isAction()          {}
func (SetKeyPermission) isAction()       {}
func (CreateProposal) isAction()         {}
func (VoteOnProposal) isAction()         {}
func (CancelProposal) isAction()         {}
func (ApproveJoinRequest) isAction()     {}
func (RejectJoinRequest) isAction()      {}
func (CancelJoinRequest) isAction()      {}

// ParseAction builds a typed action from a decoded action object (the
// envelope's action field, json.Number-valued).
func ParseAction(value any) (Action, error) {
	raw, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("action must be an object, got %T: %w", value, ErrMalformedAction)
	}
	tag, ok := raw["type"].(string)
	if !ok || tag == "" {
		return nil, fmt.Errorf("missing action type tag: %w", ErrMalformedAction)
	}

	switch tag {
	case "set":
		data, ok := raw["data"].(map[string]any)
		if !ok || len(data) == 0 {
			return nil, fmt.Errorf("set without a non-empty data object: %w", ErrMalformedAction)
		}
		return Set{Data: data}, nil

	case "create_group":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		params := group.CreateParams{}
		if v, ok := raw["is_private"].(bool); ok {
			params.IsPrivate = &v
		}
		params.MemberDriven, _ = raw["member_driven"].(bool)
		params.Description, _ = raw["description"].(string)
		if votingRaw, ok := raw["voting_config"].(map[string]any); ok {
			voting := group.DefaultVotingConfig()
			if v, ok := int64Field(votingRaw, "participation_quorum_bps"); ok {
				voting.ParticipationQuorumBPS = v
			}
			if v, ok := int64Field(votingRaw, "approval_threshold_bps"); ok {
				voting.ApprovalThresholdBPS = v
			}
			if v, ok := int64Field(votingRaw, "voting_period_ms"); ok {
				voting.VotingPeriodMS = v
			}
			params.Voting = &voting
		}
		return CreateGroup{GroupID: gid, Params: params}, nil

	case "join_group":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		reason, _ := raw["reason"].(string)
		return JoinGroup{GroupID: gid, Reason: reason}, nil

	case "leave_group":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		return LeaveGroup{GroupID: gid}, nil

	case "add_group_member":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		account, err := accountField(raw, "account")
		if err != nil {
			return nil, err
		}
		level := acl.LevelWrite
		if n, ok := int64Field(raw, "level"); ok {
			level, err = acl.ParseLevel(int(n))
			if err != nil {
				return nil, fmt.Errorf("%v: %w", err, ErrMalformedAction)
			}
		}
		return AddGroupMember{GroupID: gid, Account: account, Level: level}, nil

	case "remove_group_member":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		account, err := accountField(raw, "account")
		if err != nil {
			return nil, err
		}
		return RemoveGroupMember{GroupID: gid, Account: account}, nil

	case "blacklist_group_member":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		account, err := accountField(raw, "account")
		if err != nil {
			return nil, err
		}
		return BlacklistGroupMember{GroupID: gid, Account: account}, nil

	case "unblacklist_group_member":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		account, err := accountField(raw, "account")
		if err != nil {
			return nil, err
		}
		return UnblacklistGroupMember{GroupID: gid, Account: account}, nil

	case "set_group_privacy":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		private, ok := raw["is_private"].(bool)
		if !ok {
			return nil, fmt.Errorf("missing field %q: %w", "is_private", ErrMalformedAction)
		}
		return SetGroupPrivacy{GroupID: gid, IsPrivate: private}, nil

	case "transfer_group_ownership":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		newOwner, err := accountField(raw, "new_owner")
		if err != nil {
			return nil, err
		}
		return TransferGroupOwnership{GroupID: gid, NewOwner: newOwner}, nil

	case "set_permission":
		grantee, ok := raw["grantee"].(string)
		if !ok || grantee == "" {
			return nil, fmt.Errorf("missing field %q: %w", "grantee", ErrMalformedAction)
		}
		path, level, expiresAt, err := grantFields(raw)
		if err != nil {
			return nil, err
		}
		return SetPermission{Grantee: grantee, Path: path, Level: level, ExpiresAt: expiresAt}, nil

	case "set_key_permission":
		keyRaw, ok := raw["public_key"].(string)
		if !ok {
			return nil, fmt.Errorf("missing field %q: %w", "public_key", ErrMalformedAction)
		}
		key, err := ref.ParsePublicKey(keyRaw)
		if err != nil {
			return nil, fmt.Errorf("public_key: %v: %w", err, ErrMalformedAction)
		}
		path, level, expiresAt, err := grantFields(raw)
		if err != nil {
			return nil, err
		}
		return SetKeyPermission{Key: key, Path: path, Level: level, ExpiresAt: expiresAt}, nil

	case "create_proposal":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		proposalType, ok := raw["proposal_type"].(string)
		if !ok || proposalType == "" {
			return nil, fmt.Errorf("missing field %q: %w", "proposal_type", ErrMalformedAction)
		}
		payload, _ := raw["payload"].(map[string]any)
		autoVote, _ := raw["auto_vote"].(bool)
		return CreateProposal{GroupID: gid, ProposalType: proposalType, Payload: payload, AutoVote: autoVote}, nil

	case "vote_on_proposal":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		proposalID, ok := raw["proposal_id"].(string)
		if !ok || proposalID == "" {
			return nil, fmt.Errorf("missing field %q: %w", "proposal_id", ErrMalformedAction)
		}
		approve, ok := raw["approve"].(bool)
		if !ok {
			return nil, fmt.Errorf("missing field %q: %w", "approve", ErrMalformedAction)
		}
		return VoteOnProposal{GroupID: gid, ProposalID: proposalID, Approve: approve}, nil

	case "cancel_proposal":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		proposalID, ok := raw["proposal_id"].(string)
		if !ok || proposalID == "" {
			return nil, fmt.Errorf("missing field %q: %w", "proposal_id", ErrMalformedAction)
		}
		return CancelProposal{GroupID: gid, ProposalID: proposalID}, nil

	case "approve_join_request":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		requester, err := accountField(raw, "requester")
		if err != nil {
			return nil, err
		}
		return ApproveJoinRequest{GroupID: gid, Requester: requester}, nil

	case "reject_join_request":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		requester, err := accountField(raw, "requester")
		if err != nil {
			return nil, err
		}
		return RejectJoinRequest{GroupID: gid, Requester: requester}, nil

	case "cancel_join_request":
		gid, err := groupField(raw)
		if err != nil {
			return nil, err
		}
		return CancelJoinRequest{GroupID: gid}, nil

	default:
		return nil, fmt.Errorf("action type %q: %w", tag, ErrUnknownAction)
	}
}

func groupField(raw map[string]any) (ref.GroupID, error) {
	s, ok := raw["group_id"].(string)
	if !ok || s == "" {
		return ref.GroupID{}, fmt.Errorf("missing field %q: %w", "group_id", ErrMalformedAction)
	}
	gid, err := ref.ParseGroupID(s)
	if err != nil {
		return ref.GroupID{}, fmt.Errorf("group_id: %v: %w", err, group.ErrInvalidGroupID)
	}
	return gid, nil
}

func accountField(raw map[string]any, name string) (ref.AccountID, error) {
	s, ok := raw[name].(string)
	if !ok || s == "" {
		return ref.AccountID{}, fmt.Errorf("missing field %q: %w", name, ErrMalformedAction)
	}
	account, err := ref.ParseAccountID(s)
	if err != nil {
		return ref.AccountID{}, fmt.Errorf("field %q: %v: %w", name, err, ErrMalformedAction)
	}
	return account, nil
}

func grantFields(raw map[string]any) (ref.Path, acl.Level, int64, error) {
	pathRaw, ok := raw["path"].(string)
	if !ok || pathRaw == "" {
		return ref.Path{}, acl.LevelNone, 0, fmt.Errorf("missing field %q: %w", "path", ErrMalformedAction)
	}
	path, err := ref.ParsePath(pathRaw)
	if err != nil {
		return ref.Path{}, acl.LevelNone, 0, fmt.Errorf("path: %v: %w", err, ErrMalformedAction)
	}
	n, ok := int64Field(raw, "level")
	if !ok {
		return ref.Path{}, acl.LevelNone, 0, fmt.Errorf("missing numeric field %q: %w", "level", ErrMalformedAction)
	}
	level, err := acl.ParseLevel(int(n))
	if err != nil {
		return ref.Path{}, acl.LevelNone, 0, fmt.Errorf("%v: %w", err, ErrMalformedAction)
	}
	expiresAt, _ := int64Field(raw, "expires_at")
	return path, level, expiresAt, nil
}

func int64Field(raw map[string]any, name string) (int64, bool) {
	switch v := raw[name].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
