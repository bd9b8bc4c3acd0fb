// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package governance

import (
	"encoding/json"
	"fmt"

	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/group"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// Kind identifies a proposal variant. Group-update variants fold the
// wire's update_type into the kind so the engine dispatches over one
// closed set.
type Kind string

const (
	KindMetadataUpdate    Kind = "group_update/metadata"
	KindRemoveMember      Kind = "group_update/remove_member"
	KindBan               Kind = "group_update/ban"
	KindUnban             Kind = "group_update/unban"
	KindTransferOwnership Kind = "group_update/transfer_ownership"
	KindPermissionChange  Kind = "permission_change"
	KindPathGrant         Kind = "path_permission_grant"
	KindPathRevoke        Kind = "path_permission_revoke"
	KindVotingChange      Kind = "voting_config_change"
	KindJoinRequest       Kind = "join_request"
	KindMemberInvite      Kind = "member_invite"
	KindCustom            Kind = "custom_proposal"
)

// Payload is the closed set of proposal payloads. Each variant
// carries exactly the fields its execution needs.
type Payload interface {
	Kind() Kind
	isPayload()
}

// MetadataUpdate changes a group's descriptive fields.
type MetadataUpdate struct {
	Changes map[string]any `cbor:"1,keyasint"`
}

// RemoveMember expels a member by vote.
type RemoveMember struct {
	Account ref.AccountID `cbor:"1,keyasint"`
}

// Ban blacklists an account by vote.
type Ban struct {
	Account ref.AccountID `cbor:"1,keyasint"`
}

// Unban lifts a blacklist entry by vote.
type Unban struct {
	Account ref.AccountID `cbor:"1,keyasint"`
}

// TransferOwnership hands the group to a member by vote.
type TransferOwnership struct {
	NewOwner ref.AccountID `cbor:"1,keyasint"`
}

// PermissionChange sets a member's role level by vote.
type PermissionChange struct {
	Account ref.AccountID `cbor:"1,keyasint"`
	Level   acl.Level     `cbor:"2,keyasint"`
}

// PathGrant records a path-scoped grant inside the group's namespace
// by vote.
type PathGrant struct {
	Grantee   string    `cbor:"1,keyasint"`
	Path      ref.Path  `cbor:"2,keyasint"`
	Level     acl.Level `cbor:"3,keyasint"`
	ExpiresAt int64     `cbor:"4,keyasint,omitempty"`
}

// PathRevoke removes a path-scoped grant by vote.
type PathRevoke struct {
	Grantee string   `cbor:"1,keyasint"`
	Path    ref.Path `cbor:"2,keyasint"`
}

// VotingChange updates the group's voting parameters by vote.
type VotingChange struct {
	Change group.VotingChange `cbor:"1,keyasint"`
}

// JoinRequest asks the members of a member-driven group to admit the
// proposer.
type JoinRequest struct {
	Requester ref.AccountID `cbor:"1,keyasint"`
	Reason    string        `cbor:"2,keyasint,omitempty"`
}

// MemberInvite admits a named account by vote.
type MemberInvite struct {
	Account ref.AccountID `cbor:"1,keyasint"`
}

// Custom records a free-form decision with no on-chain side effect.
type Custom struct {
	Data map[string]any `cbor:"1,keyasint,omitempty"`
}

func (MetadataUpdate) Kind() Kind    { return KindMetadataUpdate }
func (RemoveMember) Kind() Kind      { return KindRemoveMember }
func (Ban) Kind() Kind               { return KindBan }
func (Unban) Kind() Kind             { return KindUnban }
func (TransferOwnership) Kind() Kind { return KindTransferOwnership }
func (PermissionChange) Kind() Kind  { return KindPermissionChange }
func (PathGrant) Kind() Kind         { return KindPathGrant }
func (PathRevoke) Kind() Kind        { return KindPathRevoke }
func (VotingChange) Kind() Kind      { return KindVotingChange }
func (JoinRequest) Kind() Kind       { return KindJoinRequest }
func (MemberInvite) Kind() Kind      { return KindMemberInvite }
func (Custom) Kind() Kind            { return KindCustom }

func (MetadataUpdate) isPayload()    {}
func (RemoveMember) isPayload()      {}
func (Ban) isPayload()               {}
func (Unban) isPayload()             {}
func (TransferOwnership) isPayload() {}
func (PermissionChange) isPayload()  {}
func (PathGrant) isPayload()         {}
func (PathRevoke) isPayload()        {}
func (VotingChange) isPayload()      {}
func (JoinRequest) isPayload()       {}
func (MemberInvite) isPayload()      {}
func (Custom) isPayload()            {}

// ParsePayload builds a typed payload from a wire proposal_type tag
// and the decoded payload object. The group_update tag additionally
// requires an update_type field inside the payload.
func ParsePayload(proposalType string, raw map[string]any) (Payload, error) {
	switch proposalType {
	case "group_update":
		updateType, ok := raw["update_type"].(string)
		if !ok || updateType == "" {
			return nil, fmt.Errorf("group_update without update_type: %w", ErrInvalidPayload)
		}
		return parseGroupUpdate(updateType, raw)
	case "permission_change":
		account, err := accountField(raw, "account")
		if err != nil {
			return nil, err
		}
		level, err := levelField(raw, "level")
		if err != nil {
			return nil, err
		}
		return PermissionChange{Account: account, Level: level}, nil
	case "path_permission_grant":
		grantee, err := stringField(raw, "grantee")
		if err != nil {
			return nil, err
		}
		path, err := pathField(raw, "path")
		if err != nil {
			return nil, err
		}
		level, err := levelField(raw, "level")
		if err != nil {
			return nil, err
		}
		expiresAt, _ := int64Field(raw, "expires_at")
		return PathGrant{Grantee: grantee, Path: path, Level: level, ExpiresAt: expiresAt}, nil
	case "path_permission_revoke":
		grantee, err := stringField(raw, "grantee")
		if err != nil {
			return nil, err
		}
		path, err := pathField(raw, "path")
		if err != nil {
			return nil, err
		}
		return PathRevoke{Grantee: grantee, Path: path}, nil
	case "voting_config_change":
		var change group.VotingChange
		if v, ok := int64Field(raw, "participation_quorum_bps"); ok {
			change.ParticipationQuorumBPS = &v
		}
		if v, ok := int64Field(raw, "approval_threshold_bps"); ok {
			change.ApprovalThresholdBPS = &v
		}
		if v, ok := int64Field(raw, "voting_period_ms"); ok {
			change.VotingPeriodMS = &v
		}
		if change.IsZero() {
			return nil, fmt.Errorf("voting_config_change: %w", ErrEmptyChanges)
		}
		return VotingChange{Change: change}, nil
	case "join_request":
		requester, err := accountField(raw, "requester")
		if err != nil {
			return nil, err
		}
		reason, _ := raw["reason"].(string)
		return JoinRequest{Requester: requester, Reason: reason}, nil
	case "member_invite":
		account, err := accountField(raw, "account")
		if err != nil {
			return nil, err
		}
		return MemberInvite{Account: account}, nil
	case "custom_proposal":
		return Custom{Data: raw}, nil
	default:
		return nil, fmt.Errorf("proposal type %q: %w", proposalType, ErrUnknownProposalType)
	}
}

func parseGroupUpdate(updateType string, raw map[string]any) (Payload, error) {
	switch updateType {
	case "metadata":
		changes, ok := raw["changes"].(map[string]any)
		if !ok || len(changes) == 0 {
			return nil, fmt.Errorf("metadata update: %w", ErrEmptyChanges)
		}
		return MetadataUpdate{Changes: changes}, nil
	case "remove_member":
		account, err := accountField(raw, "account")
		if err != nil {
			return nil, err
		}
		return RemoveMember{Account: account}, nil
	case "ban":
		account, err := accountField(raw, "account")
		if err != nil {
			return nil, err
		}
		return Ban{Account: account}, nil
	case "unban":
		account, err := accountField(raw, "account")
		if err != nil {
			return nil, err
		}
		return Unban{Account: account}, nil
	case "transfer_ownership":
		account, err := accountField(raw, "new_owner")
		if err != nil {
			return nil, err
		}
		return TransferOwnership{NewOwner: account}, nil
	default:
		return nil, fmt.Errorf("group_update type %q: %w", updateType, ErrUnknownProposalType)
	}
}

// --- field extraction helpers ------------------------------------------

func stringField(raw map[string]any, name string) (string, error) {
	s, ok := raw[name].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("missing or empty field %q: %w", name, ErrInvalidPayload)
	}
	return s, nil
}

func accountField(raw map[string]any, name string) (ref.AccountID, error) {
	s, err := stringField(raw, name)
	if err != nil {
		return ref.AccountID{}, err
	}
	account, err := ref.ParseAccountID(s)
	if err != nil {
		return ref.AccountID{}, fmt.Errorf("field %q: %v: %w", name, err, ErrInvalidPayload)
	}
	return account, nil
}

func pathField(raw map[string]any, name string) (ref.Path, error) {
	s, err := stringField(raw, name)
	if err != nil {
		return ref.Path{}, err
	}
	path, err := ref.ParsePath(s)
	if err != nil {
		return ref.Path{}, fmt.Errorf("field %q: %v: %w", name, err, ErrInvalidPayload)
	}
	return path, nil
}

func levelField(raw map[string]any, name string) (acl.Level, error) {
	n, ok := int64Field(raw, name)
	if !ok {
		return acl.LevelNone, fmt.Errorf("missing numeric field %q: %w", name, ErrInvalidPayload)
	}
	level, err := acl.ParseLevel(int(n))
	if err != nil {
		return acl.LevelNone, fmt.Errorf("%v: %w", err, ErrInvalidPayload)
	}
	return level, nil
}

// int64Field reads a numeric field that may arrive as json.Number
// (canonical decode path) or as a native numeric type (tests,
// restored state).
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
	case uint64:
		return int64(v), true
	default:
		return 0, false
	}
}
