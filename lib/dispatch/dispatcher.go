// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"
	"sort"
	"time"

	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/governance"
	"github.com/onsocial/onsocial-core/lib/group"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// Write is one authorized data write, addressed to the external data
// store.
type Write struct {
	Owner string   `json:"owner"`
	Path  ref.Path `json:"path"`
	Value any      `json:"value"`
}

// ExternalOp is a recognized structured operation passed through to
// the external accounting collaborator, unapplied here.
type ExternalOp struct {
	Key   string   `json:"key"`
	Class KeyClass `json:"class"`
	Value any      `json:"value"`
}

// Result is the effect of one dispatched action. Only the fields the
// action produces are set.
type Result struct {
	Writes      []Write              `json:"writes,omitempty"`
	ExternalOps []ExternalOp         `json:"external_ops,omitempty"`
	JoinOutcome group.JoinOutcome    `json:"join_outcome,omitempty"`
	Proposal    *governance.Proposal `json:"proposal,omitempty"`
	Tally       *governance.Tally    `json:"tally,omitempty"`
}

// Dispatcher routes authenticated actions to the registries.
type Dispatcher struct {
	perms     *acl.Registry
	groups    *group.Registry
	proposals *governance.Engine
}

// NewDispatcher wires a dispatcher over the shared registries.
func NewDispatcher(perms *acl.Registry, groups *group.Registry, proposals *governance.Engine) *Dispatcher {
	return &Dispatcher{perms: perms, groups: groups, proposals: proposals}
}

// Dispatch authorizes and applies one action for an authenticated
// actor. Checks run before any mutation, so a failed action leaves
// every registry untouched.
func (d *Dispatcher) Dispatch(actor ref.AccountID, action Action, now time.Time) (*Result, error) {
	switch a := action.(type) {
	case Set:
		return d.dispatchSet(actor, a, now)

	case CreateGroup:
		if err := d.groups.CreateGroup(actor, a.GroupID, a.Params, now); err != nil {
			return nil, err
		}
		return &Result{}, nil

	case JoinGroup:
		outcome, err := d.groups.JoinGroup(actor, a.GroupID, a.Reason, now)
		if err != nil {
			return nil, err
		}
		return &Result{JoinOutcome: outcome}, nil

	case LeaveGroup:
		return &Result{}, d.groups.LeaveGroup(actor, a.GroupID)

	case AddGroupMember:
		return &Result{}, d.groups.AddMember(actor, a.GroupID, a.Account, a.Level, now)

	case RemoveGroupMember:
		return &Result{}, d.groups.RemoveMember(actor, a.GroupID, a.Account, now)

	case BlacklistGroupMember:
		return &Result{}, d.groups.Blacklist(actor, a.GroupID, a.Account, now)

	case UnblacklistGroupMember:
		return &Result{}, d.groups.Unblacklist(actor, a.GroupID, a.Account, now)

	case SetGroupPrivacy:
		return &Result{}, d.groups.SetPrivacy(actor, a.GroupID, a.IsPrivate)

	case TransferGroupOwnership:
		return &Result{}, d.groups.TransferOwnership(actor, a.GroupID, a.NewOwner, now)

	case SetPermission:
		// Grants attach to the actor's own namespace, so ownership of
		// the granted path is structural.
		d.perms.Grant(actor.String(), a.Grantee, a.Path, a.Level, a.ExpiresAt)
		return &Result{}, nil

	case SetKeyPermission:
		d.perms.GrantKey(actor.String(), a.Key, a.Path, a.Level, a.ExpiresAt)
		return &Result{}, nil

	case CreateProposal:
		payload, err := governance.ParsePayload(a.ProposalType, a.Payload)
		if err != nil {
			return nil, err
		}
		proposal, err := d.proposals.Create(actor, a.GroupID, payload, a.AutoVote, now)
		if err != nil {
			return nil, err
		}
		return &Result{Proposal: proposal}, nil

	case VoteOnProposal:
		tally, err := d.proposals.Vote(actor, a.GroupID, a.ProposalID, a.Approve, now)
		if err != nil {
			return nil, err
		}
		return &Result{Tally: &tally}, nil

	case CancelProposal:
		return &Result{}, d.proposals.Cancel(actor, a.GroupID, a.ProposalID, now)

	case ApproveJoinRequest:
		return &Result{}, d.groups.ApproveJoinRequest(actor, a.GroupID, a.Requester, now)

	case RejectJoinRequest:
		return &Result{}, d.groups.RejectJoinRequest(actor, a.GroupID, a.Requester, now)

	case CancelJoinRequest:
		return &Result{}, d.groups.CancelJoinRequest(actor, a.GroupID, now)

	default:
		return nil, fmt.Errorf("action %T: %w", action, ErrUnknownAction)
	}
}

// dispatchSet classifies and authorizes every key before emitting a
// single write, keeping the action all-or-nothing.
func (d *Dispatcher) dispatchSet(actor ref.AccountID, a Set, now time.Time) (*Result, error) {
	keys := make([]string, 0, len(a.Data))
	for key := range a.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := &Result{}
	for _, key := range keys {
		class, err := ClassifyKey(key)
		if err != nil {
			return nil, err
		}
		if class != KeyData {
			result.ExternalOps = append(result.ExternalOps, ExternalOp{Key: key, Class: class, Value: a.Data[key]})
			continue
		}

		path, err := ref.ParsePath(key)
		if err != nil {
			return nil, fmt.Errorf("key %q: %v: %w", key, err, ErrMalformedAction)
		}
		owner, err := d.authorizeWrite(actor, path, now)
		if err != nil {
			return nil, err
		}
		result.Writes = append(result.Writes, Write{Owner: owner, Path: path, Value: a.Data[key]})
	}
	return result, nil
}

// authorizeWrite resolves which namespace a data path belongs to and
// checks the actor's level there. Paths under groups/{id} resolve
// through the group registry; everything else is the actor's own
// namespace, where the actor holds MANAGE implicitly.
func (d *Dispatcher) authorizeWrite(actor ref.AccountID, path ref.Path, now time.Time) (string, error) {
	segments := path.Segments()
	if segments[0] != "groups" {
		return actor.String(), nil
	}
	if len(segments) < 3 {
		return "", fmt.Errorf("path %q: group data lives under groups/{id}/...: %w", path, ErrMalformedAction)
	}
	gid, err := ref.ParseGroupID(segments[1])
	if err != nil {
		return "", fmt.Errorf("path %q: %v: %w", path, err, ErrMalformedAction)
	}
	if !d.groups.Exists(gid) {
		return "", fmt.Errorf("path %q: %w", path, group.ErrGroupNotFound)
	}

	// The config subtree holds group administration data; ordinary
	// members cannot write it.
	required := acl.LevelWrite
	if path.HasPrefix(group.ConfigPath(gid)) {
		required = acl.LevelManage
	}
	if got := d.groups.EffectiveLevel(gid, actor, path, now); !got.AtLeast(required) {
		return "", fmt.Errorf("path %q: have %s, need %s: %w", path, got, required, ErrInsufficientLevel)
	}
	return gid.String(), nil
}
