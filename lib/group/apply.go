// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package group

import (
	"fmt"
	"time"

	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// Apply* methods execute passed proposals. They skip caller
// authorization and the member-driven governance gate: the vote that
// passed is the authorization. Validation of the mutation itself still
// applies, so a stale proposal (target joined or got banned since
// creation) surfaces the same sentinel errors as a direct call and
// the proposal engine decides how to absorb them.

// ApplyMetadata updates the group's descriptive fields from a
// metadata-change map. Only recognized keys take effect.
func (r *Registry) ApplyMetadata(id ref.GroupID, changes map[string]any) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if description, ok := changes["description"].(string); ok {
		rec.config.Description = description
	}
	return nil
}

// ApplyInvite admits an invited account as an ordinary member.
func (r *Registry) ApplyInvite(id ref.GroupID, account ref.AccountID, invitedBy ref.AccountID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	return rec.admit(id, account, acl.LevelWrite, invitedBy, now)
}

// ApplyJoin admits a join-request proposal's requester.
func (r *Registry) ApplyJoin(id ref.GroupID, requester ref.AccountID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	return rec.admit(id, requester, acl.LevelWrite, requester, now)
}

// ApplyRemoveMember expels a member.
func (r *Registry) ApplyRemoveMember(id ref.GroupID, account ref.AccountID) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	return rec.expel(id, account)
}

// ApplyBan blacklists an account, removing any membership.
func (r *Registry) ApplyBan(id ref.GroupID, account ref.AccountID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	return rec.ban(id, account, rec.config.Owner, now)
}

// ApplyUnban lifts a blacklist entry.
func (r *Registry) ApplyUnban(id ref.GroupID, account ref.AccountID) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	return rec.unban(id, account)
}

// ApplyTransferOwnership hands the group to a current member.
func (r *Registry) ApplyTransferOwnership(id ref.GroupID, newOwner ref.AccountID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	return rec.transfer(id, newOwner, now)
}

// ApplyVotingChange merges a partial voting-config update.
func (r *Registry) ApplyVotingChange(id ref.GroupID, change VotingChange) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	merged, err := change.ApplyTo(rec.config.Voting)
	if err != nil {
		return fmt.Errorf("group %q: %w", id, err)
	}
	rec.config.Voting = merged
	return nil
}

// ApplyRoleChange sets a member's role level. LevelNone leaves the
// account a member with no role authority.
func (r *Registry) ApplyRoleChange(id ref.GroupID, account ref.AccountID, level acl.Level) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if rec.config.Owner == account {
		return fmt.Errorf("group %q: %w", id, ErrOwnerImmutable)
	}
	member, ok := rec.members[account]
	if !ok {
		return fmt.Errorf("group %q: %s: %w", id, account, ErrNotMember)
	}
	member.Level = level
	rec.members[account] = member
	return nil
}

// ApplyPathGrant records an explicit path-scoped grant inside the
// group's namespace.
func (r *Registry) ApplyPathGrant(id ref.GroupID, grantee string, path ref.Path, level acl.Level, expiresAt int64) error {
	if _, err := r.get(id); err != nil {
		return err
	}
	r.perms.Grant(id.String(), grantee, path, level, expiresAt)
	return nil
}

// ApplyPathRevoke removes an explicit path-scoped grant.
func (r *Registry) ApplyPathRevoke(id ref.GroupID, grantee string, path ref.Path) error {
	if _, err := r.get(id); err != nil {
		return err
	}
	r.perms.Grant(id.String(), grantee, path, acl.LevelNone, 0)
	return nil
}
