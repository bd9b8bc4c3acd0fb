// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/authn"
	"github.com/onsocial/onsocial-core/lib/clock"
	"github.com/onsocial/onsocial-core/lib/dispatch"
	"github.com/onsocial/onsocial-core/lib/governance"
	"github.com/onsocial/onsocial-core/lib/group"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// Core is the assembled authorization and governance state: all
// registries, the dispatcher, and the nonce table, bound to one
// contract identity.
type Core struct {
	contractID string
	clock      clock.Clock

	perms      *acl.Registry
	groups     *group.Registry
	proposals  *governance.Engine
	nonces     *authn.NonceRegistry
	dispatcher *dispatch.Dispatcher
}

// New assembles an empty core for a contract identity.
func New(contractID string, clk clock.Clock) *Core {
	perms := acl.NewRegistry()
	groups := group.NewRegistry(perms)
	proposals := governance.NewEngine(groups)
	return &Core{
		contractID: contractID,
		clock:      clk,
		perms:      perms,
		groups:     groups,
		proposals:  proposals,
		nonces:     authn.NewNonceRegistry(),
		dispatcher: dispatch.NewDispatcher(perms, groups, proposals),
	}
}

// SetVotingDefaults replaces the voting config seeded into groups
// created without an explicit one.
func (c *Core) SetVotingDefaults(cfg group.VotingConfig) error {
	return c.groups.SetVotingDefaults(cfg)
}

// Execute runs one signed request end to end: parse, authenticate,
// dispatch, and, only on success, commit the nonce.
func (c *Core) Execute(envelopeJSON []byte) (*dispatch.Result, error) {
	env, err := authn.ParseEnvelope(envelopeJSON)
	if err != nil {
		return nil, err
	}
	now := c.clock.Now()

	stored := c.nonces.Get(env.TargetAccount, env.Auth.PublicKey)
	identity, err := authn.Verify(env, c.contractID, stored, now)
	if err != nil {
		return nil, err
	}

	action, err := dispatch.ParseAction(env.Action)
	if err != nil {
		return nil, err
	}
	result, err := c.dispatcher.Dispatch(identity.Account, action, now)
	if err != nil {
		return nil, err
	}

	c.nonces.Commit(identity.Account, identity.Key, identity.Nonce)
	return result, nil
}

// --- read-only queries -------------------------------------------------

// HasPermission reports whether grantee holds required on
// (owner, path) right now.
func (c *Core) HasPermission(owner, grantee string, path ref.Path, required acl.Level) bool {
	return c.perms.Check(owner, grantee, path, required, c.clock.Now())
}

// HasKeyPermission is HasPermission for a key-scoped grant.
func (c *Core) HasKeyPermission(owner string, key ref.PublicKey, path ref.Path, required acl.Level) bool {
	return c.perms.CheckKey(owner, key, path, required, c.clock.Now())
}

// GetPermissions lists the stored grants from owner to grantee.
func (c *Core) GetPermissions(owner, grantee string) []acl.Grant {
	return c.perms.GrantsFor(owner, grantee)
}

// GetGroupConfig returns a group's configuration.
func (c *Core) GetGroupConfig(id ref.GroupID) (group.Config, error) {
	return c.groups.GetConfig(id)
}

// GetGroupStats returns a group's summary counters.
func (c *Core) GetGroupStats(id ref.GroupID) (group.Stats, error) {
	return c.groups.GetStats(id)
}

// IsGroupMember reports membership, owner included.
func (c *Core) IsGroupMember(id ref.GroupID, account ref.AccountID) bool {
	return c.groups.IsMember(id, account)
}

// IsGroupOwner reports ownership.
func (c *Core) IsGroupOwner(id ref.GroupID, account ref.AccountID) bool {
	return c.groups.IsOwner(id, account)
}

// IsBlacklisted reports whether account is banned from the group.
func (c *Core) IsBlacklisted(id ref.GroupID, account ref.AccountID) bool {
	return c.groups.IsBlacklisted(id, account)
}

// HasGroupAdminPermission reports MANAGE on the group's config path.
func (c *Core) HasGroupAdminPermission(id ref.GroupID, account ref.AccountID) bool {
	return c.groups.HasAdminPermission(id, account, c.clock.Now())
}

// HasGroupModeratePermission reports MODERATE on the group's config
// path.
func (c *Core) HasGroupModeratePermission(id ref.GroupID, account ref.AccountID) bool {
	return c.groups.HasModeratePermission(id, account, c.clock.Now())
}

// GetMemberData returns account's member record, if any.
func (c *Core) GetMemberData(id ref.GroupID, account ref.AccountID) (group.Member, bool) {
	return c.groups.MemberData(id, account)
}

// GetJoinRequest returns the stored join request for requester, if
// any.
func (c *Core) GetJoinRequest(id ref.GroupID, requester ref.AccountID) (group.JoinRequest, bool) {
	return c.groups.GetJoinRequest(id, requester)
}

// GetProposal returns a proposal for inspection.
func (c *Core) GetProposal(id ref.GroupID, proposalID string) (*governance.Proposal, error) {
	return c.proposals.GetProposal(id, proposalID)
}

// GetProposalTally computes a proposal's current tally.
func (c *Core) GetProposalTally(id ref.GroupID, proposalID string) (governance.Tally, error) {
	return c.proposals.GetTally(id, proposalID)
}

// GetVote returns a member's recorded vote, if any.
func (c *Core) GetVote(id ref.GroupID, proposalID string, voter ref.AccountID) (approve, voted bool, err error) {
	return c.proposals.GetVote(id, proposalID, voter)
}

// Nonce returns the stored nonce for (account, key).
func (c *Core) Nonce(account ref.AccountID, key ref.PublicKey) uint64 {
	return c.nonces.Get(account, key)
}
