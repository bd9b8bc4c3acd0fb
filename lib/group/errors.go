// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package group

import "errors"

var (
	// ErrGroupNotFound reports an operation against an unknown group id.
	ErrGroupNotFound = errors.New("group not found")

	// ErrInvalidGroupID reports a group id outside the allowed
	// character class.
	ErrInvalidGroupID = errors.New("invalid group id")

	// ErrDuplicateGroupID reports creation against an id already taken.
	ErrDuplicateGroupID = errors.New("group id already exists")

	// ErrMemberDrivenPublic reports an attempt to create a
	// member-driven group with privacy explicitly disabled.
	ErrMemberDrivenPublic = errors.New("member-driven group cannot be public")

	// ErrNotMember reports an operation requiring membership by a
	// non-member, or targeting a non-member.
	ErrNotMember = errors.New("account is not a group member")

	// ErrAlreadyMember reports joining or adding an account that is
	// already a member.
	ErrAlreadyMember = errors.New("account is already a group member")

	// ErrBlacklisted reports an operation involving a blacklisted
	// account.
	ErrBlacklisted = errors.New("account is blacklisted")

	// ErrNotBlacklisted reports unblacklisting an account that is not
	// on the blacklist.
	ErrNotBlacklisted = errors.New("account is not blacklisted")

	// ErrNotOwner reports an owner-only operation by a non-owner.
	ErrNotOwner = errors.New("caller is not the group owner")

	// ErrOwnerCannotLeave reports the owner trying to leave their own
	// group. Ownership must be transferred first.
	ErrOwnerCannotLeave = errors.New("owner cannot leave their own group")

	// ErrOwnerImmutable reports a membership mutation targeting the
	// owner.
	ErrOwnerImmutable = errors.New("operation cannot target the group owner")

	// ErrGovernanceRequired reports a direct mutation that must flow
	// through a proposal on this group.
	ErrGovernanceRequired = errors.New("operation requires a governance proposal")

	// ErrInsufficientLevel reports a caller below the level an
	// operation requires.
	ErrInsufficientLevel = errors.New("insufficient permission level")

	// ErrJoinRequestNotFound reports a decision on a join request that
	// does not exist.
	ErrJoinRequestNotFound = errors.New("join request not found")

	// ErrJoinRequestTerminal reports a decision on a join request
	// already in a terminal state.
	ErrJoinRequestTerminal = errors.New("join request already decided")

	// ErrJoinRequestPending reports filing a join request while a
	// pending one exists.
	ErrJoinRequestPending = errors.New("join request already pending")

	// ErrOutOfRange reports a voting parameter outside its allowed
	// bounds.
	ErrOutOfRange = errors.New("voting parameter out of range")

	// ErrInvalidTransferTarget reports an ownership transfer to the
	// current owner.
	ErrInvalidTransferTarget = errors.New("ownership transfer target is already the owner")
)
