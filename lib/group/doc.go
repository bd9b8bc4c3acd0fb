// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package group implements the group registry: configuration,
// membership, roles, blacklists, and join requests for the
// groups/{id} namespaces.
//
// Groups come in three shapes. Public groups admit anyone not
// blacklisted. Private groups admit through a moderator-handled join
// request queue. Member-driven groups are always private and change
// shape only through governance proposals; every direct membership or
// ownership mutation on them fails with ErrGovernanceRequired.
//
// Roles are permission levels from package acl stored on the member
// record: WRITE is an ordinary member, MODERATE a moderator, MANAGE
// an admin. The owner holds full access implicitly and never appears
// in the role table. Authorization inside a group namespace resolves
// as the maximum of the caller's role level and any explicit
// path-scoped grants held in the shared permission registry under the
// group's own namespace.
//
// The Apply* methods are the governance execution surface: they
// perform the same mutations as the caller-checked operations but
// skip authorization, because a passed vote is the authorization.
// The proposal engine is their only intended caller.
package group
