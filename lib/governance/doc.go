// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package governance implements the proposal engine: creation,
// voting, quorum evaluation, execution, and cancellation of group
// governance proposals.
//
// A proposal snapshots two things at creation and never re-reads
// them: the group's voting config and the member count (the locked
// member count, which stays the quorum denominator even as membership
// changes). Votes are yes/no, one per member, members only, and only
// from accounts that were already members when the proposal opened.
//
// After every vote the engine evaluates the tally against the
// snapshot. A proposal passes when yes/locked reaches the approval
// threshold and total/locked reaches the participation quorum, both
// in basis points with integer arithmetic. It fails early the moment
// defeat is mathematically certain, without waiting for the remaining
// votes. A single-member group trivially satisfies both bars, so an
// auto-voted proposal there executes at creation.
//
// Passed proposals execute through the group registry's Apply*
// surface with authorization bypassed; the vote is the authorization.
// Invite and join-request executions that have gone stale (the target
// joined or was banned since creation) finish as ExecutedSkipped
// rather than failing the whole vote.
package governance
