// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package acl implements the path-scoped permission registry: who may
// act, at which level, on which subtree of an owner's namespace.
//
// A grant binds (owner, grantee, path) to a level and an optional
// expiry. Levels form a strict order — NONE < WRITE < MODERATE <
// MANAGE — and holding a level implies every lower level on the same
// resolved path. Granting NONE is the idiomatic revoke.
//
// # Effective-level resolution
//
// A check on a path walks the path and every strict ancestor prefix,
// taking the maximum non-expired grant level found across the walk. A
// grant on a parent therefore authorizes all descendants at that
// level, and a more specific grant never lowers what a broader
// ancestor grant already allows. Grants never leak sideways to
// sibling subtrees.
//
// Expiry is a view-time condition: an expired grant stays stored but
// evaluates as NONE.
//
// Two parallel tables exist with identical semantics: account grants
// keyed by (owner, account, path) and key grants keyed by
// (owner, public key, path) for capability delegation to a specific
// signing key rather than a whole account.
//
// The registry is deliberately target-agnostic — policy such as "only
// the namespace owner may grant" lives in the dispatcher, and the
// owner key is an account ID or a group ID depending on whose
// namespace the path belongs to.
package acl
