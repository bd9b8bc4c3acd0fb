// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists core snapshots in SQLite.
//
// The store is a write-behind of committed state: the daemon executes
// a request against the in-memory core first and calls Save only after
// the request succeeds. Save rewrites the snapshot tables in a single
// IMMEDIATE transaction, so a crash mid-write leaves the previous
// snapshot intact. Load rebuilds a snapshot for state.Core.Restore on
// startup.
//
// Rows carry their natural keys as columns for ad-hoc inspection, with
// the full record stored as a CBOR blob in the same deterministic
// encoding the snapshot types use everywhere else.
package store
