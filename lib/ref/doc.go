// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated identifier types for the OnSocial
// core: account IDs, ed25519 public keys, group IDs, and data paths.
//
// Every type is an immutable value constructed through a Parse
// function that validates the raw string form. The zero value is
// never valid; use IsZero to check. All types implement
// encoding.TextMarshaler and TextUnmarshaler so they serialize as
// plain strings in JSON and CBOR.
//
// Identifiers arrive from untrusted request envelopes, so validation
// happens exactly once, at the parse boundary. Code holding a ref
// value may assume it is well-formed.
package ref
