// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the two deterministic encodings the core
// depends on:
//
//   - CBOR with Core Deterministic Encoding (RFC 8949 §4.2) for
//     persisted state: grant tables, group records, proposals, and
//     snapshots. Same logical data always produces identical bytes.
//
//   - Canonical JSON for signing digests: object keys recursively
//     sorted so the signer and the verifier compute byte-identical
//     payloads regardless of map iteration order on either side. The
//     request envelope additionally fixes its top-level field order,
//     which the authn package assembles field by field.
//
// Consumers import only this package, never the CBOR library
// directly.
package codec
