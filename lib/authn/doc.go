// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package authn verifies signed request envelopes arriving through
// the meta-transaction relay.
//
// The signed message is SHA-256 over domain || 0x00 || canonical
// payload. The domain binds the contract identity and the auth
// variant, so a signature produced for one contract, protocol
// version, or variant never verifies in another context. The
// canonical payload is a JSON object with a fixed, non-alphabetical
// top-level field order (target_account, public_key, nonce,
// expires_at_ms, action, delegate_action) and recursively sorted keys
// inside the action values, making the digest byte-identical between
// signer and verifier regardless of map iteration order on either
// side.
//
// Verify is pure: it checks expiry, nonce freshness, and the
// signature against a caller-supplied stored nonce and returns an
// identity, touching nothing. The caller commits the nonce bump
// through NonceRegistry only after the dispatched action succeeds, so
// a failed action never consumes the nonce.
package authn
