// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package authn

import "errors"

var (
	// ErrSignatureInvalid reports a signature that does not verify
	// against the canonical digest.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrExpired reports an envelope past its expiry timestamp.
	ErrExpired = errors.New("request expired")

	// ErrReplayedNonce reports a nonce at or below the last accepted
	// one for the signing key.
	ErrReplayedNonce = errors.New("nonce already used")

	// ErrMalformedPayload reports an envelope with missing or
	// structurally wrong fields.
	ErrMalformedPayload = errors.New("malformed request envelope")
)
