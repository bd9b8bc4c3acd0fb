// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"
)

// publicKeyPrefix is the curve tag on the text form of a public key.
// Only ed25519 keys are accepted; the signing scheme is fixed by the
// protocol, not negotiated per request.
const publicKeyPrefix = "ed25519:"

// PublicKey is a validated ed25519 public key. The text form is
// "ed25519:" followed by the standard base64 encoding of the 32 raw
// key bytes (e.g., "ed25519:3Jd9...").
//
// PublicKey is an immutable value type. The zero value is not valid;
// use IsZero to check.
type PublicKey struct {
	key string // base64 of the raw key bytes, without the prefix
}

// ParsePublicKey validates and wraps a raw public key string.
func ParsePublicKey(raw string) (PublicKey, error) {
	encoded, ok := strings.CutPrefix(raw, publicKeyPrefix)
	if !ok {
		return PublicKey{}, fmt.Errorf("public key %q: missing %q prefix", raw, publicKeyPrefix)
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return PublicKey{}, fmt.Errorf("public key %q: invalid base64: %w", raw, err)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return PublicKey{}, fmt.Errorf("public key %q: %d bytes, want %d", raw, len(decoded), ed25519.PublicKeySize)
	}
	return PublicKey{key: encoded}, nil
}

// FromED25519 wraps an ed25519 public key value. Panics if the key has
// the wrong length, which indicates a programming error rather than
// bad input.
func FromED25519(key ed25519.PublicKey) PublicKey {
	if len(key) != ed25519.PublicKeySize {
		panic(fmt.Sprintf("ref.FromED25519: %d bytes, want %d", len(key), ed25519.PublicKeySize))
	}
	return PublicKey{key: base64.StdEncoding.EncodeToString(key)}
}

// String returns the full text form including the "ed25519:" prefix.
func (k PublicKey) String() string {
	if k.key == "" {
		return ""
	}
	return publicKeyPrefix + k.key
}

// IsZero reports whether the PublicKey is the zero value.
func (k PublicKey) IsZero() bool { return k.key == "" }

// ED25519 returns the raw key bytes for signature verification.
// Panics if called on a zero-value PublicKey.
func (k PublicKey) ED25519() ed25519.PublicKey {
	if k.key == "" {
		panic("PublicKey.ED25519 called on zero value")
	}
	decoded, err := base64.StdEncoding.DecodeString(k.key)
	if err != nil {
		// Validated at construction — this is unreachable.
		panic(fmt.Sprintf("PublicKey.ED25519: internal error decoding %q: %v", k.key, err))
	}
	return ed25519.PublicKey(decoded)
}

// MarshalText implements encoding.TextMarshaler.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset key).
func (k *PublicKey) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*k = PublicKey{}
		return nil
	}
	parsed, err := ParsePublicKey(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
