// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package authn

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"strconv"
	"time"

	"github.com/onsocial/onsocial-core/lib/codec"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// Domain strings are versioned and bind the contract identity, so a
// signature from one contract or protocol version never verifies in
// another.
const (
	domainPrefix         = "onsocial:execute:v1:"
	delegateDomainPrefix = "onsocial:execute:delegate:v1:"
)

// Domain returns the signing domain for the signed_payload variant.
func Domain(contractID string) string { return domainPrefix + contractID }

// DelegateDomain returns the signing domain for the delegate_action
// variant.
func DelegateDomain(contractID string) string { return delegateDomainPrefix + contractID }

// Identity is an authenticated actor: the account the request targets
// and the key that proved it.
type Identity struct {
	Account ref.AccountID
	Key     ref.PublicKey
	Nonce   uint64
}

// CanonicalPayload assembles the byte sequence both signer and
// verifier hash. The top-level field order is fixed and
// non-alphabetical; values inside action and delegate_action are
// recursively key-sorted. delegate_action encodes as null when the
// variant carries none.
func CanonicalPayload(env *Envelope) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"target_account":`)
	buf.WriteString(strconv.Quote(env.TargetAccount.String()))
	buf.WriteString(`,"public_key":`)
	buf.WriteString(strconv.Quote(env.Auth.PublicKey.String()))
	buf.WriteString(`,"nonce":`)
	buf.WriteString(strconv.FormatUint(env.Auth.Nonce, 10))
	buf.WriteString(`,"expires_at_ms":`)
	buf.WriteString(strconv.FormatInt(env.Auth.ExpiresAtMS, 10))
	buf.WriteString(`,"action":`)
	if err := codec.AppendCanonicalValue(&buf, env.Action); err != nil {
		return nil, fmt.Errorf("canonicalizing action: %v: %w", err, ErrMalformedPayload)
	}
	buf.WriteString(`,"delegate_action":`)
	if err := codec.AppendCanonicalValue(&buf, env.Auth.DelegateAction); err != nil {
		return nil, fmt.Errorf("canonicalizing delegate action: %v: %w", err, ErrMalformedPayload)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Digest computes SHA-256(domain || 0x00 || payload). The zero byte
// keeps domain and payload from sliding into one another.
func Digest(domain string, payload []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write(payload)
	var digest [sha256.Size]byte
	h.Sum(digest[:0])
	return digest
}

// Verify authenticates an envelope against the contract identity and
// the stored nonce for (target account, public key). It is pure: on
// success the caller owns committing the nonce bump, and only once
// the dispatched action has succeeded.
func Verify(env *Envelope, contractID string, storedNonce uint64, now time.Time) (Identity, error) {
	if now.UnixMilli() > env.Auth.ExpiresAtMS {
		return Identity{}, fmt.Errorf("expired at %d, now %d: %w", env.Auth.ExpiresAtMS, now.UnixMilli(), ErrExpired)
	}
	if env.Auth.Nonce <= storedNonce {
		return Identity{}, fmt.Errorf("nonce %d not above stored %d: %w", env.Auth.Nonce, storedNonce, ErrReplayedNonce)
	}

	domain := Domain(contractID)
	if env.Auth.Type == AuthDelegateAction {
		domain = DelegateDomain(contractID)
	}
	payload, err := CanonicalPayload(env)
	if err != nil {
		return Identity{}, err
	}
	digest := Digest(domain, payload)

	if len(env.Auth.Signature) != ed25519.SignatureSize {
		return Identity{}, fmt.Errorf("signature length %d: %w", len(env.Auth.Signature), ErrSignatureInvalid)
	}
	if !ed25519.Verify(env.Auth.PublicKey.ED25519(), digest[:], env.Auth.Signature) {
		return Identity{}, ErrSignatureInvalid
	}
	return Identity{
		Account: env.TargetAccount,
		Key:     env.Auth.PublicKey,
		Nonce:   env.Auth.Nonce,
	}, nil
}
