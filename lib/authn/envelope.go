// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package authn

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/onsocial/onsocial-core/lib/ref"
)

// AuthType selects the signing variant.
type AuthType string

const (
	// AuthSignedPayload is a directly signed request.
	AuthSignedPayload AuthType = "signed_payload"

	// AuthDelegateAction additionally folds a delegation descriptor
	// into the signed content.
	AuthDelegateAction AuthType = "delegate_action"
)

// Auth is the authentication block of an envelope.
type Auth struct {
	Type        AuthType
	PublicKey   ref.PublicKey
	Nonce       uint64
	ExpiresAtMS int64
	Signature   []byte

	// DelegateAction carries the delegation descriptor for the
	// delegate_action variant, nil otherwise. Decoded with
	// json.Number values so canonicalization is byte-exact.
	DelegateAction any
}

// Envelope is one relayed request: the account being acted on, the
// requested action, and the proof of who asked.
type Envelope struct {
	TargetAccount ref.AccountID

	// Action is the decoded action object, json.Number-valued.
	Action any

	Auth Auth
}

// ParseEnvelope decodes a request envelope from its wire JSON,
// preserving number tokens for canonicalization. Every structural
// failure wraps ErrMalformedPayload.
func ParseEnvelope(data []byte) (*Envelope, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding envelope: %v: %w", err, ErrMalformedPayload)
	}
	if decoder.More() {
		return nil, fmt.Errorf("trailing data after envelope: %w", ErrMalformedPayload)
	}

	target, err := accountField(raw, "target_account")
	if err != nil {
		return nil, err
	}
	action, ok := raw["action"]
	if !ok {
		return nil, fmt.Errorf("missing field %q: %w", "action", ErrMalformedPayload)
	}
	authRaw, ok := raw["auth"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing or malformed field %q: %w", "auth", ErrMalformedPayload)
	}

	auth, err := parseAuth(authRaw)
	if err != nil {
		return nil, err
	}
	return &Envelope{TargetAccount: target, Action: action, Auth: auth}, nil
}

func parseAuth(raw map[string]any) (Auth, error) {
	authType, ok := raw["type"].(string)
	if !ok {
		return Auth{}, fmt.Errorf("missing field %q: %w", "auth.type", ErrMalformedPayload)
	}
	switch AuthType(authType) {
	case AuthSignedPayload, AuthDelegateAction:
	default:
		return Auth{}, fmt.Errorf("auth type %q: %w", authType, ErrMalformedPayload)
	}

	keyRaw, ok := raw["public_key"].(string)
	if !ok {
		return Auth{}, fmt.Errorf("missing field %q: %w", "auth.public_key", ErrMalformedPayload)
	}
	key, err := ref.ParsePublicKey(keyRaw)
	if err != nil {
		return Auth{}, fmt.Errorf("auth.public_key: %v: %w", err, ErrMalformedPayload)
	}

	nonce, err := uintField(raw, "nonce")
	if err != nil {
		return Auth{}, err
	}
	expiresAt, err := intField(raw, "expires_at_ms")
	if err != nil {
		return Auth{}, err
	}

	signatureRaw, ok := raw["signature"].(string)
	if !ok {
		return Auth{}, fmt.Errorf("missing field %q: %w", "auth.signature", ErrMalformedPayload)
	}
	signature, err := base64.StdEncoding.DecodeString(signatureRaw)
	if err != nil {
		return Auth{}, fmt.Errorf("auth.signature: %v: %w", err, ErrMalformedPayload)
	}

	auth := Auth{
		Type:        AuthType(authType),
		PublicKey:   key,
		Nonce:       nonce,
		ExpiresAtMS: expiresAt,
		Signature:   signature,
	}

	delegate, hasDelegate := raw["action"]
	if auth.Type == AuthDelegateAction {
		if !hasDelegate {
			return Auth{}, fmt.Errorf("delegate_action auth without auth.action: %w", ErrMalformedPayload)
		}
		auth.DelegateAction = delegate
	} else if hasDelegate {
		return Auth{}, fmt.Errorf("signed_payload auth with auth.action: %w", ErrMalformedPayload)
	}
	return auth, nil
}

func accountField(raw map[string]any, name string) (ref.AccountID, error) {
	s, ok := raw[name].(string)
	if !ok {
		return ref.AccountID{}, fmt.Errorf("missing field %q: %w", name, ErrMalformedPayload)
	}
	account, err := ref.ParseAccountID(s)
	if err != nil {
		return ref.AccountID{}, fmt.Errorf("field %q: %v: %w", name, err, ErrMalformedPayload)
	}
	return account, nil
}

func uintField(raw map[string]any, name string) (uint64, error) {
	number, ok := raw[name].(json.Number)
	if !ok {
		return 0, fmt.Errorf("missing numeric field %q: %w", "auth."+name, ErrMalformedPayload)
	}
	n, err := number.Int64()
	if err != nil || n < 0 {
		return 0, fmt.Errorf("field %q = %s: %w", "auth."+name, number, ErrMalformedPayload)
	}
	return uint64(n), nil
}

func intField(raw map[string]any, name string) (int64, error) {
	number, ok := raw[name].(json.Number)
	if !ok {
		return 0, fmt.Errorf("missing numeric field %q: %w", "auth."+name, ErrMalformedPayload)
	}
	n, err := number.Int64()
	if err != nil {
		return 0, fmt.Errorf("field %q = %s: %w", "auth."+name, number, ErrMalformedPayload)
	}
	return n, nil
}
