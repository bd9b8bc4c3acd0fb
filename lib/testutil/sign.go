// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/onsocial/onsocial-core/lib/authn"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// KeyPair returns a deterministic ed25519 keypair derived from seed.
func KeyPair(seed byte) (ed25519.PrivateKey, ref.PublicKey) {
	raw := make([]byte, ed25519.SeedSize)
	for i := range raw {
		raw[i] = seed
	}
	private := ed25519.NewKeyFromSeed(raw)
	return private, ref.FromED25519(private.Public().(ed25519.PublicKey))
}

// EnvelopeParams describe one signed request to build.
type EnvelopeParams struct {
	ContractID    string
	TargetAccount string
	Nonce         uint64
	ExpiresAtMS   int64

	// ActionJSON is the action object as wire JSON.
	ActionJSON string

	// DelegateJSON, when non-empty, switches to the delegate_action
	// variant with this descriptor folded into the signed content.
	DelegateJSON string
}

// SignedEnvelope builds a wire envelope and signs its canonical
// digest under the domain matching its auth variant.
func SignedEnvelope(t *testing.T, private ed25519.PrivateKey, public ref.PublicKey, params EnvelopeParams) []byte {
	t.Helper()

	authType := authn.AuthSignedPayload
	authAction := ""
	if params.DelegateJSON != "" {
		authType = authn.AuthDelegateAction
		authAction = fmt.Sprintf(`,"action":%s`, params.DelegateJSON)
	}
	unsigned := fmt.Sprintf(
		`{"target_account":%q,"action":%s,"auth":{"type":%q,"public_key":%q,"nonce":%d,"expires_at_ms":%d,"signature":""%s}}`,
		params.TargetAccount, params.ActionJSON, authType, public, params.Nonce, params.ExpiresAtMS, authAction,
	)

	env, err := authn.ParseEnvelope([]byte(unsigned))
	if err != nil {
		t.Fatalf("building envelope: %v", err)
	}
	payload, err := authn.CanonicalPayload(env)
	if err != nil {
		t.Fatalf("canonicalizing envelope: %v", err)
	}
	domain := authn.Domain(params.ContractID)
	if authType == authn.AuthDelegateAction {
		domain = authn.DelegateDomain(params.ContractID)
	}
	digest := authn.Digest(domain, payload)
	signature := base64.StdEncoding.EncodeToString(ed25519.Sign(private, digest[:]))

	signed := fmt.Sprintf(
		`{"target_account":%q,"action":%s,"auth":{"type":%q,"public_key":%q,"nonce":%d,"expires_at_ms":%d,"signature":%q%s}}`,
		params.TargetAccount, params.ActionJSON, authType, public, params.Nonce, params.ExpiresAtMS, signature, authAction,
	)
	return []byte(signed)
}
