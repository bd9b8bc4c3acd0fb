// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package authn

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/onsocial/onsocial-core/lib/ref"
)

const testContract = "core.onsocial.near"

var testNow = time.UnixMilli(1_700_000_000_000)

func testKeyPair(seed byte) (ed25519.PrivateKey, ref.PublicKey) {
	raw := make([]byte, ed25519.SeedSize)
	for i := range raw {
		raw[i] = seed
	}
	private := ed25519.NewKeyFromSeed(raw)
	return private, ref.FromED25519(private.Public().(ed25519.PublicKey))
}

// signedEnvelope builds a wire envelope, signs its canonical digest
// under the right domain for its auth type, and returns the parsed
// result.
func signedEnvelope(t *testing.T, private ed25519.PrivateKey, public ref.PublicKey, nonce uint64, expiresAt int64, actionJSON, delegateJSON string) *Envelope {
	t.Helper()

	authType := AuthSignedPayload
	authAction := ""
	if delegateJSON != "" {
		authType = AuthDelegateAction
		authAction = fmt.Sprintf(`,"action":%s`, delegateJSON)
	}
	wire := fmt.Sprintf(
		`{"target_account":"alice.near","action":%s,"auth":{"type":%q,"public_key":%q,"nonce":%d,"expires_at_ms":%d,"signature":""%s}}`,
		actionJSON, authType, public, nonce, expiresAt, authAction,
	)
	env, err := ParseEnvelope([]byte(wire))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}

	payload, err := CanonicalPayload(env)
	if err != nil {
		t.Fatalf("CanonicalPayload: %v", err)
	}
	domain := Domain(testContract)
	if authType == AuthDelegateAction {
		domain = DelegateDomain(testContract)
	}
	digest := Digest(domain, payload)
	env.Auth.Signature = ed25519.Sign(private, digest[:])
	return env
}

func TestVerifySignedPayload(t *testing.T) {
	private, public := testKeyPair(1)
	env := signedEnvelope(t, private, public, 7, testNow.Add(time.Minute).UnixMilli(), `{"type":"set","data":{"profile/name":"Alice"}}`, "")

	identity, err := Verify(env, testContract, 0, testNow)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if identity.Account != ref.MustAccountID("alice.near") || identity.Key != public || identity.Nonce != 7 {
		t.Errorf("identity = %+v", identity)
	}
}

func TestCanonicalPayloadFieldOrderAndStability(t *testing.T) {
	private, public := testKeyPair(1)
	expiresAt := testNow.Add(time.Minute).UnixMilli()

	a := signedEnvelope(t, private, public, 7, expiresAt, `{"type":"set","data":{"p/x":1}}`, "")
	b := signedEnvelope(t, private, public, 7, expiresAt, `{"data":{"p/x":1},"type":"set"}`, "")

	pa, err := CanonicalPayload(a)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := CanonicalPayload(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pa, pb) {
		t.Errorf("canonical payloads differ:\n  %s\n  %s", pa, pb)
	}

	want := fmt.Sprintf(
		`{"target_account":"alice.near","public_key":%q,"nonce":7,"expires_at_ms":%d,"action":{"data":{"p/x":1},"type":"set"},"delegate_action":null}`,
		public, expiresAt,
	)
	if string(pa) != want {
		t.Errorf("canonical payload = %s\nwant %s", pa, want)
	}

	// A signature over one ordering verifies an envelope parsed from
	// the other.
	b.Auth.Signature = a.Auth.Signature
	if _, err := Verify(b, testContract, 0, testNow); err != nil {
		t.Errorf("cross-ordering Verify: %v", err)
	}
}

func TestVerifyDelegateAction(t *testing.T) {
	private, public := testKeyPair(2)
	env := signedEnvelope(t, private, public, 3, testNow.Add(time.Minute).UnixMilli(),
		`{"type":"set","data":{"posts/1":"hi"}}`,
		`{"delegate_to":"relay.near","max_uses":1}`)

	if _, err := Verify(env, testContract, 0, testNow); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// The same signature must not verify under the plain domain.
	env.Auth.Type = AuthSignedPayload
	if _, err := Verify(env, testContract, 0, testNow); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("cross-variant Verify error = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyDomainBindsContract(t *testing.T) {
	private, public := testKeyPair(1)
	env := signedEnvelope(t, private, public, 1, testNow.Add(time.Minute).UnixMilli(), `{"type":"set","data":{"a/b":1}}`, "")

	if _, err := Verify(env, "other.onsocial.near", 0, testNow); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("cross-contract Verify error = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	private, public := testKeyPair(1)
	env := signedEnvelope(t, private, public, 1, testNow.Add(-time.Second).UnixMilli(), `{"type":"set","data":{"a/b":1}}`, "")

	if _, err := Verify(env, testContract, 0, testNow); !errors.Is(err, ErrExpired) {
		t.Errorf("Verify error = %v, want ErrExpired", err)
	}
}

func TestVerifyReplayedNonce(t *testing.T) {
	private, public := testKeyPair(1)
	env := signedEnvelope(t, private, public, 5, testNow.Add(time.Minute).UnixMilli(), `{"type":"set","data":{"a/b":1}}`, "")

	for _, stored := range []uint64{5, 9} {
		if _, err := Verify(env, testContract, stored, testNow); !errors.Is(err, ErrReplayedNonce) {
			t.Errorf("stored nonce %d: error = %v, want ErrReplayedNonce", stored, err)
		}
	}
	if _, err := Verify(env, testContract, 4, testNow); err != nil {
		t.Errorf("stored nonce 4: %v", err)
	}
}

func TestVerifyTamperedAction(t *testing.T) {
	private, public := testKeyPair(1)
	env := signedEnvelope(t, private, public, 1, testNow.Add(time.Minute).UnixMilli(), `{"type":"set","data":{"a/b":1}}`, "")

	env.Action = map[string]any{"type": "set", "data": map[string]any{"a/b": "tampered"}}
	if _, err := Verify(env, testContract, 0, testNow); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("tampered Verify error = %v, want ErrSignatureInvalid", err)
	}
}

func TestParseEnvelopeMalformed(t *testing.T) {
	_, public := testKeyPair(1)
	signature := base64.StdEncoding.EncodeToString(make([]byte, ed25519.SignatureSize))

	cases := []struct {
		name string
		wire string
	}{
		{"not json", `{{`},
		{"missing auth", `{"target_account":"alice.near","action":{}}`},
		{"bad auth type", fmt.Sprintf(`{"target_account":"alice.near","action":{},"auth":{"type":"session","public_key":%q,"nonce":1,"expires_at_ms":1,"signature":%q}}`, public, signature)},
		{"missing action", fmt.Sprintf(`{"target_account":"alice.near","auth":{"type":"signed_payload","public_key":%q,"nonce":1,"expires_at_ms":1,"signature":%q}}`, public, signature)},
		{"bad account", fmt.Sprintf(`{"target_account":"UPPER","action":{},"auth":{"type":"signed_payload","public_key":%q,"nonce":1,"expires_at_ms":1,"signature":%q}}`, public, signature)},
		{"string nonce", fmt.Sprintf(`{"target_account":"alice.near","action":{},"auth":{"type":"signed_payload","public_key":%q,"nonce":"1","expires_at_ms":1,"signature":%q}}`, public, signature)},
		{"delegate without descriptor", fmt.Sprintf(`{"target_account":"alice.near","action":{},"auth":{"type":"delegate_action","public_key":%q,"nonce":1,"expires_at_ms":1,"signature":%q}}`, public, signature)},
		{"signed with descriptor", fmt.Sprintf(`{"target_account":"alice.near","action":{},"auth":{"type":"signed_payload","public_key":%q,"nonce":1,"expires_at_ms":1,"signature":%q,"action":{}}}`, public, signature)},
		{"trailing data", `{"target_account":"alice.near","action":{}} garbage`},
	}
	for _, tc := range cases {
		if _, err := ParseEnvelope([]byte(tc.wire)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("%s: error = %v, want ErrMalformedPayload", tc.name, err)
		}
	}
}

func TestNonceRegistry(t *testing.T) {
	r := NewNonceRegistry()
	alice := ref.MustAccountID("alice.near")
	_, key1 := testKeyPair(1)
	_, key2 := testKeyPair(2)

	if got := r.Get(alice, key1); got != 0 {
		t.Errorf("fresh nonce = %d, want 0", got)
	}
	r.Commit(alice, key1, 7)
	if got := r.Get(alice, key1); got != 7 {
		t.Errorf("nonce = %d, want 7", got)
	}
	// Nonces are tracked per key, not per account.
	if got := r.Get(alice, key2); got != 0 {
		t.Errorf("other-key nonce = %d, want 0", got)
	}

	restored := NewNonceRegistry()
	restored.Restore(r.Export())
	if got := restored.Get(alice, key1); got != 7 {
		t.Errorf("restored nonce = %d, want 7", got)
	}
}
