// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/authn"
	"github.com/onsocial/onsocial-core/lib/clock"
	"github.com/onsocial/onsocial-core/lib/dispatch"
	"github.com/onsocial/onsocial-core/lib/ref"
	"github.com/onsocial/onsocial-core/lib/testutil"
)

const testContract = "core.onsocial.near"

var testNow = time.UnixMilli(1_700_000_000_000)

func newTestCore() (*Core, *clock.FakeClock) {
	fake := clock.Fake(testNow)
	return New(testContract, fake), fake
}

func TestExecuteSignedSet(t *testing.T) {
	core, _ := newTestCore()
	private, public := testutil.KeyPair(1)

	envelope := testutil.SignedEnvelope(t, private, public, testutil.EnvelopeParams{
		ContractID:    testContract,
		TargetAccount: "alice.near",
		Nonce:         1,
		ExpiresAtMS:   testNow.Add(time.Minute).UnixMilli(),
		ActionJSON:    `{"type":"set","data":{"profile/name":"Alice"}}`,
	})
	result, err := core.Execute(envelope)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Writes) != 1 || result.Writes[0].Path.String() != "profile/name" {
		t.Errorf("writes = %+v", result.Writes)
	}
	if got := core.Nonce(ref.MustAccountID("alice.near"), public); got != 1 {
		t.Errorf("nonce = %d, want 1 after success", got)
	}
}

func TestExecuteRejectsReplay(t *testing.T) {
	core, _ := newTestCore()
	private, public := testutil.KeyPair(1)

	envelope := testutil.SignedEnvelope(t, private, public, testutil.EnvelopeParams{
		ContractID:    testContract,
		TargetAccount: "alice.near",
		Nonce:         1,
		ExpiresAtMS:   testNow.Add(time.Minute).UnixMilli(),
		ActionJSON:    `{"type":"set","data":{"profile/name":"Alice"}}`,
	})
	if _, err := core.Execute(envelope); err != nil {
		t.Fatal(err)
	}
	if _, err := core.Execute(envelope); !errors.Is(err, authn.ErrReplayedNonce) {
		t.Errorf("replay error = %v, want ErrReplayedNonce", err)
	}
}

func TestExecuteFailedActionKeepsNonce(t *testing.T) {
	core, _ := newTestCore()
	private, public := testutil.KeyPair(1)
	alice := ref.MustAccountID("alice.near")

	// A reserved key makes the action fail after authentication
	// succeeds.
	bad := testutil.SignedEnvelope(t, private, public, testutil.EnvelopeParams{
		ContractID:    testContract,
		TargetAccount: "alice.near",
		Nonce:         1,
		ExpiresAtMS:   testNow.Add(time.Minute).UnixMilli(),
		ActionJSON:    `{"type":"set","data":{"config":1}}`,
	})
	if _, err := core.Execute(bad); !errors.Is(err, dispatch.ErrReservedKey) {
		t.Fatalf("error = %v, want ErrReservedKey", err)
	}
	if got := core.Nonce(alice, public); got != 0 {
		t.Fatalf("nonce = %d, want 0 after failed action", got)
	}

	// The same nonce is still usable once the action is fixed.
	good := testutil.SignedEnvelope(t, private, public, testutil.EnvelopeParams{
		ContractID:    testContract,
		TargetAccount: "alice.near",
		Nonce:         1,
		ExpiresAtMS:   testNow.Add(time.Minute).UnixMilli(),
		ActionJSON:    `{"type":"set","data":{"profile/name":"Alice"}}`,
	})
	if _, err := core.Execute(good); err != nil {
		t.Fatalf("retry with same nonce: %v", err)
	}
	if got := core.Nonce(alice, public); got != 1 {
		t.Errorf("nonce = %d, want 1", got)
	}
}

func TestExecuteExpiredEnvelope(t *testing.T) {
	core, fake := newTestCore()
	private, public := testutil.KeyPair(1)

	envelope := testutil.SignedEnvelope(t, private, public, testutil.EnvelopeParams{
		ContractID:    testContract,
		TargetAccount: "alice.near",
		Nonce:         1,
		ExpiresAtMS:   testNow.Add(time.Minute).UnixMilli(),
		ActionJSON:    `{"type":"set","data":{"profile/name":"Alice"}}`,
	})
	fake.Advance(2 * time.Minute)
	if _, err := core.Execute(envelope); !errors.Is(err, authn.ErrExpired) {
		t.Errorf("error = %v, want ErrExpired", err)
	}
}

func TestExecuteDelegateAction(t *testing.T) {
	core, _ := newTestCore()
	private, public := testutil.KeyPair(2)

	envelope := testutil.SignedEnvelope(t, private, public, testutil.EnvelopeParams{
		ContractID:    testContract,
		TargetAccount: "bob.near",
		Nonce:         1,
		ExpiresAtMS:   testNow.Add(time.Minute).UnixMilli(),
		ActionJSON:    `{"type":"set","data":{"posts/1":"hi"}}`,
		DelegateJSON:  `{"delegate_to":"relay.near"}`,
	})
	if _, err := core.Execute(envelope); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

// TestGovernanceFlowEndToEnd drives a member-driven group from
// creation through a passed proposal entirely with signed requests.
func TestGovernanceFlowEndToEnd(t *testing.T) {
	core, _ := newTestCore()
	alicePriv, alicePub := testutil.KeyPair(1)
	bobPriv, bobPub := testutil.KeyPair(2)
	gid := ref.MustGroupID("dao")

	execute := func(t *testing.T, private ed25519.PrivateKey, public ref.PublicKey, target string, nonce uint64, actionJSON string) *dispatch.Result {
		t.Helper()
		envelope := testutil.SignedEnvelope(t, private, public, testutil.EnvelopeParams{
			ContractID:    testContract,
			TargetAccount: target,
			Nonce:         nonce,
			ExpiresAtMS:   testNow.Add(time.Minute).UnixMilli(),
			ActionJSON:    actionJSON,
		})
		result, err := core.Execute(envelope)
		if err != nil {
			t.Fatalf("Execute(%s): %v", actionJSON, err)
		}
		return result
	}

	execute(t, alicePriv, alicePub, "alice.near", 1,
		`{"type":"create_group","group_id":"dao","member_driven":true}`)

	result := execute(t, alicePriv, alicePub, "alice.near", 2,
		`{"type":"create_proposal","group_id":"dao","proposal_type":"member_invite","payload":{"account":"bob.near"},"auto_vote":true}`)
	if !core.IsGroupMember(gid, ref.MustAccountID("bob.near")) {
		t.Fatalf("solo auto-vote should have admitted bob, proposal = %+v", result.Proposal)
	}

	result = execute(t, bobPriv, bobPub, "bob.near", 1,
		`{"type":"create_proposal","group_id":"dao","proposal_type":"group_update","payload":{"update_type":"metadata","changes":{"description":"governed"}}}`)
	proposalID := result.Proposal.ID

	execute(t, alicePriv, alicePub, "alice.near", 3,
		`{"type":"vote_on_proposal","group_id":"dao","proposal_id":"`+proposalID+`","approve":true}`)
	execute(t, bobPriv, bobPub, "bob.near", 2,
		`{"type":"vote_on_proposal","group_id":"dao","proposal_id":"`+proposalID+`","approve":true}`)

	config, err := core.GetGroupConfig(gid)
	if err != nil {
		t.Fatal(err)
	}
	if config.Description != "governed" {
		t.Errorf("description = %q, want %q", config.Description, "governed")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	core, _ := newTestCore()
	private, public := testutil.KeyPair(1)

	steps := []string{
		`{"type":"create_group","group_id":"devs","description":"builders"}`,
		`{"type":"set_permission","grantee":"bob.near","path":"posts","level":1}`,
		`{"type":"create_proposal","group_id":"devs","proposal_type":"custom_proposal","payload":{"topic":"logo"}}`,
	}
	for i, actionJSON := range steps {
		envelope := testutil.SignedEnvelope(t, private, public, testutil.EnvelopeParams{
			ContractID:    testContract,
			TargetAccount: "alice.near",
			Nonce:         uint64(i + 1),
			ExpiresAtMS:   testNow.Add(time.Minute).UnixMilli(),
			ActionJSON:    actionJSON,
		})
		if _, err := core.Execute(envelope); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	snapshot, err := core.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restored := New(testContract, clock.Fake(testNow))
	if err := restored.Restore(snapshot); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	gid := ref.MustGroupID("devs")
	if !restored.IsGroupOwner(gid, ref.MustAccountID("alice.near")) {
		t.Error("restored core lost group ownership")
	}
	if !restored.HasPermission("alice.near", "bob.near", ref.MustPath("posts/x"), acl.LevelWrite) {
		t.Error("restored core lost the grant")
	}
	if _, err := restored.GetProposal(gid, "devs_1"); err != nil {
		t.Errorf("restored core lost the proposal: %v", err)
	}
	if got := restored.Nonce(ref.MustAccountID("alice.near"), public); got != 3 {
		t.Errorf("restored nonce = %d, want 3", got)
	}

	// A replayed old request fails against the restored core too.
	envelope := testutil.SignedEnvelope(t, private, public, testutil.EnvelopeParams{
		ContractID:    testContract,
		TargetAccount: "alice.near",
		Nonce:         2,
		ExpiresAtMS:   testNow.Add(time.Minute).UnixMilli(),
		ActionJSON:    `{"type":"set","data":{"profile/name":"A"}}`,
	})
	if _, err := restored.Execute(envelope); !errors.Is(err, authn.ErrReplayedNonce) {
		t.Errorf("replay on restored core error = %v, want ErrReplayedNonce", err)
	}

}
