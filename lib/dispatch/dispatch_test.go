// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/governance"
	"github.com/onsocial/onsocial-core/lib/group"
	"github.com/onsocial/onsocial-core/lib/ref"
)

var (
	alice = ref.MustAccountID("alice.near")
	bob   = ref.MustAccountID("bob.near")

	testNow = time.UnixMilli(1_700_000_000_000)
)

func newTestDispatcher() (*Dispatcher, *acl.Registry, *group.Registry) {
	perms := acl.NewRegistry()
	groups := group.NewRegistry(perms)
	return NewDispatcher(perms, groups, governance.NewEngine(groups)), perms, groups
}

// decodeAction parses a wire action the way the daemon does, with
// number tokens preserved.
func decodeAction(t *testing.T, wire string) Action {
	t.Helper()
	decoder := json.NewDecoder(bytes.NewReader([]byte(wire)))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		t.Fatalf("decoding action: %v", err)
	}
	action, err := ParseAction(value)
	if err != nil {
		t.Fatalf("ParseAction: %v", err)
	}
	return action
}

func TestClassifyKey(t *testing.T) {
	cases := []struct {
		key   string
		class KeyClass
		err   error
	}{
		{"profile/name", KeyData, nil},
		{"groups/devs/posts/1", KeyData, nil},
		{"config", "", ErrReservedKey},
		{"manager", "", ErrReservedKey},
		{"status/read_only", "", ErrReservedKey},
		{"status/live", "", ErrReservedKey},
		{"status/activate", "", ErrReservedKey},
		{"storage/deposit", KeyStorageDeposit, nil},
		{"storage/withdraw", KeyStorageWithdraw, nil},
		{"storage/shared_pool_deposit", KeyStorageSharedPoolDeposit, nil},
		{"permission/grant", KeyPermissionGrant, nil},
		{"permission/revoke", KeyPermissionRevoke, nil},
		{"storage/steal_everything", "", ErrUnknownSubKey},
		{"permission/escalate", "", ErrUnknownSubKey},
		{"status/other", "", ErrUnknownSubKey},
		{"profile", "", ErrMissingSlash},
		{"status", "", ErrMissingSlash},
	}
	for _, tc := range cases {
		class, err := ClassifyKey(tc.key)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("ClassifyKey(%q) error = %v, want %v", tc.key, err, tc.err)
			}
			continue
		}
		if err != nil || class != tc.class {
			t.Errorf("ClassifyKey(%q) = %v, %v; want %v", tc.key, class, err, tc.class)
		}
	}
}

func TestSetOwnNamespace(t *testing.T) {
	d, _, _ := newTestDispatcher()

	action := decodeAction(t, `{"type":"set","data":{"profile/name":"Alice","posts/1":{"text":"hi"}}}`)
	result, err := d.Dispatch(alice, action, testNow)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(result.Writes) != 2 {
		t.Fatalf("writes = %d, want 2", len(result.Writes))
	}
	for _, write := range result.Writes {
		if write.Owner != alice.String() {
			t.Errorf("write owner = %q, want alice.near", write.Owner)
		}
	}
}

func TestSetReservedKeysRejected(t *testing.T) {
	d, _, _ := newTestDispatcher()

	cases := []struct {
		wire string
		want error
	}{
		{`{"type":"set","data":{"config":1}}`, ErrReservedKey},
		{`{"type":"set","data":{"status/read_only":true}}`, ErrReservedKey},
		{`{"type":"set","data":{"profile":1}}`, ErrMissingSlash},
		{`{"type":"set","data":{"storage/unknown":1}}`, ErrUnknownSubKey},
	}
	for _, tc := range cases {
		_, err := d.Dispatch(alice, decodeAction(t, tc.wire), testNow)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.wire, err, tc.want)
		}
	}
}

func TestSetStructuredKeysPassThrough(t *testing.T) {
	d, _, _ := newTestDispatcher()

	action := decodeAction(t, `{"type":"set","data":{"storage/deposit":{"amount":"1000"},"profile/bio":"dev"}}`)
	result, err := d.Dispatch(alice, action, testNow)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(result.ExternalOps) != 1 || result.ExternalOps[0].Class != KeyStorageDeposit {
		t.Errorf("external ops = %+v", result.ExternalOps)
	}
	if len(result.Writes) != 1 || result.Writes[0].Path.String() != "profile/bio" {
		t.Errorf("writes = %+v", result.Writes)
	}
}

func TestSetGroupNamespaceChecksMembership(t *testing.T) {
	d, _, groups := newTestDispatcher()
	gid := ref.MustGroupID("devs")
	if err := groups.CreateGroup(alice, gid, group.CreateParams{}, testNow); err != nil {
		t.Fatal(err)
	}

	wire := `{"type":"set","data":{"groups/devs/posts/1":"hello"}}`

	// A non-member cannot write group data.
	if _, err := d.Dispatch(bob, decodeAction(t, wire), testNow); !errors.Is(err, ErrInsufficientLevel) {
		t.Errorf("outsider write error = %v, want ErrInsufficientLevel", err)
	}

	if _, err := groups.JoinGroup(bob, gid, "", testNow); err != nil {
		t.Fatal(err)
	}
	result, err := d.Dispatch(bob, decodeAction(t, wire), testNow)
	if err != nil {
		t.Fatalf("member write: %v", err)
	}
	if result.Writes[0].Owner != "devs" {
		t.Errorf("write owner = %q, want devs", result.Writes[0].Owner)
	}

	// The config subtree needs MANAGE, which a plain member lacks.
	configWire := `{"type":"set","data":{"groups/devs/config/theme":"dark"}}`
	if _, err := d.Dispatch(bob, decodeAction(t, configWire), testNow); !errors.Is(err, ErrInsufficientLevel) {
		t.Errorf("member config write error = %v, want ErrInsufficientLevel", err)
	}
	if _, err := d.Dispatch(alice, decodeAction(t, configWire), testNow); err != nil {
		t.Errorf("owner config write: %v", err)
	}

	// Unknown group.
	if _, err := d.Dispatch(alice, decodeAction(t, `{"type":"set","data":{"groups/ghost/x/y":1}}`), testNow); !errors.Is(err, group.ErrGroupNotFound) {
		t.Errorf("unknown group error = %v, want ErrGroupNotFound", err)
	}
}

func TestSetPermissionGrantsOnOwnNamespace(t *testing.T) {
	d, perms, _ := newTestDispatcher()

	action := decodeAction(t, `{"type":"set_permission","grantee":"bob.near","path":"posts","level":1}`)
	if _, err := d.Dispatch(alice, action, testNow); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !perms.Check(alice.String(), bob.String(), ref.MustPath("posts/2026"), acl.LevelWrite, testNow) {
		t.Error("grant should cover descendants of posts")
	}
	// The grant landed in alice's namespace, nobody else's.
	if perms.Check(bob.String(), bob.String(), ref.MustPath("posts"), acl.LevelWrite, testNow) {
		t.Error("grant leaked outside the actor's namespace")
	}

	// Level 0 revokes.
	revoke := decodeAction(t, `{"type":"set_permission","grantee":"bob.near","path":"posts","level":0}`)
	if _, err := d.Dispatch(alice, revoke, testNow); err != nil {
		t.Fatal(err)
	}
	if perms.Check(alice.String(), bob.String(), ref.MustPath("posts"), acl.LevelWrite, testNow) {
		t.Error("revoke did not take effect")
	}
}

func TestSetKeyPermission(t *testing.T) {
	d, perms, _ := newTestDispatcher()
	key := ref.FromED25519(bytes.Repeat([]byte{7}, 32))

	wire := `{"type":"set_key_permission","public_key":"` + key.String() + `","path":"feed","level":1,"expires_at":1700003600000}`
	if _, err := d.Dispatch(alice, decodeAction(t, wire), testNow); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !perms.CheckKey(alice.String(), key, ref.MustPath("feed/today"), acl.LevelWrite, testNow) {
		t.Error("key grant should be live before expiry")
	}
	if perms.CheckKey(alice.String(), key, ref.MustPath("feed/today"), acl.LevelWrite, testNow.Add(2*time.Hour)) {
		t.Error("key grant should be dead after expiry")
	}
}

func TestGroupActionsEndToEnd(t *testing.T) {
	d, _, groups := newTestDispatcher()

	if _, err := d.Dispatch(alice, decodeAction(t, `{"type":"create_group","group_id":"devs","description":"builders"}`), testNow); err != nil {
		t.Fatalf("create_group: %v", err)
	}
	result, err := d.Dispatch(bob, decodeAction(t, `{"type":"join_group","group_id":"devs"}`), testNow)
	if err != nil {
		t.Fatalf("join_group: %v", err)
	}
	if result.JoinOutcome != group.JoinedImmediately {
		t.Errorf("join outcome = %v", result.JoinOutcome)
	}
	if _, err := d.Dispatch(alice, decodeAction(t, `{"type":"blacklist_group_member","group_id":"devs","account":"bob.near"}`), testNow); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if !groups.IsBlacklisted(ref.MustGroupID("devs"), bob) {
		t.Error("bob should be blacklisted")
	}
}

func TestProposalActionsEndToEnd(t *testing.T) {
	d, _, groups := newTestDispatcher()
	gid := ref.MustGroupID("dao")
	if err := groups.CreateGroup(alice, gid, group.CreateParams{MemberDriven: true}, testNow.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	// Solo group: auto-voted invite executes at creation.
	wire := `{"type":"create_proposal","group_id":"dao","proposal_type":"member_invite","payload":{"account":"bob.near"},"auto_vote":true}`
	result, err := d.Dispatch(alice, decodeAction(t, wire), testNow)
	if err != nil {
		t.Fatalf("create_proposal: %v", err)
	}
	if result.Proposal.Status != governance.StatusExecuted {
		t.Errorf("proposal status = %v, want executed", result.Proposal.Status)
	}
	if !groups.IsMember(gid, bob) {
		t.Error("invite should have admitted bob")
	}

	// Two members now; a vote on a fresh proposal returns a tally.
	wire = `{"type":"create_proposal","group_id":"dao","proposal_type":"custom_proposal","payload":{"topic":"logo"}}`
	result, err = d.Dispatch(alice, decodeAction(t, wire), testNow)
	if err != nil {
		t.Fatal(err)
	}
	voteWire := `{"type":"vote_on_proposal","group_id":"dao","proposal_id":"` + result.Proposal.ID + `","approve":true}`
	voteResult, err := d.Dispatch(bob, decodeAction(t, voteWire), testNow)
	if err != nil {
		t.Fatalf("vote_on_proposal: %v", err)
	}
	if voteResult.Tally == nil || voteResult.Tally.YesVotes != 1 {
		t.Errorf("tally = %+v", voteResult.Tally)
	}
}

func TestParseActionErrors(t *testing.T) {
	cases := []struct {
		name string
		wire string
		want error
	}{
		{"unknown type", `{"type":"explode"}`, ErrUnknownAction},
		{"missing type", `{"data":{}}`, ErrMalformedAction},
		{"empty set", `{"type":"set","data":{}}`, ErrMalformedAction},
		{"bad group id", `{"type":"join_group","group_id":"no spaces"}`, group.ErrInvalidGroupID},
		{"bad group id on create", `{"type":"create_group","group_id":"käse"}`, group.ErrInvalidGroupID},
		{"missing group id", `{"type":"join_group"}`, ErrMalformedAction},
		{"bad level", `{"type":"set_permission","grantee":"bob.near","path":"posts","level":9}`, ErrMalformedAction},
		{"missing approve", `{"type":"vote_on_proposal","group_id":"dao","proposal_id":"dao_1"}`, ErrMalformedAction},
	}
	for _, tc := range cases {
		decoder := json.NewDecoder(bytes.NewReader([]byte(tc.wire)))
		decoder.UseNumber()
		var value any
		if err := decoder.Decode(&value); err != nil {
			t.Fatal(err)
		}
		if _, err := ParseAction(value); !errors.Is(err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}
}
