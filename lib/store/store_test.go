// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/clock"
	"github.com/onsocial/onsocial-core/lib/ref"
	"github.com/onsocial/onsocial-core/lib/state"
	"github.com/onsocial/onsocial-core/lib/store"
	"github.com/onsocial/onsocial-core/lib/testutil"
)

const testContract = "core.onsocial.near"

var testNow = time.UnixMilli(1_700_000_000_000)

func openTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "core.db")
	s, err := store.Open(store.Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s, path
}

// populatedCore executes a few signed requests so the snapshot covers
// every table: grants, groups, proposals, and nonces.
func populatedCore(t *testing.T) *state.Core {
	t.Helper()
	core := state.New(testContract, clock.Fake(testNow))
	private, public := testutil.KeyPair(1)

	steps := []string{
		`{"type":"set_permission","grantee":"bob.near","path":"posts","level":2}`,
		`{"type":"create_group","group_id":"devs","description":"builders"}`,
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
	return core
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	core := populatedCore(t)

	snapshot, err := core.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if err := s.Save(ctx, snapshot); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	restored := state.New(testContract, clock.Fake(testNow))
	if err := restored.Restore(loaded); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if !restored.HasPermission("alice.near", "bob.near", ref.MustPath("posts/x"), acl.LevelModerate) {
		t.Error("restored core lost the grant")
	}
	gid := ref.MustGroupID("devs")
	if !restored.IsGroupOwner(gid, ref.MustAccountID("alice.near")) {
		t.Error("restored core lost group ownership")
	}
	if _, err := restored.GetProposal(gid, "devs_1"); err != nil {
		t.Errorf("restored core lost the proposal: %v", err)
	}
	_, public := testutil.KeyPair(1)
	if got := restored.Nonce(ref.MustAccountID("alice.near"), public); got != 3 {
		t.Errorf("restored nonce = %d, want 3", got)
	}
}

func TestLoadEmptyDatabase(t *testing.T) {
	s, _ := openTestStore(t)

	snapshot, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snapshot.Grants) != 0 || len(snapshot.Groups) != 0 ||
		len(snapshot.Proposals) != 0 || len(snapshot.Nonces) != 0 {
		t.Errorf("empty database yielded non-empty snapshot: %+v", snapshot)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	core := populatedCore(t)

	first, err := core.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	// An empty snapshot must fully supersede the populated one.
	empty, err := state.New(testContract, clock.Fake(testNow)).Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, empty); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Grants) != 0 || len(loaded.Groups) != 0 ||
		len(loaded.Proposals) != 0 || len(loaded.Nonces) != 0 {
		t.Errorf("second save did not replace the first: %+v", loaded)
	}
}

func TestReopenPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "core.db")

	first, err := store.Open(store.Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	core := populatedCore(t)
	snapshot, err := core.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Save(ctx, snapshot); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := store.Open(store.Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	loaded, err := second.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if len(loaded.Groups) != 1 || loaded.Groups[0].ID.String() != "devs" {
		t.Errorf("groups after reopen = %+v", loaded.Groups)
	}
	if len(loaded.Proposals) != 1 || loaded.Proposals[0].ID != "devs_1" {
		t.Errorf("proposals after reopen = %+v", loaded.Proposals)
	}
}
