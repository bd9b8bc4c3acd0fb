// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/authn"
	"github.com/onsocial/onsocial-core/lib/governance"
	"github.com/onsocial/onsocial-core/lib/group"
)

// Snapshot is the full exportable core state, in deterministic order
// throughout so identical states produce identical snapshots.
type Snapshot struct {
	Grants    []acl.Grant
	KeyGrants []acl.KeyGrant
	Groups    []group.State
	Proposals []governance.State
	Nonces    []authn.NonceEntry
}

// Snapshot exports the whole core.
func (c *Core) Snapshot() (*Snapshot, error) {
	grants, keyGrants := c.perms.Export()
	proposals, err := c.proposals.Export()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Grants:    grants,
		KeyGrants: keyGrants,
		Groups:    c.groups.Export(),
		Proposals: proposals,
		Nonces:    c.nonces.Export(),
	}, nil
}

// Restore replaces the core's state with a snapshot.
func (c *Core) Restore(snapshot *Snapshot) error {
	c.perms.Restore(snapshot.Grants, snapshot.KeyGrants)
	c.groups.Restore(snapshot.Groups)
	if err := c.proposals.Restore(snapshot.Proposals); err != nil {
		return err
	}
	c.nonces.Restore(snapshot.Nonces)
	return nil
}
