// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package authn

import (
	"sort"

	"github.com/onsocial/onsocial-core/lib/ref"
)

type nonceKey struct {
	account string
	key     string
}

// NonceRegistry records the highest accepted nonce per
// (account, public key). Not safe for concurrent use; the state core
// serializes all access.
type NonceRegistry struct {
	nonces map[nonceKey]uint64
}

// NewNonceRegistry returns an empty registry.
func NewNonceRegistry() *NonceRegistry {
	return &NonceRegistry{nonces: make(map[nonceKey]uint64)}
}

// Get returns the stored nonce for (account, key), zero when the pair
// has never been seen.
func (r *NonceRegistry) Get(account ref.AccountID, key ref.PublicKey) uint64 {
	return r.nonces[nonceKey{account: account.String(), key: key.String()}]
}

// Commit records an accepted nonce. Called only after the request's
// action has succeeded, never on a failed request.
func (r *NonceRegistry) Commit(account ref.AccountID, key ref.PublicKey, nonce uint64) {
	r.nonces[nonceKey{account: account.String(), key: key.String()}] = nonce
}

// NonceEntry is one persisted nonce record.
type NonceEntry struct {
	Account ref.AccountID `cbor:"1,keyasint"`
	Key     ref.PublicKey `cbor:"2,keyasint"`
	Nonce   uint64        `cbor:"3,keyasint"`
}

// Export returns every stored nonce in deterministic order.
func (r *NonceRegistry) Export() []NonceEntry {
	out := make([]NonceEntry, 0, len(r.nonces))
	for k, nonce := range r.nonces {
		account, err := ref.ParseAccountID(k.account)
		if err != nil {
			continue
		}
		key, err := ref.ParsePublicKey(k.key)
		if err != nil {
			continue
		}
		out = append(out, NonceEntry{Account: account, Key: key, Nonce: nonce})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Account != b.Account {
			return a.Account.String() < b.Account.String()
		}
		return a.Key.String() < b.Key.String()
	})
	return out
}

// Restore replaces the registry contents with exported entries.
func (r *NonceRegistry) Restore(entries []NonceEntry) {
	r.nonces = make(map[nonceKey]uint64, len(entries))
	for _, entry := range entries {
		r.nonces[nonceKey{account: entry.Account.String(), key: entry.Key.String()}] = entry.Nonce
	}
}
