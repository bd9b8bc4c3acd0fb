// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"sort"
	"time"

	"github.com/onsocial/onsocial-core/lib/ref"
)

// Grant is one stored permission: grantee may act at Level on Path and
// everything below it within the owner's namespace.
type Grant struct {
	Owner   string   `cbor:"1,keyasint"`
	Grantee string   `cbor:"2,keyasint"`
	Path    ref.Path `cbor:"3,keyasint"`

	Level Level `cbor:"4,keyasint"`

	// ExpiresAt is a unix-millisecond deadline after which the grant
	// evaluates as NONE. Zero means the grant never expires.
	ExpiresAt int64 `cbor:"5,keyasint,omitempty"`
}

// KeyGrant is a permission delegated to a signing key rather than an
// account.
type KeyGrant struct {
	Owner     string        `cbor:"1,keyasint"`
	Key       ref.PublicKey `cbor:"2,keyasint"`
	Path      ref.Path      `cbor:"3,keyasint"`
	Level     Level         `cbor:"4,keyasint"`
	ExpiresAt int64         `cbor:"5,keyasint,omitempty"`
}

type grantKey struct {
	owner   string
	grantee string
	path    string
}

type grantRecord struct {
	level     Level
	expiresAt int64
}

// live reports whether the record still contributes its level at now.
func (g grantRecord) live(nowMS int64) bool {
	return g.expiresAt == 0 || nowMS < g.expiresAt
}

// Registry holds all grants, account- and key-scoped, in memory.
// Methods are not safe for concurrent use; the state core serializes
// all access.
type Registry struct {
	accounts map[grantKey]grantRecord
	keys     map[grantKey]grantRecord
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		accounts: make(map[grantKey]grantRecord),
		keys:     make(map[grantKey]grantRecord),
	}
}

// Grant records a permission for grantee on (owner, path), replacing
// any existing grant on the same tuple. A LevelNone grant removes the
// stored record entirely.
func (r *Registry) Grant(owner, grantee string, path ref.Path, level Level, expiresAt int64) {
	k := grantKey{owner: owner, grantee: grantee, path: path.String()}
	if level == LevelNone {
		delete(r.accounts, k)
		return
	}
	r.accounts[k] = grantRecord{level: level, expiresAt: expiresAt}
}

// GrantKey records a permission for a signing key on (owner, path).
func (r *Registry) GrantKey(owner string, key ref.PublicKey, path ref.Path, level Level, expiresAt int64) {
	k := grantKey{owner: owner, grantee: key.String(), path: path.String()}
	if level == LevelNone {
		delete(r.keys, k)
		return
	}
	r.keys[k] = grantRecord{level: level, expiresAt: expiresAt}
}

// EffectiveLevel resolves the level grantee holds on (owner, path) at
// now: the path and all its ancestors are walked and the maximum live
// grant level wins. The registry is target-agnostic and carries no
// implicit self privilege. Namespace owner keys are opaque strings
// (accounts or group ids), so the layer that knows what the owner is
// resolves implicit ownership before consulting the table.
func (r *Registry) EffectiveLevel(owner, grantee string, path ref.Path, now time.Time) Level {
	return r.walk(r.accounts, owner, grantee, path, now)
}

// EffectiveKeyLevel is EffectiveLevel for a key-scoped grant.
func (r *Registry) EffectiveKeyLevel(owner string, key ref.PublicKey, path ref.Path, now time.Time) Level {
	return r.walk(r.keys, owner, key.String(), path, now)
}

func (r *Registry) walk(table map[grantKey]grantRecord, owner, grantee string, path ref.Path, now time.Time) Level {
	nowMS := now.UnixMilli()
	best := LevelNone
	for p := path; ; {
		if record, ok := table[grantKey{owner: owner, grantee: grantee, path: p.String()}]; ok && record.live(nowMS) {
			if record.level > best {
				best = record.level
			}
		}
		parent, ok := p.Parent()
		if !ok {
			break
		}
		p = parent
	}
	return best
}

// Check reports whether grantee holds at least required on
// (owner, path) at now.
func (r *Registry) Check(owner, grantee string, path ref.Path, required Level, now time.Time) bool {
	return r.EffectiveLevel(owner, grantee, path, now).AtLeast(required)
}

// CheckKey is Check for a key-scoped grant.
func (r *Registry) CheckKey(owner string, key ref.PublicKey, path ref.Path, required Level, now time.Time) bool {
	return r.EffectiveKeyLevel(owner, key, path, now).AtLeast(required)
}

// GrantsFor lists every stored account grant from owner to grantee,
// including expired ones, sorted by path. Expiry filtering is the
// caller's concern; the listing is an inspection surface.
func (r *Registry) GrantsFor(owner, grantee string) []Grant {
	var out []Grant
	for k, record := range r.accounts {
		if k.owner != owner || k.grantee != grantee {
			continue
		}
		out = append(out, Grant{
			Owner:     k.owner,
			Grantee:   k.grantee,
			Path:      ref.MustPath(k.path),
			Level:     record.level,
			ExpiresAt: record.expiresAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path.String() < out[j].Path.String() })
	return out
}

// Export returns every stored grant for persistence, in deterministic
// order.
func (r *Registry) Export() ([]Grant, []KeyGrant) {
	grants := make([]Grant, 0, len(r.accounts))
	for k, record := range r.accounts {
		grants = append(grants, Grant{
			Owner:     k.owner,
			Grantee:   k.grantee,
			Path:      ref.MustPath(k.path),
			Level:     record.level,
			ExpiresAt: record.expiresAt,
		})
	}
	sort.Slice(grants, func(i, j int) bool {
		a, b := grants[i], grants[j]
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		if a.Grantee != b.Grantee {
			return a.Grantee < b.Grantee
		}
		return a.Path.String() < b.Path.String()
	})

	keyGrants := make([]KeyGrant, 0, len(r.keys))
	for k, record := range r.keys {
		key, err := ref.ParsePublicKey(k.grantee)
		if err != nil {
			continue
		}
		keyGrants = append(keyGrants, KeyGrant{
			Owner:     k.owner,
			Key:       key,
			Path:      ref.MustPath(k.path),
			Level:     record.level,
			ExpiresAt: record.expiresAt,
		})
	}
	sort.Slice(keyGrants, func(i, j int) bool {
		a, b := keyGrants[i], keyGrants[j]
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		if a.Key.String() != b.Key.String() {
			return a.Key.String() < b.Key.String()
		}
		return a.Path.String() < b.Path.String()
	})
	return grants, keyGrants
}

// Restore replaces the registry contents with previously exported
// grants.
func (r *Registry) Restore(grants []Grant, keyGrants []KeyGrant) {
	r.accounts = make(map[grantKey]grantRecord, len(grants))
	for _, g := range grants {
		r.accounts[grantKey{owner: g.Owner, grantee: g.Grantee, path: g.Path.String()}] = grantRecord{
			level:     g.Level,
			expiresAt: g.ExpiresAt,
		}
	}
	r.keys = make(map[grantKey]grantRecord, len(keyGrants))
	for _, g := range keyGrants {
		r.keys[grantKey{owner: g.Owner, grantee: g.Key.String(), path: g.Path.String()}] = grantRecord{
			level:     g.Level,
			expiresAt: g.ExpiresAt,
		}
	}
}
