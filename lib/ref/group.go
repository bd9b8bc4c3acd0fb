// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// maxGroupIDLen bounds group identifiers. Group IDs appear as path
// segments ("groups/{id}/...") so they must fit within a path segment.
const maxGroupIDLen = 64

// GroupID is a validated group identifier. Group IDs are non-empty
// and restricted to ASCII alphanumerics, underscores, and hyphens so
// they embed cleanly in data paths.
//
// GroupID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type GroupID struct {
	id string
}

// ParseGroupID validates and wraps a raw group ID string.
func ParseGroupID(raw string) (GroupID, error) {
	if raw == "" {
		return GroupID{}, fmt.Errorf("group ID must not be empty")
	}
	if len(raw) > maxGroupIDLen {
		return GroupID{}, fmt.Errorf("group ID %q: exceeds %d characters", raw, maxGroupIDLen)
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' {
			continue
		}
		return GroupID{}, fmt.Errorf("group ID %q: invalid character %q at position %d", raw, c, i)
	}
	return GroupID{id: raw}, nil
}

// MustGroupID is ParseGroupID that panics on invalid input. For tests
// and compile-time-constant identifiers only.
func MustGroupID(raw string) GroupID {
	id, err := ParseGroupID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the group ID string.
func (g GroupID) String() string { return g.id }

// IsZero reports whether the GroupID is the zero value.
func (g GroupID) IsZero() bool { return g.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (g GroupID) MarshalText() ([]byte, error) {
	return []byte(g.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset group).
func (g *GroupID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*g = GroupID{}
		return nil
	}
	parsed, err := ParseGroupID(string(data))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
