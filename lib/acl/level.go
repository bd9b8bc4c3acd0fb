// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import "fmt"

// Level is a permission level. Levels are strictly ordered; holding a
// level implies holding every lower one.
type Level int

const (
	// LevelNone grants nothing. Granting it revokes a prior grant on
	// the same tuple.
	LevelNone Level = 0

	// LevelWrite allows data mutation under the granted subtree. For
	// group roles this is ordinary membership.
	LevelWrite Level = 1

	// LevelModerate allows moderation actions (join-request handling).
	// For group roles this is a moderator.
	LevelModerate Level = 2

	// LevelManage allows administrative actions: membership changes,
	// blacklisting, granting. For group roles this is an admin.
	LevelManage Level = 3
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelWrite:
		return "write"
	case LevelModerate:
		return "moderate"
	case LevelManage:
		return "manage"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// AtLeast reports whether l satisfies a required level.
func (l Level) AtLeast(required Level) bool { return l >= required }

// ParseLevel validates a numeric level from a request payload.
func ParseLevel(n int) (Level, error) {
	if n < int(LevelNone) || n > int(LevelManage) {
		return LevelNone, fmt.Errorf("permission level %d: must be in [%d,%d]", n, LevelNone, LevelManage)
	}
	return Level(n), nil
}
