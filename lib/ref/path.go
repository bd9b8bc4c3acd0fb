// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// maxPathLen bounds data paths. The host ledger charges per byte, so
// a generous but finite ceiling keeps keys sane without constraining
// real use.
const maxPathLen = 256

// Path is a validated '/'-delimited data path (e.g.,
// "profile/name" or "groups/devs/posts/1"). Paths have no leading or
// trailing slash and no empty segments.
//
// Path is an immutable value type. The zero value is not valid; use
// IsZero to check.
type Path struct {
	path string
}

// ParsePath validates and wraps a raw path string.
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("path must not be empty")
	}
	if len(raw) > maxPathLen {
		return Path{}, fmt.Errorf("path %q: exceeds %d characters", raw, maxPathLen)
	}
	if strings.HasPrefix(raw, "/") || strings.HasSuffix(raw, "/") {
		return Path{}, fmt.Errorf("path %q: must not start or end with '/'", raw)
	}
	if strings.Contains(raw, "//") {
		return Path{}, fmt.Errorf("path %q: empty segment", raw)
	}
	return Path{path: raw}, nil
}

// MustPath is ParsePath that panics on invalid input. For tests and
// compile-time-constant paths only.
func MustPath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the path string.
func (p Path) String() string { return p.path }

// IsZero reports whether the Path is the zero value.
func (p Path) IsZero() bool { return p.path == "" }

// Segments returns the '/'-separated segments of the path.
func (p Path) Segments() []string {
	if p.path == "" {
		return nil
	}
	return strings.Split(p.path, "/")
}

// First returns the first segment of the path. Panics if called on a
// zero-value Path.
func (p Path) First() string {
	if p.path == "" {
		panic("Path.First called on zero value")
	}
	if i := strings.IndexByte(p.path, '/'); i >= 0 {
		return p.path[:i]
	}
	return p.path
}

// Parent returns the strict ancestor obtained by dropping the last
// segment, and false when the path is a single segment with no
// ancestor.
func (p Path) Parent() (Path, bool) {
	i := strings.LastIndexByte(p.path, '/')
	if i <= 0 {
		return Path{}, false
	}
	return Path{path: p.path[:i]}, true
}

// Child returns the path extended by one validated segment.
func (p Path) Child(segment string) (Path, error) {
	if p.path == "" {
		return ParsePath(segment)
	}
	return ParsePath(p.path + "/" + segment)
}

// HasPrefix reports whether the path equals prefix or lies strictly
// inside prefix's subtree. Segment-aware: "ab/c" is not under "a".
func (p Path) HasPrefix(prefix Path) bool {
	if p.path == prefix.path {
		return true
	}
	return strings.HasPrefix(p.path, prefix.path+"/")
}

// MarshalText implements encoding.TextMarshaler.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.path), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset path).
func (p *Path) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*p = Path{}
		return nil
	}
	parsed, err := ParsePath(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
