// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "errors"

var (
	// ErrUnknownAction reports an unrecognized action type tag.
	ErrUnknownAction = errors.New("unknown action type")

	// ErrMalformedAction reports an action with missing or
	// structurally wrong fields.
	ErrMalformedAction = errors.New("malformed action")

	// ErrReservedKey reports a set key under a namespace reserved for
	// dedicated contract methods.
	ErrReservedKey = errors.New("key is reserved for a dedicated operation")

	// ErrMissingSlash reports a bare top-level set key.
	ErrMissingSlash = errors.New("data key must contain '/'")

	// ErrUnknownSubKey reports an unrecognized sub-key under a
	// structured namespace.
	ErrUnknownSubKey = errors.New("unknown sub-key under reserved namespace")

	// ErrInsufficientLevel reports an actor below the level a write
	// requires.
	ErrInsufficientLevel = errors.New("insufficient permission level")
)
