// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the current time for testability.
//
// The core is fully synchronous — the host ledger serializes requests
// and no background work exists — so the only time operation it needs
// is Now, used for grant expiry, request expiry, and voting-period
// checks. Production code injects Real(); tests inject Fake() and
// advance it explicitly to exercise expiry paths deterministically.
package clock
