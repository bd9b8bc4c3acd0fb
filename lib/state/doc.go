// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package state assembles the registries into one core and runs the
// full request path: parse envelope, authenticate, dispatch, commit.
//
// A request is one atomic unit. The nonce bump is committed only
// after the dispatched action succeeds, so a failed action leaves the
// nonce untouched and the request can be re-signed and retried with
// the same nonce. The core is single-threaded by construction; the
// host ledger totally orders requests, and the daemon feeds them in
// one at a time.
package state
