// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides helpers for tests that exercise the full
// request path: deterministic keypairs and correctly signed request
// envelopes.
package testutil
