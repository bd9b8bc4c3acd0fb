// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the node configuration from a single YAML file.
//
// There is no fallback discovery: the daemon reads exactly the file
// named by its --config flag. This keeps deployments deterministic and
// auditable with no hidden overrides.
package config
