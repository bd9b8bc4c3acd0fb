// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch is the orchestration boundary between an
// authenticated actor and the registries. It parses the wire action
// into a closed sum type, resolves the minimum authorization the
// action requires, and either applies the effect or rejects.
//
// Data writes travel through the set action as a key-to-value map.
// Keys are classified before any authorization: bare keys without a
// '/' are invalid, the config, manager, and status namespaces are
// reserved for dedicated contract methods, and the storage and
// permission namespaces accept only their recognized structured
// sub-keys. Structured operations belong to the external accounting
// collaborator; this core classifies them and passes them through
// without applying anything.
//
// Authorization floors: WRITE for data mutation, MANAGE for the
// config subtree of a group, ownership for granting on a namespace
// (grants always attach to the actor's own namespace). Group actions
// re-check through the group registry, which also short-circuits
// member-driven groups to governance.
package dispatch
