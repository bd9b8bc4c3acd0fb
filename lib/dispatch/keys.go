// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"
	"strings"
)

// KeyClass is the classification of one set key.
type KeyClass string

const (
	// KeyData is an ordinary data path write.
	KeyData KeyClass = "data"

	// Structured storage operations, handled by the external
	// accounting collaborator.
	KeyStorageDeposit           KeyClass = "storage_deposit"
	KeyStorageWithdraw          KeyClass = "storage_withdraw"
	KeyStorageSharedPoolDeposit KeyClass = "storage_shared_pool_deposit"
	KeyStoragePlatformDeposit   KeyClass = "storage_platform_pool_deposit"
	KeyStorageGroupPoolDeposit  KeyClass = "storage_group_pool_deposit"
	KeyStorageSponsorQuotaSet   KeyClass = "storage_group_sponsor_quota_set"
	KeyStorageSponsorDefaultSet KeyClass = "storage_group_sponsor_default_set"
	KeyStorageShare             KeyClass = "storage_share_storage"
	KeyStorageReturnShared      KeyClass = "storage_return_shared_storage"

	// Structured permission operations.
	KeyPermissionGrant  KeyClass = "permission_grant"
	KeyPermissionRevoke KeyClass = "permission_revoke"
)

// structuredKeys maps every recognized structured key to its class.
var structuredKeys = map[string]KeyClass{
	"storage/deposit":                   KeyStorageDeposit,
	"storage/withdraw":                  KeyStorageWithdraw,
	"storage/shared_pool_deposit":       KeyStorageSharedPoolDeposit,
	"storage/platform_pool_deposit":     KeyStoragePlatformDeposit,
	"storage/group_pool_deposit":        KeyStorageGroupPoolDeposit,
	"storage/group_sponsor_quota_set":   KeyStorageSponsorQuotaSet,
	"storage/group_sponsor_default_set": KeyStorageSponsorDefaultSet,
	"storage/share_storage":             KeyStorageShare,
	"storage/return_shared_storage":     KeyStorageReturnShared,
	"permission/grant":                  KeyPermissionGrant,
	"permission/revoke":                 KeyPermissionRevoke,
}

// ClassifyKey sorts a set key into a data path, a recognized
// structured operation, or an error. Order matters: reserved exact
// keys first, then the structured table, then prefix rejection of
// everything else under a reserved namespace, and only then the
// generic slash rule.
func ClassifyKey(key string) (KeyClass, error) {
	switch key {
	case "manager", "config":
		return "", fmt.Errorf("key %q: %w", key, ErrReservedKey)
	case "status/read_only", "status/live", "status/activate":
		return "", fmt.Errorf("key %q: %w", key, ErrReservedKey)
	}
	if class, ok := structuredKeys[key]; ok {
		return class, nil
	}
	for _, reserved := range []string{"storage/", "permission/", "status/"} {
		if strings.HasPrefix(key, reserved) {
			return "", fmt.Errorf("key %q: %w", key, ErrUnknownSubKey)
		}
	}
	if !strings.Contains(key, "/") {
		return "", fmt.Errorf("key %q: %w", key, ErrMissingSlash)
	}
	return KeyData, nil
}
