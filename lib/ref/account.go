// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// Account ID length bounds, matching the host ledger's account model.
const (
	minAccountIDLen = 2
	maxAccountIDLen = 64
)

// AccountID is a validated ledger account identifier (e.g.,
// "alice.near"). The format is the host ledger's: 2-64 characters,
// lowercase alphanumeric segments separated by single '.', '_' or '-'
// characters, never starting or ending with a separator.
//
// AccountID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type AccountID struct {
	id string
}

// ParseAccountID validates and wraps a raw account ID string.
func ParseAccountID(raw string) (AccountID, error) {
	if err := validateAccountID(raw); err != nil {
		return AccountID{}, err
	}
	return AccountID{id: raw}, nil
}

// MustAccountID is ParseAccountID that panics on invalid input. For
// tests and compile-time-constant identifiers only.
func MustAccountID(raw string) AccountID {
	id, err := ParseAccountID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func validateAccountID(raw string) error {
	if len(raw) < minAccountIDLen || len(raw) > maxAccountIDLen {
		return fmt.Errorf("account ID %q: length must be %d-%d characters", raw, minAccountIDLen, maxAccountIDLen)
	}
	prevSeparator := true // a separator may not open the ID
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			prevSeparator = false
		case c == '.' || c == '_' || c == '-':
			if prevSeparator {
				return fmt.Errorf("account ID %q: separator at position %d must follow an alphanumeric character", raw, i)
			}
			prevSeparator = true
		default:
			return fmt.Errorf("account ID %q: invalid character %q at position %d", raw, c, i)
		}
	}
	if prevSeparator {
		return fmt.Errorf("account ID %q: must not end with a separator", raw)
	}
	return nil
}

// String returns the account ID string.
func (a AccountID) String() string { return a.id }

// IsZero reports whether the AccountID is the zero value.
func (a AccountID) IsZero() bool { return a.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset account).
func (a *AccountID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = AccountID{}
		return nil
	}
	parsed, err := ParseAccountID(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
