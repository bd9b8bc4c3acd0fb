// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// CanonicalJSON re-encodes a JSON document with all object keys
// recursively sorted. The input must be valid JSON. Number tokens are
// preserved verbatim (no float round-trip), so canonicalization is
// byte-exact for any two structurally equal documents.
func CanonicalJSON(data []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("codec: parsing JSON for canonicalization: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("codec: trailing data after JSON document")
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AppendCanonicalValue writes the canonical encoding of a decoded
// JSON value (map[string]any / []any / json.Number / string / bool /
// nil) to buf. Used by the authn package to assemble the signing
// payload with its fixed top-level field order.
func AppendCanonicalValue(buf *bytes.Buffer, value any) error {
	return writeCanonical(buf, value)
}

func writeCanonical(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(v.String())
	case string:
		encoded, err := encodeJSONString(v)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	case []any:
		buf.WriteByte('[')
		for i, element := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, element); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encoded, err := encodeJSONString(key)
			if err != nil {
				return err
			}
			buf.Write(encoded)
			buf.WriteByte(':')
			if err := writeCanonical(buf, v[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("codec: unsupported value type %T in canonical encoding", value)
	}
	return nil
}

// encodeJSONString produces the standard JSON encoding of a string,
// including quotes. HTML escaping is disabled: '<', '>' and '&' stay
// literal, matching what non-Go signers produce.
func encodeJSONString(s string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		return nil, fmt.Errorf("codec: encoding string: %w", err)
	}
	// Encode appends a newline; the canonical form has none.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
