// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package util

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

const base64LineLen = 76

// DecodeBase64 decodes standard, padded base64 and skips any whitespace
// in between, so that MIME-style wrapped payloads decode as well.
func DecodeBase64(encoded []byte) ([]byte, error) {
	compact := bytes.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n', '\v', '\f':
			return -1
		}
		return r
	}, encoded)
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(compact)))
	n, err := base64.StdEncoding.Decode(decoded, compact)
	if err != nil {
		return nil, fmt.Errorf("Unable to decode base64: %v", err)
	}
	return decoded[:n], nil
}

// EncodeBase64 wraps output at 76 columns with a trailing newline.
func EncodeBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var buf bytes.Buffer
	buf.Grow(len(encoded) + len(encoded)/base64LineLen + 1)
	for len(encoded) > base64LineLen {
		buf.WriteString(encoded[:base64LineLen])
		buf.WriteByte('\n')
		encoded = encoded[base64LineLen:]
	}
	if len(encoded) > 0 {
		buf.WriteString(encoded)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
