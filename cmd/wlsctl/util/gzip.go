// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package util

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

var gzipMagic = []byte{0x1f, 0x8b}

// IsGzipData checks gzip magic, enough to tell a .gz from a zip based archive.
func IsGzipData(data []byte) bool {
	return len(data) > len(gzipMagic) && bytes.HasPrefix(data, gzipMagic)
}

func Gunzip(compressed []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	out.Grow(len(compressed) * 2)
	_, err = io.Copy(&out, reader)
	if err2 := reader.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return nil, fmt.Errorf("%v; decompressed %d bytes", err, out.Len())
	}
	return out.Bytes(), nil
}

// Gzip compresses data with default level.
func Gzip(data []byte) ([]byte, error) {
	var out bytes.Buffer
	writer := gzip.NewWriter(&out)
	wrote, err := writer.Write(data)
	if err2 := writer.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return nil, fmt.Errorf("%v; compressed %d of %d bytes", err, wrote, len(data))
	}
	return out.Bytes(), nil
}
