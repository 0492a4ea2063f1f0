// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/epam/wlsctl/cmd/wlsctl/aws"
	"github.com/epam/wlsctl/cmd/wlsctl/azure"
	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/crypto"
	"github.com/epam/wlsctl/cmd/wlsctl/gcp"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

const stagingProbeLen = 512

var remoteStorageSchemes = []string{"s3", "gs", "az"}

func IsRemote(path string) bool {
	return strings.Contains(path, "://")
}

func checkPath(path, kind string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("Empty %s file path", kind)
	}
	if !IsRemote(path) {
		return &File{Kind: "fs", Path: path}, nil
	}
	remote, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("Unable to parse `%s` %s file path as URL: %v", path, kind, err)
	}
	if !util.Contains(remoteStorageSchemes, remote.Scheme) {
		return nil, fmt.Errorf("%s file `%s` scheme `%s` not supported. Supported schemes: %v",
			kind, path, remote.Scheme, remoteStorageSchemes)
	}
	return &File{Kind: remote.Scheme, Path: path}, nil
}

func readFile(ctx context.Context, file *File) ([]byte, error) {
	var data []byte
	var err error

	switch file.Kind {
	case "fs":
		data, err = os.ReadFile(file.Path)

	case "s3":
		data, err = aws.ReadS3(ctx, file.Path)

	case "gs":
		data, err = gcp.ReadGCS(ctx, file.Path)

	case "az":
		data, err = azure.ReadStorageBlob(ctx, file.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("Unable to read `%s`: %w", file.Path, err)
	}
	return data, nil
}

// Read fetches a file from local disk or remote storage and transparently
// decrypts and gunzips it.
func Read(ctx context.Context, path, kind string) ([]byte, error) {
	file, err := checkPath(path, kind)
	if err != nil {
		return nil, err
	}
	if config.Debug && file.Kind != "fs" {
		log.Printf("Reading `%s` %s file from %s...", path, kind, file.Kind)
	}
	data, err := readFile(ctx, file)
	if err != nil {
		return nil, err
	}
	transformed := false
	if crypto.IsEncryptedData(data) {
		data, err = crypto.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("Unable to decrypt `%s`: %v", path, err)
		}
		transformed = true
	}
	if util.IsGzipData(data) {
		data, err = util.Gunzip(data)
		if err != nil {
			return nil, fmt.Errorf("Unable to gunzip `%s`: %v", path, err)
		}
		transformed = true
	}
	if config.Verbose {
		log.Printf("Read `%s` %s file (%d bytes)", path, kind, len(data))
	}
	if transformed && config.Debug {
		log.Printf("`%s` was decrypted and/or decompressed", path)
	}
	return data, nil
}

// NeedsStaging is true when the file cannot be handed over as is: it is
// remote, encrypted, or compressed.
func NeedsStaging(path string) (bool, error) {
	if IsRemote(path) {
		return true, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	head := make([]byte, stagingProbeLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	head = head[:n]
	return util.IsGzipData(head) || crypto.IsEncryptedData(head), nil
}
