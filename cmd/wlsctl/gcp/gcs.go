// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

var (
	defaultGcsClient *storage.Client
	gcsTimeout       = time.Duration(120 * time.Second)
)

func gcsClient(ctx context.Context) (*storage.Client, error) {
	if defaultGcsClient != nil {
		return defaultGcsClient, nil
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if config.GcpCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.GcpCredentialsFile))
	}
	var err error
	defaultGcsClient, err = storage.NewClient(ctx, opts...)
	return defaultGcsClient, err
}

func gcsObject(ctx context.Context, path string) (*storage.ObjectHandle, error) {
	location, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(location.Path, "/")
	if location.Host == "" || name == "" {
		return nil, fmt.Errorf("Bad GCS path `%s`; expected gs://bucket/object", path)
	}
	client, err := gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Bucket(location.Host).Object(name), nil
}

func ReadGCS(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()
	object, err := gcsObject(ctx, path)
	if err != nil {
		return nil, err
	}
	reader, err := object.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("GCS object `%s`: %w", path, os.ErrNotExist)
		}
		return nil, err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("Failed to read GCS object `%s`: %v", path, err)
	}
	return data, nil
}

func WriteGCS(ctx context.Context, path string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()
	object, err := gcsObject(ctx, path)
	if err != nil {
		return err
	}
	writer := object.NewWriter(ctx)
	written, err := writer.Write(body)
	err2 := writer.Close()
	if err != nil || err2 != nil || written != len(body) {
		if err == nil {
			err = err2
		}
		return fmt.Errorf("Failed to write GCS object `%s` (wrote %d of %d bytes): %v",
			path, written, len(body), err)
	}
	return nil
}
