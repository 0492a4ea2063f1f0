// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package azure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/storage"
	"github.com/Azure/go-autorest/autorest/azure"

	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

var (
	blobClients       = make(map[string]*storage.BlobStorageClient)
	storageTimeoutSec = uint(120)
	storageTimeout    = time.Duration(storageTimeoutSec+1) * time.Second
)

func storageClient(ctx context.Context, account string) (*storage.BlobStorageClient, error) {
	if client, exist := blobClients[account]; exist {
		return client, nil
	}
	env := &azure.PublicCloud
	if _, e, err := settings(); err == nil {
		env = e
	}
	key, err := storageKey(ctx, account)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(account, key, env.StorageEndpointSuffix, storage.DefaultAPIVersion, true)
	if err != nil {
		return nil, err
	}
	client.HTTPClient = util.RobustHttpClient(storageTimeout, false)
	blobClient := client.GetBlobService()
	blobClients[account] = &blobClient
	return &blobClient, nil
}

// splitPath parses az://account/container/blob/name
func splitPath(path string) (string, string, string, error) {
	location, err := url.Parse(path)
	if err != nil {
		return "", "", "", err
	}
	parts := strings.SplitN(location.Path, "/", 3)
	if location.Host == "" || len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", "", errors.New("Bad Azure blob path format; expected az://account/container/blob")
	}
	return location.Host, parts[1], parts[2], nil
}

func blobReference(ctx context.Context, path string) (*storage.Blob, error) {
	account, container, name, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	blobClient, err := storageClient(ctx, account)
	if err != nil {
		return nil, err
	}
	return blobClient.GetContainerReference(container).GetBlobReference(name), nil
}

func ReadStorageBlob(ctx context.Context, path string) ([]byte, error) {
	blobRef, err := blobReference(ctx, path)
	if err != nil {
		return nil, err
	}
	reader, err := blobRef.Get(&storage.GetBlobOptions{Timeout: storageTimeoutSec})
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("Azure storage blob `%s`: %w", path, os.ErrNotExist)
		}
		return nil, err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("Failed to read Azure storage blob `%s`: %v", path, err)
	}
	return data, nil
}

func WriteStorageBlob(ctx context.Context, path string, body []byte) error {
	blobRef, err := blobReference(ctx, path)
	if err != nil {
		return err
	}
	blobRef.Properties.ContentLength = int64(len(body))
	err = blobRef.CreateBlockBlobFromReader(bytes.NewReader(body), &storage.PutBlobOptions{Timeout: storageTimeoutSec})
	if err != nil {
		return fmt.Errorf("Failed to write Azure storage blob `%s`: %v", path, err)
	}
	return nil
}

func IsNotFound(err error) bool {
	str := err.Error()
	return strings.HasPrefix(str, "storage:") &&
		strings.Contains(str, "StatusCode=404")
}
