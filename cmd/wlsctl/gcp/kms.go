// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gcp

import (
	"context"
	"crypto/rand"
	"time"

	kms "cloud.google.com/go/kms/apiv1"
	"google.golang.org/api/option"
	kmspb "google.golang.org/genproto/googleapis/cloud/kms/v1"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

const aes256KeySize = 32

var kmsTimeout = time.Duration(10 * time.Second)

func KmsKey(name string, blob []byte) ([]byte, []byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), kmsTimeout)
	defer cancel()
	var opts []option.ClientOption
	if config.GcpCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.GcpCredentialsFile))
	}
	client, err := kms.NewKeyManagementClient(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	defer client.Close()

	if len(blob) == 0 {
		key := make([]byte, aes256KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, nil, err
		}
		result, err := client.Encrypt(ctx, &kmspb.EncryptRequest{Name: name, Plaintext: key})
		if err != nil {
			return nil, nil, err
		}
		return key, result.Ciphertext, nil
	}
	result, err := client.Decrypt(ctx, &kmspb.DecryptRequest{Name: name, Ciphertext: blob})
	if err != nil {
		return nil, nil, err
	}
	return result.Plaintext, blob, nil
}
