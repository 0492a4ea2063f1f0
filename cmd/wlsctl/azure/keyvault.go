// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package azure

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"regexp"
	"time"

	keyvault "github.com/Azure/azure-sdk-for-go/services/keyvault/v7.1/keyvault"
	"github.com/Azure/go-autorest/autorest/azure"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

const dataKeySize = 32

var (
	keyvaultTimeout = 10 * time.Second
	keyvaultKeyRe   = regexp.MustCompile("^(https://[^/]+)/keys/([^/]+)/([^/]+)$")
)

type vaultKey struct {
	vault   string
	name    string
	version string
}

func parseVaultKey(id string) (*vaultKey, error) {
	p := keyvaultKeyRe.FindStringSubmatch(id)
	if len(p) != 4 {
		return nil, fmt.Errorf("Unable to parse Azure Key Vault key id `%s`; expected https://<vault name>.vault.azure.net/keys/<key name>/<key version>", id)
	}
	return &vaultKey{vault: p[1], name: p[2], version: p[3]}, nil
}

type keyOperation func(ctx context.Context, vaultBaseURL, keyName, keyVersion string,
	parameters keyvault.KeyOperationsParameters) (keyvault.KeyOperationResult, error)

func (k *vaultKey) apply(op keyOperation, data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), keyvaultTimeout)
	defer cancel()
	value := base64.RawURLEncoding.EncodeToString(data)
	resp, err := op(ctx, k.vault, k.name, k.version,
		keyvault.KeyOperationsParameters{Value: &value, Algorithm: keyvault.RSAOAEP256})
	if err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("Azure Key Vault key `%s` returned no result", k.name)
	}
	return base64.RawURLEncoding.DecodeString(*resp.Result)
}

// KeyvaultKey returns clear and wrapped archive data key. With empty blob a
// fresh key is generated and wrapped by the vault key, otherwise the blob is
// unwrapped.
func KeyvaultKey(id string, blob []byte) ([]byte, []byte, error) {
	key, err := parseVaultKey(id)
	if err != nil {
		return nil, nil, err
	}
	authz, err := authorizer(func(env *azure.Environment) string { return env.KeyVaultEndpoint })
	if err != nil {
		return nil, nil, err
	}
	client := keyvault.New()
	client.Authorizer = authz

	if len(blob) > 0 {
		clearKey, err := key.apply(client.Decrypt, blob)
		if err != nil {
			return nil, nil, fmt.Errorf("Unable to unwrap data key with `%s`: %v", key.name, err)
		}
		return clearKey, blob, nil
	}
	clearKey := make([]byte, dataKeySize)
	if _, err := rand.Read(clearKey); err != nil {
		return nil, nil, err
	}
	wrapped, err := key.apply(client.Encrypt, clearKey)
	if err != nil {
		return nil, nil, fmt.Errorf("Unable to wrap data key with `%s`: %v", key.name, err)
	}
	if config.Debug {
		log.Printf("Generated data key wrapped by Azure Key Vault key `%s` version %s", key.name, key.version)
	}
	return clearKey, wrapped, nil
}
