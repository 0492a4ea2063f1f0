// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/epam/wlsctl/cmd/wlsctl/aws"
	"github.com/epam/wlsctl/cmd/wlsctl/azure"
	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/gcp"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

const (
	aes256KeySize = 32

	// V1 is pbkdf2 password derived key
	// V2 is AWS KMS
	// V3 is Azure KeyVault
	// V4 is GCP KMS
	markerByte0      = '\x26'
	v1Marker         = '\x01'
	v2Marker         = '\x02'
	v3Marker         = '\x03'
	v4Marker         = '\x04'
	v1SaltLen        = 8
	nonceLen         = 12
	v2BlobLen        = 184 // encrypted AES256 key and 152 bytes of fixed-size AWS KMS meta
	v3BlobLen        = 256 // RSA-OAEP-256
	v4BlobLen        = 113 // encrypted AES256 key and 81 bytes of fixed-size GCP KMS meta
	macLen           = 16
	pbkdf2Iterations = 4096

	helpPassword      = "WLSCTL_CRYPTO_PASSWORD='random password'"
	helpAwsKms        = "WLSCTL_CRYPTO_AWS_KMS_KEY_ARN='arn:aws:kms:...'"
	helpAzureKeyvault = "WLSCTL_CRYPTO_AZURE_KEYVAULT_KEY_ID='https://*.vault.azure.net/keys/...'"
	helpGcpKms        = "WLSCTL_CRYPTO_GCP_KMS_KEY_NAME='projects/*/locations/*/keyRings/my-key-ring/cryptoKeys/my-key'"
)

var blobLen = map[byte]int{
	v1Marker: v1SaltLen,
	v2Marker: v2BlobLen,
	v3Marker: v3BlobLen,
	v4Marker: v4BlobLen,
}

func overhead(ver byte) int {
	return 2 + blobLen[ver] + nonceLen + macLen
}

var (
	encryptionVer  byte
	encryptionBlob []byte
	encryptionKey  []byte
)

func IsEncryptedData(data []byte) bool {
	if len(data) < 2 || data[0] != markerByte0 {
		return false
	}
	if _, known := blobLen[data[1]]; !known {
		return false
	}
	return len(data) >= overhead(data[1])
}

// for password based key the blob is salt
// for AWS KMS, Azure Key Vault, GCP KMS the blob is encrypted data key
// if no blob is supplied then a new key is requested
func keyInit(ver byte, blob []byte) (byte, []byte, []byte, error) {
	switch {
	case ver == v1Marker && config.CryptoPassword == "":
		return 0, nil, nil, fmt.Errorf("Set %s", helpPassword)
	case ver == v2Marker && config.CryptoAwsKmsKeyArn == "":
		return 0, nil, nil, fmt.Errorf("Set %s", helpAwsKms)
	case ver == v3Marker && config.CryptoAzureKeyVaultKeyId == "":
		return 0, nil, nil, fmt.Errorf("Set %s", helpAzureKeyvault)
	case ver == v4Marker && config.CryptoGcpKmsKeyName == "":
		return 0, nil, nil, fmt.Errorf("Set %s", helpGcpKms)
	}

	if config.CryptoPassword != "" && (ver == 0 || ver == v1Marker) {
		salt := blob
		if len(salt) == 0 {
			salt = make([]byte, v1SaltLen)
			if _, err := rand.Read(salt); err != nil {
				return 0, nil, nil, err
			}
		}
		key := pbkdf2.Key([]byte(config.CryptoPassword), salt, pbkdf2Iterations, aes256KeySize, sha1.New)
		return v1Marker, salt, key, nil
	}
	if config.CryptoAwsKmsKeyArn != "" && (ver == 0 || ver == v2Marker) {
		clearKey, encryptedKey, err := aws.KmsKey(config.CryptoAwsKmsKeyArn, blob)
		return v2Marker, encryptedKey, clearKey, err
	}
	if config.CryptoAzureKeyVaultKeyId != "" && (ver == 0 || ver == v3Marker) {
		clearKey, encryptedKey, err := azure.KeyvaultKey(config.CryptoAzureKeyVaultKeyId, blob)
		return v3Marker, encryptedKey, clearKey, err
	}
	if config.CryptoGcpKmsKeyName != "" && (ver == 0 || ver == v4Marker) {
		clearKey, encryptedKey, err := gcp.KmsKey(config.CryptoGcpKmsKeyName, blob)
		return v4Marker, encryptedKey, clearKey, err
	}
	return 0, nil, nil,
		fmt.Errorf("Set %s or %s or %s or %s", helpPassword, helpAwsKms, helpAzureKeyvault, helpGcpKms)
}

func gcm(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if aead.NonceSize() != nonceLen {
		util.WarnOnce("Cipher `nonce` size %d doesn't match built-in size %d", aead.NonceSize(), nonceLen)
	}
	return aead, nil
}

func Encrypt(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if len(encryptionKey) == 0 {
		var err error
		encryptionVer, encryptionBlob, encryptionKey, err = keyInit(0, nil)
		if err != nil {
			return nil, err
		}
	}
	ver, blob, key := encryptionVer, encryptionBlob, encryptionKey
	if want := blobLen[ver]; len(blob) != want {
		util.WarnOnce("Encrypted data key size %d doesn't match built-in size %d", len(blob), want)
	}
	aead, err := gcm(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ciphertext := aead.Seal(nil, nonce, data, blob)
	buf := bytes.NewBuffer(make([]byte, 0, 2+len(blob)+len(nonce)+len(ciphertext)))
	buf.WriteByte(markerByte0)
	buf.WriteByte(ver)
	buf.Write(blob)
	buf.Write(nonce)
	buf.Write(ciphertext)
	return buf.Bytes(), nil
}

func Decrypt(encrypted []byte) ([]byte, error) {
	if len(encrypted) == 0 {
		return encrypted, nil
	}
	if !IsEncryptedData(encrypted) {
		return nil, errors.New("Bad ciphertext marker")
	}
	ver := encrypted[1]
	encrypted = encrypted[2:]
	blob := encrypted[:blobLen[ver]]
	rest := encrypted[blobLen[ver]:]

	_, _, key, err := keyInit(ver, blob)
	if err != nil {
		return nil, err
	}
	aead, err := gcm(key)
	if err != nil {
		return nil, err
	}
	nonce := rest[:aead.NonceSize()]
	return aead.Open(nil, nonce, rest[aead.NonceSize():], blob)
}

// Reset forgets the cached data key, ie. after crypto settings change.
func Reset() {
	encryptionVer, encryptionBlob, encryptionKey = 0, nil, nil
}
