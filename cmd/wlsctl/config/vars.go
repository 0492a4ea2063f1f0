// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

var (
	ConfigFile string
	CacheFile  string

	ApiTimeout     int = 60
	ApiInsecureTLS bool

	AwsProfile                  string
	AwsRegion                   string
	AwsPreferProfileCredentials bool
	AwsUseIamRoleCredentials    bool
	GcpCredentialsFile          string
	AzureCredentialsFile        string

	Verbose bool
	Debug   bool
	Trace   bool

	LogDestination string
	TtyMode        string
	Tty            bool
	TtyForced      bool

	AggWarnings    bool
	Compressed     bool
	Encrypted      bool
	EncryptionMode string

	CryptoPassword           string
	CryptoAwsKmsKeyArn       string
	CryptoAzureKeyVaultKeyId string
	CryptoGcpKmsKeyName      string
)

func cryptoKeySet() bool {
	return CryptoPassword != "" || CryptoAwsKmsKeyArn != "" ||
		CryptoAzureKeyVaultKeyId != "" || CryptoGcpKmsKeyName != ""
}

// Update normalizes flags after cobra and viper are done with them.
func Update() error {
	switch LogDestination {
	case "stdout":
		log.SetOutput(os.Stdout)
	case "stderr", "":
		log.SetOutput(os.Stderr)
	default:
		return fmt.Errorf("Unknown --log-destination `%s`", LogDestination)
	}

	if Trace {
		Debug = true
	}
	if Debug {
		Verbose = true
	}

	switch EncryptionMode {
	case "true":
		if !cryptoKeySet() {
			return fmt.Errorf("For --encrypted=true, set WLSCTL_CRYPTO_PASSWORD='random password' or WLSCTL_CRYPTO_AWS_KMS_KEY_ARN='arn:aws:kms:...' or WLSCTL_CRYPTO_AZURE_KEYVAULT_KEY_ID='https://*.vault.azure.net/keys/...' or WLSCTL_CRYPTO_GCP_KMS_KEY_NAME='projects/*/...'")
		}
		Encrypted = true
	case "false":
		Encrypted = false
	case "if-key-set", "":
		Encrypted = cryptoKeySet()
	default:
		return fmt.Errorf("Unknown --encrypted `%s`", EncryptionMode)
	}

	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsTerminal(os.Stderr.Fd())
	switch TtyMode {
	case "true":
		Tty = true
		TtyForced = !tty
	case "false":
		Tty = false
	case "autodetect", "":
		Tty = tty
	default:
		return fmt.Errorf("Unknown --tty `%s`", TtyMode)
	}
	return nil
}
