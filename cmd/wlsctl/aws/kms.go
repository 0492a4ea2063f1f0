// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package aws

import (
	"strings"

	awsaws "github.com/aws/aws-sdk-go/aws"
	awskms "github.com/aws/aws-sdk-go/service/kms"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

// KmsKey returns a new data key and its encrypted blob when blob is empty,
// otherwise decrypts the blob.
func KmsKey(arn string, blob []byte) ([]byte, []byte, error) {
	sess, err := session(arnRegion(arn), "KMS")
	if err != nil {
		return nil, nil, err
	}
	kms := awskms.New(sess)
	if len(blob) == 0 {
		resp, err := kms.GenerateDataKey(
			&awskms.GenerateDataKeyInput{
				KeyId:   &arn,
				KeySpec: awsaws.String("AES_256"),
			})
		if err != nil {
			return nil, nil, err
		}
		return resp.Plaintext, resp.CiphertextBlob, nil
	}
	resp, err := kms.Decrypt(
		&awskms.DecryptInput{
			CiphertextBlob:      blob,
			EncryptionAlgorithm: awsaws.String("SYMMETRIC_DEFAULT"),
			KeyId:               &arn,
		})
	if err != nil {
		return nil, nil, err
	}
	return resp.Plaintext, blob, nil
}

func arnRegion(arn string) string {
	region := config.AwsRegion
	parts := strings.Split(arn, ":")
	if len(parts) > 5 && parts[3] != "" {
		region = parts[3]
	}
	return region
}
