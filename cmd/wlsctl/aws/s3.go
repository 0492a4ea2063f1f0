// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	awss3 "github.com/aws/aws-sdk-go/service/s3"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

var (
	bucketRegion = make(map[string]string)
	regionS3     = make(map[string]*awss3.S3)
)

func s3Location(s3path string) (string, string, error) {
	location, err := url.Parse(s3path)
	if err != nil {
		return "", "", err
	}
	key := strings.TrimPrefix(location.Path, "/")
	if location.Host == "" || key == "" {
		return "", "", fmt.Errorf("Bad S3 path `%s`; expected s3://bucket/key", s3path)
	}
	return location.Host, key, nil
}

func bucketS3(ctx context.Context, bucket string) (*awss3.S3, error) {
	region, exist := bucketRegion[bucket]
	if !exist {
		s3, err := regionalS3(config.AwsRegion)
		if err != nil {
			return nil, err
		}
		location, err := s3.GetBucketLocationWithContext(ctx,
			&awss3.GetBucketLocationInput{Bucket: &bucket})
		if err != nil {
			return nil, fmt.Errorf("Unable to determine AWS bucket `%s` region: %v", bucket, err)
		}
		region = "us-east-1"
		if location.LocationConstraint != nil && *location.LocationConstraint != "" {
			region = *location.LocationConstraint
		}
		if config.Debug {
			log.Printf("S3 bucket `%s` region is %s", bucket, region)
		}
		bucketRegion[bucket] = region
	}
	return regionalS3(region)
}

func regionalS3(region string) (*awss3.S3, error) {
	if s3, exist := regionS3[region]; exist {
		return s3, nil
	}
	sess, err := session(region, "S3")
	if err != nil {
		return nil, err
	}
	s3 := awss3.New(sess)
	regionS3[region] = s3
	return s3, nil
}

func ReadS3(ctx context.Context, s3path string) ([]byte, error) {
	bucket, key, err := s3Location(s3path)
	if err != nil {
		return nil, err
	}
	s3, err := bucketS3(ctx, bucket)
	if err != nil {
		return nil, err
	}
	obj, err := s3.GetObjectWithContext(ctx, &awss3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("Failed to GET S3 object `%s`: %v\n\t%s", s3path, err, optionsHelp)
	}
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("Failed to read S3 object `%s`: %v", s3path, err)
	}
	return data, nil
}

func WriteS3(ctx context.Context, s3path string, body []byte) error {
	bucket, key, err := s3Location(s3path)
	if err != nil {
		return err
	}
	s3, err := bucketS3(ctx, bucket)
	if err != nil {
		return err
	}
	_, err = s3.PutObjectWithContext(ctx, &awss3.PutObjectInput{
		Body:   bytes.NewReader(body),
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("Failed to PUT S3 object `%s`: %v\n\t%s", s3path, err, optionsHelp)
	}
	return nil
}
