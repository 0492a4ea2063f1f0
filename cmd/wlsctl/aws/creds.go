// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package aws

import (
	"fmt"
	"log"

	awsaws "github.com/aws/aws-sdk-go/aws"
	awscredentials "github.com/aws/aws-sdk-go/aws/credentials"
	awsec2rolecreds "github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	awsec2metadata "github.com/aws/aws-sdk-go/aws/ec2metadata"
	awssession "github.com/aws/aws-sdk-go/aws/session"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

const optionsHelp = "Try --aws_profile and --aws_region command-line options"

var credentialsCache = make(map[string]*awscredentials.Credentials)

func cachedCredentials(purpose string) *awscredentials.Credentials {
	creds, exist := credentialsCache[purpose]
	if !exist {
		profile := "default"
		if config.AwsProfile != "" {
			profile = config.AwsProfile
		}
		creds = profileCredentials(profile, purpose)
		credentialsCache[purpose] = creds
	}
	return creds
}

func profileCredentials(profile, purpose string) *awscredentials.Credentials {
	if config.Debug {
		printEC2Metadata := ""
		if config.AwsUseIamRoleCredentials {
			printEC2Metadata = " and EC2 metadata"
		}
		log.Printf("Asking `%s` AWS profile%s for credentials to access %s",
			profile, printEC2Metadata, purpose)
	}
	shared := &awscredentials.SharedCredentialsProvider{Profile: profile}
	env := &awscredentials.EnvProvider{}
	providers := []awscredentials.Provider{env, shared}
	if config.AwsPreferProfileCredentials {
		providers = []awscredentials.Provider{shared, env}
	}
	if config.AwsUseIamRoleCredentials {
		providers = append(providers, &awsec2rolecreds.EC2RoleProvider{Client: awsec2metadata.New(awssession.New())})
	}
	return awscredentials.NewCredentials(&awscredentials.ChainProvider{Providers: providers, VerboseErrors: config.Verbose})
}

func session(region, purpose string) (*awssession.Session, error) {
	awsConfig := awsaws.NewConfig()
	if region != "" {
		awsConfig = awsConfig.WithRegion(region)
	}
	awsConfig = awsConfig.WithCredentials(cachedCredentials(purpose))
	sess, err := awssession.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("Error initializing AWS session for %s: %v", purpose, err)
	}
	return sess, nil
}
