// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package azure

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	storageManagement "github.com/Azure/azure-sdk-for-go/services/storage/mgmt/2018-11-01/storage"
	"github.com/Azure/go-autorest/autorest"
	"github.com/Azure/go-autorest/autorest/azure"
	"github.com/Azure/go-autorest/autorest/azure/auth"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

const storageKeyHelp = "Please set AZURE_STORAGE_KEY environment variable, or AZURE_SUBSCRIPTION_ID, AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET"

var (
	defaultSettings    map[string]string
	defaultEnvironment *azure.Environment
)

func settings() (map[string]string, *azure.Environment, error) {
	if defaultSettings != nil && defaultEnvironment != nil {
		return defaultSettings, defaultEnvironment, nil
	}
	set, err := auth.GetSettingsFromEnvironment()
	if err != nil {
		file, err2 := auth.GetSettingsFromFile()
		if err2 != nil {
			return nil, nil, fmt.Errorf("Errors retrieving Azure settings: %v", util.Errors2(err, err2))
		}
		env := &azure.PublicCloud
		if name := file.Values[auth.EnvironmentName]; name != "" {
			named, err := azure.EnvironmentFromName(name)
			if err != nil {
				return nil, nil, err
			}
			env = &named
		}
		defaultSettings, defaultEnvironment = file.Values, env
	} else {
		env := set.Environment
		defaultSettings, defaultEnvironment = set.Values, &env
	}
	if config.Trace {
		log.Printf("Azure settings:\n\t%v", defaultSettings)
	}
	return defaultSettings, defaultEnvironment, nil
}

func authorizer(resourcePick func(env *azure.Environment) string) (autorest.Authorizer, error) {
	resource := resourcePick(&azure.PublicCloud)
	if _, env, err := settings(); err == nil && env != nil {
		resource = resourcePick(env)
	}
	resource = strings.TrimSuffix(resource, "/")

	var errs []error
	if authLocation := os.Getenv("AZURE_AUTH_LOCATION"); config.AzureCredentialsFile != "" || authLocation != "" {
		if config.AzureCredentialsFile != "" {
			os.Setenv("AZURE_AUTH_LOCATION", config.AzureCredentialsFile)
		}
		authz, err := auth.NewAuthorizerFromFile(resource)
		if err == nil {
			return authz, nil
		}
		errs = append(errs, err)
	} else {
		authz, err := auth.NewAuthorizerFromEnvironmentWithResource(resource)
		if err == nil {
			return authz, nil
		}
		errs = append(errs, err)
		authz, err = auth.NewAuthorizerFromCLIWithResource(resource)
		if err == nil {
			return authz, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("Unable to create Azure authorizer: %v", util.Errors2(errs...))
}

func storageKeyFromApi(ctx context.Context, account string) (string, error) {
	authz, err := authorizer(func(env *azure.Environment) string { return env.ServiceManagementEndpoint })
	if err != nil {
		return "", err
	}
	sets, _, _ := settings()
	client := storageManagement.NewAccountsClient(sets[auth.SubscriptionID])
	client.Authorizer = authz

	resourceGroupName := os.Getenv("AZURE_RESOURCE_GROUP_NAME")
	if resourceGroupName == "" {
		resourceGroupName = "wlsctl"
		util.WarnOnce("Using hardcoded `%s` Azure resource group; set AZURE_RESOURCE_GROUP_NAME to override",
			resourceGroupName)
	}
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	resp, err := client.ListKeys(ctx, resourceGroupName, account)
	if err != nil {
		return "", fmt.Errorf("Error listing storage account `%s` access keys: %v;\n\t%s",
			account, err, storageKeyHelp)
	}
	if keys := resp.Keys; keys != nil {
		for _, keyEntry := range *keys {
			if key := keyEntry.Value; key != nil && *key != "" {
				return *key, nil
			}
		}
	}
	return "", fmt.Errorf("No storage account `%s` access keys found;\n\t%s", account, storageKeyHelp)
}

func storageKey(ctx context.Context, account string) (string, error) {
	for _, v := range []string{"AZURE_STORAGE_ACCESS_KEY", "AZURE_STORAGE_KEY", "ARM_ACCESS_KEY"} {
		if key := os.Getenv(v); key != "" {
			return key, nil
		}
	}
	return storageKeyFromApi(ctx, account)
}
