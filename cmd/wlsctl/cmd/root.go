// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "wlsctl",
	Short: "wlsctl deploys applications to WebLogic Server domains",
	Long: `wlsctl deploys an application archive to a WebLogic Server domain
through the domain administration server:
- connect, deploy, activate, disconnect, exactly once, no retries;
- raw archives from local disk, S3, GCS, Azure blob storage, or base64 encoded archives;
- deployment properties from a Java-style .properties file, WLSCTL_* environment, and flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Update(); err != nil {
			return err
		}
		if config.Debug {
			log.Printf("wlsctl %s %s", util.Version(), runtime.Version())
		}
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		util.PrintAllWarnings()
	},
}

// Execute runs the command and exits with its code: 0 on success, 1 on any
// failure.
func Execute() {
	cmdCtx := &CmdContext{}
	ctx := context.WithValue(util.WatchInterrupt(context.Background()), contextKey, cmdCtx)
	RootCmd.SetArgs(legacyArgs(os.Args[1:]))
	err := RootCmd.ExecuteContext(ctx)
	util.Done()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	os.Exit(cmdCtx.ExitCode)
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&config.ConfigFile, "config", "", "Config file (default is $HOME/.wlsctl-config.{yaml,json})")
	RootCmd.PersistentFlags().StringVar(&config.CacheFile, "cache", "", "Cache file (default is $HOME/.wlsctl-cache.yaml)")

	RootCmd.PersistentFlags().IntVar(&config.ApiTimeout, "api-timeout", 60, "Admin server API HTTP request timeout in seconds")
	RootCmd.PersistentFlags().BoolVar(&config.ApiInsecureTLS, "insecure", false, "Skip admin server TLS certificate verification")

	RootCmd.PersistentFlags().StringVar(&config.AwsProfile, "aws_profile", "", "AWS ~/.aws/credentials profile, AWS_PROFILE")
	awsRegion := util.Coalesce(os.Getenv("AWS_REGION"), os.Getenv("AWS_DEFAULT_REGION"))
	RootCmd.PersistentFlags().StringVar(&config.AwsRegion, "aws_region", awsRegion, "AWS region hint (for S3 archive access), AWS_DEFAULT_REGION")
	RootCmd.PersistentFlags().BoolVar(&config.AwsUseIamRoleCredentials, "aws_use_iam_role_credentials", true, "Try EC2 instance credentials")
	RootCmd.PersistentFlags().BoolVar(&config.AwsPreferProfileCredentials, "aws_prefer_profile_credentials", false, "Try AWS CLI config profile credentials first, before OS env")

	RootCmd.PersistentFlags().StringVar(&config.GcpCredentialsFile, "gcp_credentials_file", "", "Path to GCP Service Account keys JSON file, GOOGLE_APPLICATION_CREDENTIALS")
	RootCmd.PersistentFlags().StringVar(&config.AzureCredentialsFile, "azure_credentials_file", "", "Path to Azure Service Principal auth JSON file, AZURE_AUTH_LOCATION")

	RootCmd.PersistentFlags().BoolVarP(&config.Verbose, "verbose", "v", true, "Verbose mode")
	RootCmd.PersistentFlags().BoolVarP(&config.Debug, "debug", "d", false, "Print debug info. Or set WLSCTL_DEBUG=1")
	RootCmd.PersistentFlags().BoolVar(&config.Trace, "trace", false, "Print detailed trace info, including admin server HTTP requests. Or set WLSCTL_TRACE=1")
	RootCmd.PersistentFlags().StringVar(&config.LogDestination, "log-destination", "stderr", "stderr or stdout")
	RootCmd.PersistentFlags().StringVar(&config.TtyMode, "tty", "autodetect", "Terminal mode for colors, etc. true / false. Or set WLSCTL_TTY")

	RootCmd.PersistentFlags().BoolVar(&config.AggWarnings, "all-warnings", true, "Repeat all warnings before exit")

	RootCmd.PersistentFlags().BoolVar(&config.Compressed, "compressed", true, "Write gzip compressed reports and encrypted archives")
	RootCmd.PersistentFlags().StringVar(&config.EncryptionMode, "encrypted", "if-key-set",
		"Write encrypted files if WLSCTL_CRYPTO_PASSWORD, WLSCTL_CRYPTO_AWS_KMS_KEY_ARN, WLSCTL_CRYPTO_AZURE_KEYVAULT_KEY_ID, WLSCTL_CRYPTO_GCP_KMS_KEY_NAME is set. true / false")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	home, err := homedir.Dir()
	if err != nil {
		util.Warn("Unable to determine HOME directory: %v", err)
	}
	if config.ConfigFile != "" {
		viper.SetConfigFile(config.ConfigFile)
	} else if err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".wlsctl-config")
	}
	if config.CacheFile == "" && err == nil {
		config.CacheFile = fmt.Sprintf("%s/.wlsctl-cache.yaml", home)
	}

	viper.SetEnvPrefix("wlsctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err == nil {
		if config.Verbose {
			log.Printf("Using config file %s", viper.ConfigFileUsed())
		}
	}
	if viper.GetBool("debug") {
		config.Debug = true
	}
	if viper.GetBool("trace") {
		config.Trace = true
	}
	if tty := viper.GetString("tty"); tty != "" {
		config.TtyMode = tty
	}
	if timeout := viper.GetInt("api-timeout"); timeout > 0 && !RootCmd.PersistentFlags().Changed("api-timeout") {
		config.ApiTimeout = timeout
	}
	if viper.GetBool("insecure") {
		config.ApiInsecureTLS = true
	}
	if pass := viper.GetString("crypto-password"); pass != "" {
		config.CryptoPassword = pass
	}
	if key := viper.GetString("crypto-aws-kms-key-arn"); key != "" {
		config.CryptoAwsKmsKeyArn = key
	}
	if key := viper.GetString("crypto-azure-keyvault-key-id"); key != "" {
		config.CryptoAzureKeyVaultKeyId = key
	}
	if key := viper.GetString("crypto-gcp-kms-key-name"); key != "" {
		config.CryptoGcpKmsKeyName = key
	}
}
