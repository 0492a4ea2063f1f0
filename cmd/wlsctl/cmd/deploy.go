// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/deployment"
	"github.com/epam/wlsctl/cmd/wlsctl/filecache"
	"github.com/epam/wlsctl/cmd/wlsctl/metrics"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
	"github.com/epam/wlsctl/cmd/wlsctl/weblogic"
)

var (
	propertiesFile     string
	skipModuleScanning bool
	workDir            string
	reportPaths        string
	rememberRuns       bool

	deployOverrides        = make(map[string]*string)
	deployEncodedOverrides = make(map[string]*string)
)

var deployCmd = &cobra.Command{
	Use:     "deploy",
	Short:   "Deploy application archive",
	Aliases: []string{"application_deployment.py"},
	Long: `Deploy application archive to WebLogic Server domain: connect to the
admin server, deploy, activate, disconnect.

The archive is set by archive_path property and could be a local file or
s3://, gs://, az:// URL. Remote, gzipped, or encrypted archives are staged
into --workdir first. Application name is the archive base name without
extension.

Properties file:

	admin_username=weblogic
	admin_password=welcome1
	admin_host=admin-server
	admin_port=7001
	archive_path=/u01/apps/myapp.ear
	targets=cluster-1

Exit code is 0 on success and 1 on any failure.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deploy(cmd, deployment.ArchiveVariant, deployOverrides)
	},
}

var deployEncodedCmd = &cobra.Command{
	Use:     "deploy-encoded",
	Short:   "Deploy base64 encoded application archive",
	Aliases: []string{"application_deploymentcm.py"},
	Long: `Decode base64 encoded archive set by node_archive_path property into
--workdir, then deploy it to WebLogic Server domain: connect to the admin
server, deploy, activate, disconnect.

Use 'wlsctl util encode' to produce the encoded archive, ie. for a
Kubernetes config map mounted on the node.

Exit code is 0 on success and 1 on any failure.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deploy(cmd, deployment.EncodedVariant, deployEncodedOverrides)
	},
}

func deploy(cmd *cobra.Command, variant deployment.Variant, flagOverrides map[string]*string) error {
	if skipModuleScanning && config.Debug {
		log.Print("WebLogic module scanning is not performed by wlsctl; --skip-module-scanning is accepted for compatibility")
	}
	overrides := make(map[string]string, len(flagOverrides))
	for name, value := range flagOverrides {
		overrides[name] = *value
	}

	var res *deployment.Result
	props, err := deployment.LoadProperties(propertiesFile, overrides)
	if err != nil {
		res = deployment.Failed(err)
	} else {
		res = deployment.Run(cmd.Context(), deployment.Request{
			Properties: props,
			Variant:    variant,
			WorkDir:    workDir,
		}, openSession)
	}

	if !res.Ok() {
		deployment.PrintFailure(cmd.OutOrStdout(), res, usage(cmd))
	}
	if reportPaths != "" {
		deployment.WriteReport(cmd.Context(), util.SplitPaths(reportPaths), res)
	}
	if rememberRuns && res.Plan != nil {
		err := filecache.RememberDeployment(filecache.Deployment{
			Url:         res.Plan.URL,
			Application: res.Plan.ApplicationName,
			Id:          res.ID,
			Outcome:     res.Outcome.String(),
			At:          res.Started.UTC().Format(time.RFC3339),
		})
		if err != nil {
			util.Warn("Unable to record deployment in cache: %v", err)
		}
	}
	metrics.MeterCommand(cmd, res.Outcome.String())

	if config.Verbose {
		log.Printf("Deployment %s finished with %s in %v", res.ID, res.Outcome, res.Duration.Round(time.Millisecond))
	}
	setExitCode(cmd, res.ExitCode)
	return nil
}

func openSession(app weblogic.Application) deployment.Session {
	return weblogic.NewRestSession(weblogic.Options{
		Defaults:           &app,
		TimeoutSec:         config.ApiTimeout,
		InsecureSkipVerify: config.ApiInsecureTLS,
	})
}

func usage(cmd *cobra.Command) string {
	return fmt.Sprintf("Call script as: \n%s -skipWLSModuleScanning -loadProperties domain.properties\n", cmd.CommandPath())
}

func propertyFlags(cmd *cobra.Command, overrides map[string]*string, names ...string) {
	for _, name := range names {
		value := new(string)
		overrides[name] = value
		cmd.Flags().StringVar(value, strings.ReplaceAll(name, "_", "-"), "",
			fmt.Sprintf("Set %s property, overrides properties file and WLSCTL_%s", name, strings.ToUpper(name)))
	}
}

func init() {
	for _, cmd := range []*cobra.Command{deployCmd, deployEncodedCmd} {
		cmd.Flags().StringVar(&propertiesFile, "load-properties", "",
			"Deployment properties file (admin_username, admin_password, admin_host, admin_port, archive path, targets)")
		cmd.Flags().BoolVar(&skipModuleScanning, "skip-module-scanning", false, "Accepted for WLST invocation compatibility")
		cmd.Flags().StringVar(&workDir, "workdir", ".", "Directory to decode or stage the archive into")
		cmd.Flags().StringVar(&reportPaths, "report", "",
			"Write deployment report to comma separated paths (local, s3://, gs://, az://), {{application}}, {{id}}, {{variant}} are substituted")
		cmd.Flags().BoolVar(&rememberRuns, "remember", true, "Record deployment outcome in cache file")
		RootCmd.AddCommand(cmd)
	}
	common := []string{"admin_username", "admin_password", "admin_host", "admin_port", "admin_protocol", "targets"}
	propertyFlags(deployCmd, deployOverrides, append(common, "archive_path")...)
	propertyFlags(deployEncodedCmd, deployEncodedOverrides, append(common, "node_archive_path")...)
}
