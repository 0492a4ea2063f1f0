// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package metrics

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/filecache"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

const ddApiKeyEnvVarName = "DD_CLIENT_API_KEY"

// DDKey is set by -ldflags -X at build time
var (
	DDKey        string
	ddKey        string
	cachedConfig *filecache.Metrics
)

func init() {
	ddKey = util.Coalesce(DDKey, os.Getenv(ddApiKeyEnvVarName))
}

// MeterCommand sends the usage counter for the command and its outcome from
// a detached `wlsctl util metrics` process.
func MeterCommand(cmd *cobra.Command, outcome string) {
	if ddKey == "" {
		return
	}
	if err := meterCommand(cmd, outcome); err != nil {
		util.Warn("Unable to send usage metrics: %v", err)
	}
}

func meterCommand(cmd *cobra.Command, outcome string) error {
	enabled, _, err := meteringConfig()
	if err != nil {
		return fmt.Errorf("Unable to load metrics config: %v", err)
	}
	if !enabled {
		if config.Trace {
			log.Print("Usage metering is not enabled")
		}
		return nil
	}
	bin, err := os.Executable()
	if err != nil {
		return fmt.Errorf("Unable to determine path to wlsctl executable: %v", err)
	}
	os.Setenv(ddApiKeyEnvVarName, ddKey)
	args := []string{"wlsctl", "util", "metrics", CommandStr(cmd)}
	if outcome != "" {
		args = append(args, "outcome:"+outcome)
	}
	child := exec.Cmd{Path: bin, Args: args}
	if config.Trace {
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
	}
	if err := child.Start(); err != nil {
		return err
	}
	go child.Wait()
	return nil
}

// CommandStr is the command path without arguments, ie. wlsctl-util-encode.
func CommandStr(cmd *cobra.Command) string {
	var parts []string
	for c := cmd; c != nil; c = c.Parent() {
		use := c.Use
		if i := strings.Index(use, " "); i > 0 {
			use = use[:i]
		}
		parts = append([]string{use}, parts...)
	}
	return strings.Join(parts, "-")
}

func meteringConfig() (bool, string, error) {
	conf := cachedConfig
	if conf == nil {
		file, cache, err := filecache.ReadCache(os.O_RDONLY)
		if err != nil {
			return false, "", err
		}
		if file != nil {
			file.Close()
		}
		if cache != nil {
			conf = &cache.Metrics
		}
	}
	if conf != nil && conf.Disabled {
		cachedConfig = conf
		return false, "", nil
	}
	if conf == nil {
		conf = &filecache.Metrics{}
	}
	// generate and save machine id in interactive session
	var writeErr error
	if conf.Host == nil && config.Tty {
		u, err := uuid.NewRandom()
		if err != nil {
			util.Warn("Unable to generate host random v4 UUID: %v", err)
		} else {
			host := u.String()
			conf.Host = &host
			writeErr = filecache.Update(func(cache *filecache.FileCache) {
				cache.Metrics = *conf
			})
		}
	}
	cachedConfig = conf
	host := ""
	if conf.Host != nil {
		host = *conf.Host
	}
	return true, host, writeErr
}
