// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployment

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/epam/wlsctl/cmd/wlsctl/storage"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
	"github.com/epam/wlsctl/cmd/wlsctl/weblogic"
)

// Plan is the assembled configuration of a single deployment run.
type Plan struct {
	Variant  Variant
	URL      string
	Username string
	Password string
	// Source is the archive path as configured, local or remote, raw or base64.
	Source          string
	ArchiveName     string
	ApplicationName string
	Targets         []string
	Remote          bool
	Upload          bool
	// Archive is the local file handed to the admin server, set by Materialize.
	Archive string
}

// Assemble validates properties and computes the connection URL and the
// application name.
func Assemble(props *Properties, variant Variant) (*Plan, error) {
	if err := props.Validate(variant); err != nil {
		return nil, err
	}
	source := props.ArchivePathFor(variant)
	archiveName := ArchiveName(source)
	appName := ApplicationName(source)
	if appName == "" {
		return nil, &ConfigError{
			Invalid: []string{fmt.Sprintf("%s (`%s` has no application name)", variant.ArchiveProperty(), source)},
		}
	}
	targets := util.SplitPaths(props.Targets)
	if len(targets) == 0 {
		return nil, &ConfigError{Missing: []string{"targets"}}
	}
	protocol := util.Coalesce(props.Protocol, defaultProtocol)
	return &Plan{
		Variant:         variant,
		URL:             fmt.Sprintf("%s://%s:%s", protocol, props.AdminHost, props.AdminPort),
		Username:        props.AdminUsername,
		Password:        props.AdminPassword,
		Source:          source,
		ArchiveName:     archiveName,
		ApplicationName: appName,
		Targets:         targets,
		Remote:          true,
		Upload:          true,
		Archive:         source,
	}, nil
}

// ArchiveName is the base name of a local path or a storage URL.
func ArchiveName(archivePath string) string {
	if storage.IsRemote(archivePath) {
		return path.Base(archivePath)
	}
	return filepath.Base(archivePath)
}

// ApplicationName is the archive base name with its final extension removed.
func ApplicationName(archivePath string) string {
	name := ArchiveName(archivePath)
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// Application is what the session deploys and activates.
func (p *Plan) Application() weblogic.Application {
	return weblogic.Application{
		Name:    p.ApplicationName,
		Archive: p.Archive,
		Targets: p.Targets,
		Remote:  p.Remote,
		Upload:  p.Upload,
	}
}
