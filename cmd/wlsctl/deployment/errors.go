// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployment

import (
	"fmt"
	"strings"

	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

// ConfigError is a user input mistake: required properties are not set or
// carry unusable values. It is reported with usage text and never retried.
type ConfigError struct {
	Missing []string
	Invalid []string
	Err     error
}

func (e *ConfigError) Error() string {
	parts := make([]string, 0, 3)
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%s not set: %s",
			util.Plural(len(e.Missing), "Property", "Properties"), strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("%s invalid: %s",
			util.Plural(len(e.Invalid), "Property", "Properties"), strings.Join(e.Invalid, ", ")))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return "Configuration error"
	}
	return strings.Join(parts, "; ")
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Properties lists offending property names, missing first.
func (e *ConfigError) Properties() []string {
	names := make([]string, 0, len(e.Missing)+len(e.Invalid))
	names = append(names, e.Missing...)
	for _, invalid := range e.Invalid {
		if i := strings.Index(invalid, " "); i > 0 {
			invalid = invalid[:i]
		}
		names = append(names, invalid)
	}
	return util.UniqInOrder(names)
}

// OperationError is any failure past configuration assembly: archive
// materialization, or a call to the admin server.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

const (
	OpDecode     = "decode"
	OpStage      = "stage"
	OpConnect    = "connect"
	OpDeploy     = "deploy"
	OpActivate   = "activate"
	OpDisconnect = "disconnect"
)
