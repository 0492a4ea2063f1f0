// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployment

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

// PrintFailure writes the diagnostic for a failed run: usage text for
// configuration errors, session dump and error chain for everything else.
func PrintFailure(w io.Writer, res *Result, usage string) {
	if res == nil || res.Err == nil {
		return
	}
	var configErr *ConfigError
	if errors.As(res.Err, &configErr) {
		fmt.Fprintln(w, "Apparently properties not set.")
		names := configErr.Properties()
		if len(names) > 0 {
			fmt.Fprintf(w, "Please check the property: %s\n", strings.Join(names, ", "))
		}
		fmt.Fprintln(w, util.ErrorColor(configErr.Error()))
		if usage != "" {
			fmt.Fprint(w, usage)
			if !strings.HasSuffix(usage, "\n") {
				fmt.Fprintln(w)
			}
		}
		return
	}

	fmt.Fprintln(w, util.ErrorColor("Deployment failed"))
	if res.Dump != "" {
		fmt.Fprint(w, res.Dump)
		if !strings.HasSuffix(res.Dump, "\n") {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprint(w, ErrorChain(res.Err))
}

// ErrorChain renders an error and every error it wraps, outermost first.
func ErrorChain(err error) string {
	var b strings.Builder
	prefix := "Error: "
	prev := ""
	for ; err != nil; err = errors.Unwrap(err) {
		msg := err.Error()
		if msg == prev {
			continue
		}
		fmt.Fprintf(&b, "%s%s\n", prefix, msg)
		prefix = "\tcaused by: "
		prev = msg
	}
	return b.String()
}
