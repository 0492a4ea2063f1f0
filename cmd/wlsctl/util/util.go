// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

var (
	warnings        = make([]string, 0)
	warningsEmitted = make(map[string]struct{})
	HighlightColor  = maybeHighlight(aurora.BrightCyan)
	WarnColor       = maybeHighlight(aurora.BrightMagenta)
	ErrorColor      = maybeHighlight(aurora.BrightRed)
	logTerminal     *bool
)

func maybeHighlight(color func(interface{}) aurora.Value) func(string) string {
	return func(str string) string {
		if config.Tty && (IsLogTerminal() || config.TtyForced) {
			str = color(str).String()
		}
		return str
	}
}

func IsLogTerminal() bool {
	if logTerminal != nil {
		return *logTerminal
	}
	fd := os.Stderr.Fd()
	if config.LogDestination == "stdout" {
		fd = os.Stdout.Fd()
	}
	tty := isatty.IsTerminal(fd)
	logTerminal = &tty
	return tty
}

func Warn(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	log.Printf(WarnColor("WARN: %s"), msg)
	if config.AggWarnings {
		warnings = append(warnings, msg)
	}
}

func WarnOnce(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if _, emitted := warningsEmitted[msg]; emitted {
		return
	}
	warningsEmitted[msg] = struct{}{}
	Warn("%s", msg)
}

func PrintAllWarnings() {
	if !config.AggWarnings || len(warnings) == 0 {
		return
	}
	if config.Verbose {
		log.Print(WarnColor("All warnings combined:"))
	}
	io.WriteString(log.Writer(), strings.Join(UniqInOrder(warnings), "\n"))
	io.WriteString(log.Writer(), "\n")
	warnings = warnings[:0]
}

func Errors(sep string, maybeErrors ...error) string {
	if sep == "" {
		sep = ", "
	}
	errs := make([]string, 0, len(maybeErrors))
	for _, err := range maybeErrors {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) == 0 {
		return "(no errors)"
	}
	return strings.Join(UniqInOrder(errs), sep)
}

func Errors2(maybeErrors ...error) string {
	return Errors("", maybeErrors...)
}

func Coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func UniqInOrder(source []string) []string {
	result := make([]string, 0, len(source))
	seen := make(map[string]struct{})
	for _, str := range source {
		if _, exist := seen[str]; !exist {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}

func Contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func Plural(size int, noun ...string) string {
	l := len(noun)
	if l == 0 {
		return ""
	}
	if size > 1 {
		if l > 1 {
			return noun[1]
		}
		return fmt.Sprintf("%ss", noun[0])
	}
	return noun[0]
}

// SplitPaths splits a comma separated list, dropping blanks around items.
func SplitPaths(paths string) []string {
	if strings.TrimSpace(paths) == "" {
		return []string{}
	}
	parts := strings.Split(paths, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}

func NoSuchFile(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func ContextCanceled(err error) bool {
	if err == nil {
		return false
	}
	str := err.Error()
	return errors.Is(err, context.Canceled) ||
		strings.Contains(str, ": context canceled") ||
		strings.Contains(str, ": operation was canceled")
}

func Mask(secret string) string {
	if secret == "" || config.Trace {
		return secret
	}
	return "(masked)"
}
