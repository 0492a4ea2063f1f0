// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployment

import (
	"context"
	"fmt"
	"time"

	"github.com/alexkappa/mustache"
	"gopkg.in/yaml.v2"

	"github.com/epam/wlsctl/cmd/wlsctl/storage"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

type Report struct {
	Version     int
	Id          string
	Tool        string
	Variant     string   `yaml:",omitempty"`
	Application string   `yaml:",omitempty"`
	Source      string   `yaml:",omitempty"`
	Archive     string   `yaml:",omitempty"`
	Targets     []string `yaml:",omitempty"`
	Url         string   `yaml:",omitempty"`
	Username    string   `yaml:",omitempty"`
	State       string
	Outcome     string
	ExitCode    int    `yaml:"exitCode"`
	Failed      string `yaml:",omitempty"`
	Error       string `yaml:",omitempty"`
	Started     time.Time
	Duration    string
}

// NewReport describes the result. It never carries the admin password.
func NewReport(res *Result) *Report {
	report := &Report{
		Version:  1,
		Id:       res.ID,
		Tool:     "wlsctl " + util.Version(),
		State:    res.State.String(),
		Outcome:  res.Outcome.String(),
		ExitCode: res.ExitCode,
		Started:  res.Started.UTC().Truncate(time.Second),
		Duration: res.Duration.Round(time.Millisecond).String(),
	}
	if plan := res.Plan; plan != nil {
		report.Variant = string(plan.Variant)
		report.Application = plan.ApplicationName
		report.Source = plan.Source
		report.Archive = plan.Archive
		report.Targets = plan.Targets
		report.Url = plan.URL
		report.Username = plan.Username
	}
	if res.Err != nil {
		report.Error = res.Err.Error()
		if opErr, ok := res.Err.(*OperationError); ok {
			report.Failed = opErr.Op
		}
	}
	return report
}

// ReportPaths renders {{application}}, {{id}}, and {{variant}} in report paths.
func ReportPaths(templates []string, res *Result) ([]string, error) {
	kv := map[string]interface{}{"id": res.ID, "application": "", "variant": ""}
	if res.Plan != nil {
		kv["application"] = res.Plan.ApplicationName
		kv["variant"] = string(res.Plan.Variant)
	}
	paths := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		template := mustache.New(mustache.SilentMiss(false))
		if err := template.ParseString(tmpl); err != nil {
			return nil, fmt.Errorf("Unable to parse report path template `%s`: %v", tmpl, err)
		}
		path, err := template.RenderString(kv)
		if err != nil {
			return nil, fmt.Errorf("Unable to render report path template `%s`: %v", tmpl, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteReport stores the report in every path. Failures are warnings only
// and never change the outcome of the run.
func WriteReport(ctx context.Context, templates []string, res *Result) []string {
	if len(templates) == 0 {
		return nil
	}
	paths, err := ReportPaths(templates, res)
	if err != nil {
		util.Warn("%v", err)
		return nil
	}
	data, err := yaml.Marshal(NewReport(res))
	if err != nil {
		util.Warn("Unable to marshal deployment report: %v", err)
		return nil
	}
	written, errs := storage.Write(ctx, paths, "report", data)
	if len(errs) > 0 {
		util.Warn("Unable to write deployment report: %s", util.Errors2(errs...))
	}
	return written
}
