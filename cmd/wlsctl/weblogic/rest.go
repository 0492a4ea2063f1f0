// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package weblogic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

const defaultMinVersion = "12.2.1.3"

var schemes = map[string]string{
	"t3":    "http",
	"t3s":   "https",
	"http":  "http",
	"https": "https",
}

// RestSession talks to the admin server through WebLogic RESTful Management Services.
// It is not safe for concurrent use.
type RestSession struct {
	opts     Options
	client   *http.Client
	// uploads carries archive bodies without an overall request deadline
	uploads  *http.Client
	baseURL  string
	username string
	password string

	connected     bool
	editing       bool
	serverVersion string
	clusters      map[string]struct{}

	trail     []call
	lastError string
}

func NewRestSession(opts Options) *RestSession {
	if opts.MinVersion == "" {
		opts.MinVersion = defaultMinVersion
	}
	timeout := time.Duration(opts.TimeoutSec) * time.Second
	return &RestSession{
		opts:    opts,
		client:  util.RobustHttpClient(timeout, opts.InsecureSkipVerify),
		uploads: util.StreamingHttpClient(timeout, opts.InsecureSkipVerify),
	}
}

// BaseURL maps an admin URL such as t3://host:7001 onto its HTTP equivalent.
func BaseURL(adminURL string) (string, error) {
	u, err := url.Parse(adminURL)
	if err != nil {
		return "", fmt.Errorf("Unable to parse admin URL `%s`: %v", adminURL, err)
	}
	scheme, supported := schemes[strings.ToLower(u.Scheme)]
	if !supported {
		return "", fmt.Errorf("Admin URL `%s` scheme `%s` not supported; use t3, t3s, http, or https", adminURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("Admin URL `%s` has no host", adminURL)
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host), nil
}

func (s *RestSession) Connect(ctx context.Context, username, password, adminURL string) error {
	base, err := BaseURL(adminURL)
	if err != nil {
		return err
	}
	s.baseURL, s.username, s.password = base, username, password
	s.connected, s.editing, s.clusters = false, false, nil

	if err := s.checkVersion(ctx); err != nil {
		return err
	}
	var domain nameResource
	if err := s.get(ctx, "domainRuntime?links=none&fields=name", &domain); err != nil {
		return fmt.Errorf("Unable to connect to `%s` as `%s`: %w", adminURL, username, err)
	}
	if config.Verbose {
		log.Printf("Connected to domain `%s` at %s", domain.Name, base)
	}
	s.connected = true

	if err := s.post(ctx, "edit/changeManager/startEdit", nil, nil); err != nil {
		return fmt.Errorf("Unable to start edit session: %w", err)
	}
	s.editing = true
	return nil
}

func (s *RestSession) checkVersion(ctx context.Context) error {
	var res versionResource
	if err := s.get(ctx, "?links=none", &res); err != nil {
		if errors.Is(err, errNotFound) {
			return fmt.Errorf("No WebLogic RESTful Management Services at %s; is RESTful management enabled on the domain?", s.baseURL)
		}
		return fmt.Errorf("Unable to reach admin server %s: %w", s.baseURL, err)
	}
	s.serverVersion = res.Version
	got, err := version.NewVersion(res.Version)
	if err != nil {
		util.WarnOnce("Unable to parse WebLogic Server version `%s`: %v", res.Version, err)
		return nil
	}
	min, err := version.NewVersion(s.opts.MinVersion)
	if err != nil {
		return fmt.Errorf("Bad minimal WebLogic Server version `%s`: %v", s.opts.MinVersion, err)
	}
	if got.LessThan(min) {
		return fmt.Errorf("WebLogic Server %s does not support REST deployment; %s or newer is required", got, min)
	}
	if config.Debug {
		log.Printf("WebLogic Server version %s", got)
	}
	return nil
}

func (s *RestSession) ensureEditing() error {
	if !s.connected {
		return errors.New("Not connected to admin server")
	}
	if !s.editing {
		return errors.New("No edit session in progress")
	}
	return nil
}

func (s *RestSession) DeployDefault(ctx context.Context) error {
	if s.opts.Defaults == nil {
		return errors.New("No application bound to the session; nothing to deploy")
	}
	return s.Deploy(ctx, *s.opts.Defaults)
}

func (s *RestSession) Deploy(ctx context.Context, app Application) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	if app.Name == "" || app.Archive == "" {
		return fmt.Errorf("Application name and archive must be set, got name `%s` archive `%s`", app.Name, app.Archive)
	}
	targets, err := s.targetIdentities(ctx, app.Targets)
	if err != nil {
		return err
	}
	if config.Debug {
		log.Printf("Deploying `%s` from `%s` to %v (remote=%v upload=%v)",
			app.Name, app.Archive, app.Targets, app.Remote, app.Upload)
	}
	model := deploymentModel{Name: app.Name, Targets: targets}
	if !app.Upload {
		model.SourcePath = app.Archive
		if err := s.post(ctx, "edit/appDeployments", model, nil); err != nil {
			return fmt.Errorf("Unable to deploy `%s`: %w", app.Name, err)
		}
		return nil
	}
	if err := s.upload(ctx, model, app.Archive); err != nil {
		return fmt.Errorf("Unable to deploy `%s`: %w", app.Name, err)
	}
	return nil
}

func (s *RestSession) upload(ctx context.Context, model deploymentModel, archive string) error {
	modelJson, err := json.Marshal(model)
	if err != nil {
		return err
	}
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	// the goroutine owns file from here on
	go func() {
		defer file.Close()
		err := func() error {
			if err := form.WriteField("model", string(modelJson)); err != nil {
				return err
			}
			part, err := form.CreateFormFile("sourcePath", filepath.Base(archive))
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, file); err != nil {
				return err
			}
			return form.Close()
		}()
		pw.CloseWithError(err)
	}()

	req, err := s.request(ctx, "POST", "edit/appDeployments", pr, form.FormDataContentType())
	if err != nil {
		pr.CloseWithError(err)
		return err
	}
	return s.send(s.uploads, req, nil)
}

// targetIdentities tells clusters from servers by listing domain clusters.
func (s *RestSession) targetIdentities(ctx context.Context, targets []string) ([]identity, error) {
	if len(targets) == 0 {
		return nil, errors.New("No deployment targets")
	}
	if s.clusters == nil {
		var list nameItems
		if err := s.get(ctx, "edit/clusters?links=none&fields=name", &list); err != nil && !errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("Unable to list domain clusters: %w", err)
		}
		s.clusters = make(map[string]struct{}, len(list.Items))
		for _, c := range list.Items {
			s.clusters[c.Name] = struct{}{}
		}
	}
	ids := make([]identity, 0, len(targets))
	for _, t := range targets {
		kind := "servers"
		if _, isCluster := s.clusters[t]; isCluster {
			kind = "clusters"
		}
		ids = append(ids, identity{Identity: []string{kind, t}})
	}
	return ids, nil
}

func (s *RestSession) Activate(ctx context.Context, app Application) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	if err := s.post(ctx, "edit/changeManager/activate", nil, nil); err != nil {
		return fmt.Errorf("Unable to activate changes: %w", err)
	}
	s.editing = false
	if app.Name == "" {
		return nil
	}
	var deployed nameResource
	err := s.get(ctx, fmt.Sprintf("edit/appDeployments/%s?links=none&fields=name", url.PathEscape(app.Name)), &deployed)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return fmt.Errorf("Application `%s` not found after activation", app.Name)
		}
		return fmt.Errorf("Unable to verify application `%s`: %w", app.Name, err)
	}
	if config.Verbose {
		log.Printf("Application `%s` activated on %s", app.Name, strings.Join(app.Targets, ", "))
	}
	return nil
}

func (s *RestSession) Disconnect(ctx context.Context) error {
	var err error
	if s.connected && s.editing {
		if err = s.post(ctx, "edit/changeManager/cancelEdit", nil, nil); err != nil {
			err = fmt.Errorf("Unable to cancel edit session: %w", err)
		}
		s.editing = false
	}
	s.connected = false
	s.password = ""
	return err
}

func (s *RestSession) DumpStack() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Admin server %s", util.Coalesce(s.baseURL, "(not connected)"))
	if s.serverVersion != "" {
		fmt.Fprintf(&b, ", WebLogic Server %s", s.serverVersion)
	}
	fmt.Fprintf(&b, ", connected=%v, editing=%v\n", s.connected, s.editing)
	for i, c := range s.trail {
		status := fmt.Sprintf("%d", c.Status)
		if c.Status == 0 {
			status = "---"
		}
		fmt.Fprintf(&b, "\t#%d %s %s => %s", i, c.Method, c.Path, status)
		if c.Err != "" {
			fmt.Fprintf(&b, " %s", c.Err)
		}
		b.WriteString("\n")
	}
	if s.lastError != "" {
		fmt.Fprintf(&b, "Last error response:\n%s\n", s.lastError)
	}
	return b.String()
}
