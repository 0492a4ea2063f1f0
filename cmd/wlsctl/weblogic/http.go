// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package weblogic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

const (
	managementRoot = "management/weblogic/latest"
	requestedBy    = "wlsctl"
)

var errNotFound = errors.New("404 HTTP")

func (s *RestSession) request(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	addr := fmt.Sprintf("%s/%s", s.baseURL, managementRoot)
	if path = strings.TrimPrefix(path, "/"); path != "" && !strings.HasPrefix(path, "?") {
		addr += "/"
	}
	addr += path
	if config.Trace {
		log.Printf(">>> %s %s", method, addr)
	}
	req, err := http.NewRequestWithContext(ctx, method, addr, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.username, s.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-By", requestedBy)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (s *RestSession) get(ctx context.Context, path string, jsResp interface{}) error {
	req, err := s.request(ctx, "GET", path, nil, "")
	if err != nil {
		return err
	}
	return s.do(req, jsResp)
}

func (s *RestSession) post(ctx context.Context, path string, body interface{}, jsResp interface{}) error {
	if body == nil {
		body = struct{}{}
	}
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if config.Trace {
		log.Printf("%s", reqBody)
	}
	req, err := s.request(ctx, "POST", path, bytes.NewReader(reqBody), "application/json")
	if err != nil {
		return err
	}
	return s.do(req, jsResp)
}

func (s *RestSession) do(req *http.Request, jsResp interface{}) error {
	return s.send(s.client, req, jsResp)
}

func (s *RestSession) send(client *http.Client, req *http.Request, jsResp interface{}) error {
	path := strings.TrimPrefix(req.URL.Path, "/"+managementRoot)
	entry := call{Method: req.Method, Path: path}
	defer func() { s.trail = append(s.trail, entry) }()

	resp, err := client.Do(req)
	if err != nil {
		entry.Err = err.Error()
		return fmt.Errorf("Error during HTTP request: %w", err)
	}
	defer resp.Body.Close()
	entry.Status = resp.StatusCode

	var body bytes.Buffer
	read, err := body.ReadFrom(resp.Body)
	if config.Trace {
		log.Printf("<<< %s %s: %s", req.Method, req.URL.String(), resp.Status)
		if read > 0 {
			log.Printf("<<<\n%s", body.String())
		}
	}
	if resp.StatusCode == http.StatusNotFound {
		entry.Err = errNotFound.Error()
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		s.lastError = body.String()
		detail := decodeRestError(body.Bytes())
		entry.Err = fmt.Sprintf("%d HTTP%s", resp.StatusCode, detail)
		return fmt.Errorf("%s %s: %d HTTP%s", req.Method, path, resp.StatusCode, detail)
	}
	if err != nil {
		entry.Err = err.Error()
		return fmt.Errorf("%d HTTP, error reading response (read %d bytes): %v", resp.StatusCode, read, err)
	}
	if jsResp != nil && read >= 2 {
		if err := json.Unmarshal(body.Bytes(), jsResp); err != nil {
			entry.Err = err.Error()
			return fmt.Errorf("%d HTTP, error unmarshalling response (read %d bytes): %v", resp.StatusCode, read, err)
		}
	}
	return nil
}

func decodeRestError(b []byte) string {
	var e restError
	if len(b) == 0 || json.Unmarshal(b, &e) != nil {
		return ""
	}
	parts := make([]string, 0, 1+len(e.Messages))
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	} else if e.Title != "" {
		parts = append(parts, e.Title)
	}
	for _, m := range e.Messages {
		msg := m.Message
		if m.Field != "" {
			msg = fmt.Sprintf("%s: %s", m.Field, msg)
		}
		if m.Severity != "" {
			msg = fmt.Sprintf("%s %s", m.Severity, msg)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return ""
	}
	return ": " + strings.Join(parts, "; ")
}
