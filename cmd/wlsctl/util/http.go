// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package util

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

const defaultHttpTimeout = 10 * time.Second

func robustTransport(timeout time.Duration, insecureSkipVerify bool) *http.Transport {
	return &http.Transport{
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   timeout,
		DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		DisableKeepAlives:     true,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: insecureSkipVerify},
	}
}

func RobustHttpClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	if timeout == 0 {
		timeout = defaultHttpTimeout
	}
	return &http.Client{Transport: robustTransport(timeout, insecureSkipVerify), Timeout: timeout}
}

// StreamingHttpClient has no overall request deadline, so a large request body
// may take as long as it needs. Dial, TLS handshake, and wait for response
// headers are still bounded by timeout.
func StreamingHttpClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	if timeout == 0 {
		timeout = defaultHttpTimeout
	}
	return &http.Client{Transport: robustTransport(timeout, insecureSkipVerify)}
}
