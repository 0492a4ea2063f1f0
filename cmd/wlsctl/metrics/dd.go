// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

const metricName = "wlsctl.commands.usage"

var (
	ddSeriesApi = "https://api.datadoghq.com/api/v1/series"
	httpClient  = util.RobustHttpClient(10*time.Second, false)
)

// PutMetrics sends a single count for the command with extra tags.
func PutMetrics(cmd string, additionalTags []string) error {
	if ddKey == "" {
		return fmt.Errorf("%s is not set", ddApiKeyEnvVarName)
	}
	enabled, host, err := meteringConfig()
	if err != nil {
		util.Warn("Unable to load metrics config: %v", err)
	}
	if config.Debug && !enabled {
		log.Print("Usage metering is not enabled; continuing as requested")
	}
	return putDDMetric(cmd, host, additionalTags)
}

func putDDMetric(cmd, host string, additionalTags []string) error {
	tags := make([]string, 0, 2+len(additionalTags))
	tags = append(tags, "command:"+cmd)
	if host != "" {
		tags = append(tags, "machine-id:"+host)
	}
	tags = append(tags, additionalTags...)
	series := DDSeries{
		[]DDMetric{{
			Metric: metricName,
			Type:   "count",
			Host:   host,
			Tags:   tags,
			Points: [][]int64{{time.Now().Unix(), 1}},
		}},
	}
	reqBody, err := json.Marshal(series)
	if err != nil {
		return err
	}
	req, err := http.NewRequest("POST", ddSeriesApi, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	if config.Trace {
		log.Printf(">>> %s %s", req.Method, req.URL.String())
		log.Printf("%s", string(reqBody))
	}
	req.Header.Add("Content-type", "application/json")
	req.Header.Add("DD-API-KEY", ddKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Error during HTTP request: %v", err)
	}
	defer resp.Body.Close()
	if config.Trace {
		log.Printf("<<< %s %s: %s", req.Method, req.URL.String(), resp.Status)
	}
	if resp.StatusCode != 202 {
		return fmt.Errorf("Datadog returned HTTP status %d; expected 202", resp.StatusCode)
	}
	var body bytes.Buffer
	read, _ := body.ReadFrom(resp.Body)
	if read == 0 {
		return errors.New("Empty response")
	}
	var jsResp DDSeriesResponse
	if err := json.Unmarshal(body.Bytes(), &jsResp); err != nil {
		return fmt.Errorf("Error unmarshalling HTTP response: %v", err)
	}
	if jsResp.Status != "ok" {
		return fmt.Errorf("Datadog returned status `%s`; expected `ok`", jsResp.Status)
	}
	return nil
}
