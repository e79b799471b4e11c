/*
 * Copyright 2025 Homewatch Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package analyzer talks to the external threat analyzer service. The
// analyzer scores one telemetry reading at a time and returns a label;
// anything that keeps it from answering degrades to the "unknown"
// label so an outage never raises false alarms.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
)

const (
	// LabelUnknown is substituted whenever the analyzer cannot be
	// reached or returns garbage.
	LabelUnknown = "unknown"

	requestTimeout = 10 * time.Second
)

// Features is the flattened reading sent for classification.
type Features struct {
	DeviceID    string        `json:"device_id"`
	Timestamp   string        `json:"timestamp"`
	Temperature models.Fixed2 `json:"temperature"`
	Humidity    models.Fixed2 `json:"humidity"`
	Motion      int           `json:"motion"`
}

type predictRequest struct {
	Features Features `json:"features"`
}

type predictResponse struct {
	Label string `json:"label"`
}

// Client posts readings to the analyzer's /predict endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates an analyzer client for the service at baseURL.
func NewClient(baseURL string, log logger.Logger) *Client {
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/predict",
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     log,
	}
}

// Classify scores one reading and returns the analyzer's label.
// Transport errors, non-200 responses, and malformed bodies all
// return LabelUnknown rather than an error; the caller's label
// mapping treats unknown as safe.
func (c *Client) Classify(ctx context.Context, deviceID int64, sub *models.TelemetrySubmission) string {
	req := predictRequest{
		Features: Features{
			DeviceID:    strconv.FormatInt(deviceID, 10),
			Timestamp:   sub.Timestamp,
			Temperature: sub.Temperature,
			Humidity:    sub.Humidity,
			Motion:      sub.Motion,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return LabelUnknown
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return LabelUnknown
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Threat analyzer unreachable")
		return LabelUnknown
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("Threat analyzer returned non-OK status")

		return LabelUnknown
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn().Err(err).Msg("Malformed analyzer response")
		return LabelUnknown
	}

	if result.Label == "" {
		return LabelUnknown
	}

	return result.Label
}

// Endpoint returns the resolved /predict URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ThreatFromLabel maps an analyzer label to a device threat field.
// Explicit normal codes and indeterminate codes both map to safe;
// only a positive classification raises a threat.
func ThreatFromLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "normal", "0", "none", "", "ok":
		return models.NoThreat
	case LabelUnknown, "error", "null":
		return models.NoThreat
	default:
		return models.ThreatDetected
	}
}
