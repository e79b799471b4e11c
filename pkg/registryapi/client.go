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

// Package registryapi is the HTTP client for the device registry.
package registryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/homewatch/homewatch/pkg/models"
)

const defaultRequestTimeout = 10 * time.Second

var errUnexpectedStatus = fmt.Errorf("registry returned unexpected status")

// Client talks to the device registry over its HTTP API. All
// mutating calls are fire-and-forget from the caller's perspective:
// the caller refreshes its view afterwards instead of trusting a
// response payload.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a registry client for the given base URL
// (e.g. "http://127.0.0.1:8000").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// ListDevices fetches the full device collection.
func (c *Client) ListDevices(ctx context.Context) ([]models.Device, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/devices", http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	var devices []models.Device
	if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
		return nil, fmt.Errorf("failed to decode device list: %w", err)
	}

	return devices, nil
}

// SubmitTelemetry posts one telemetry record. A non-2xx response is
// an error; callers drop the record and move on.
func (c *Client) SubmitTelemetry(ctx context.Context, sub *models.TelemetrySubmission) error {
	return c.post(ctx, "/api/telemetry", sub)
}

// CreateDevice registers a new device with the given name and type.
func (c *Client) CreateDevice(ctx context.Context, name, deviceType string) error {
	payload := map[string]string{"name": name, "type": deviceType}
	return c.post(ctx, "/api/devices", payload)
}

// TogglePower flips the power state of a device.
func (c *Client) TogglePower(ctx context.Context, deviceID int64) error {
	return c.post(ctx, fmt.Sprintf("/api/devices/%d/toggle", deviceID), nil)
}

// DeleteDevice removes a device from the registry.
func (c *Client) DeleteDevice(ctx context.Context, deviceID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/api/devices/%d", c.baseURL, deviceID), http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	return nil
}

// CheckHealth probes the registry's liveness endpoint. The timeout is
// enforced through ctx so callers can bound a connection attempt.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	var body io.Reader = http.NoBody

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d from %s", errUnexpectedStatus, resp.StatusCode, path)
	}

	return nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
