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

package edge

import (
	"errors"
	"time"

	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
)

const (
	defaultSendInterval     = 5 * time.Second
	defaultReconnectBackoff = 5 * time.Second
	defaultConnectTimeout   = 10 * time.Second
	defaultTimeSyncWait     = 2 * time.Second
)

var (
	errNoRegistryURL = errors.New("registry_url is required")
	errNoDeviceID    = errors.New("device_id must be positive")
)

// Config is the edge client daemon configuration.
type Config struct {
	RegistryURL      string          `json:"registry_url"`
	DeviceID         int64           `json:"device_id"`
	SendInterval     models.Duration `json:"send_interval"`
	ReconnectBackoff models.Duration `json:"reconnect_backoff"`
	ConnectTimeout   models.Duration `json:"connect_timeout"`
	TimeSyncWait     models.Duration `json:"time_sync_wait"`
	MotionSensor     bool            `json:"motion_sensor"`
	Logging          *logger.Config  `json:"logging,omitempty"`
}

// Validate implements config.Validator and applies defaults.
func (c *Config) Validate() error {
	if c.RegistryURL == "" {
		return errNoRegistryURL
	}

	if c.DeviceID <= 0 {
		return errNoDeviceID
	}

	if c.SendInterval <= 0 {
		c.SendInterval = models.Duration(defaultSendInterval)
	}

	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = models.Duration(defaultReconnectBackoff)
	}

	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = models.Duration(defaultConnectTimeout)
	}

	if c.TimeSyncWait <= 0 {
		c.TimeSyncWait = models.Duration(defaultTimeSyncWait)
	}

	return nil
}
