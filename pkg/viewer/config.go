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

package viewer

import (
	"errors"

	"github.com/homewatch/homewatch/pkg/logger"
	homesync "github.com/homewatch/homewatch/pkg/sync"
)

var errNoRegistryURL = errors.New("registry_url is required")

// Config is the viewer daemon configuration.
type Config struct {
	RegistryURL string          `json:"registry_url"`
	Sync        homesync.Config `json:"sync"`
	Logging     *logger.Config  `json:"logging,omitempty"`
}

// Validate implements config.Validator and applies defaults.
func (c *Config) Validate() error {
	if c.RegistryURL == "" {
		return errNoRegistryURL
	}

	return c.Sync.Validate()
}
