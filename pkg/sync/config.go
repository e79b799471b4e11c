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

package sync

import (
	"time"

	"github.com/homewatch/homewatch/pkg/models"
)

const (
	defaultPollInterval       = 3 * time.Second
	defaultResubscribeBackoff = 5 * time.Second
)

// Config controls the sync engine's fallback polling and push
// re-subscription behavior.
type Config struct {
	PollInterval       models.Duration `json:"poll_interval"`
	ResubscribeBackoff models.Duration `json:"resubscribe_backoff"`
}

// Validate implements config.Validator and applies defaults.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if c.ResubscribeBackoff <= 0 {
		c.ResubscribeBackoff = models.Duration(defaultResubscribeBackoff)
	}

	return nil
}
