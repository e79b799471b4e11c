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

package registry

import (
	"time"

	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
)

const (
	defaultListenAddr = ":8000"
	defaultDBPath     = "homewatch.db"
)

// Config is the registry daemon configuration.
type Config struct {
	ListenAddr      string          `json:"listen_addr"`
	DBPath          string          `json:"db_path"`
	AnalyzerURL     string          `json:"analyzer_url,omitempty"`
	ReplayWindow    models.Duration `json:"replay_window,omitempty"`
	ReplayThreshold int             `json:"replay_threshold,omitempty"`
	BurstRate       float64         `json:"burst_rate,omitempty"`
	Logging         *logger.Config  `json:"logging,omitempty"`
}

// Validate implements config.Validator and applies defaults. The
// analyzer URL is optional; without it every reading classifies as
// unknown, which maps to no threat.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.DBPath == "" {
		c.DBPath = defaultDBPath
	}

	return nil
}

// DetectorOptions translates config tuning into detector options.
func (c *Config) DetectorOptions() []DetectorOption {
	var opts []DetectorOption

	if c.ReplayWindow > 0 {
		opts = append(opts, WithReplayWindow(time.Duration(c.ReplayWindow)))
	}

	if c.ReplayThreshold > 0 {
		opts = append(opts, WithReplayThreshold(c.ReplayThreshold))
	}

	if c.BurstRate > 0 {
		opts = append(opts, WithBurstRate(c.BurstRate))
	}

	return opts
}
