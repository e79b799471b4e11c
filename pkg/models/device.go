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

package models

import "strings"

// Threat labels produced by the external analysis step. The core
// treats them as opaque strings and never matches on substrings.
const (
	ThreatDetected = "Threat Detected"
	NoThreat       = "No Threat"
)

// Device represents a sensor device as stored in the registry.
type Device struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Data     string `json:"data"`
	Threat   string `json:"threat"`
	Location string `json:"location"`
	LastSeen string `json:"last_seen"`
	Power    bool   `json:"power"`
}

// IsThreat reports whether the device's threat field matches the
// threat label exactly. The comparison is case-insensitive over the
// whole trimmed field; a sentence that merely contains the label does
// not match.
func (d *Device) IsThreat() bool {
	return strings.EqualFold(strings.TrimSpace(d.Threat), ThreatDetected)
}
