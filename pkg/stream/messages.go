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

// Package stream pushes change notifications from the registry to
// connected viewers over WebSocket. Events are hints only; viewers
// re-fetch device state through the REST API rather than trusting an
// event payload.
package stream

import "time"

// Message types sent over the WebSocket.
const (
	TypeEvent = "event"
	TypePing  = "ping"
)

// EventDeviceUpdate signals that device state changed and a re-fetch
// is warranted.
const EventDeviceUpdate = "device_update"

// StreamMessage represents a message sent over the WebSocket.
type StreamMessage struct {
	Type      string                 `json:"type"` // "event", "ping"
	Event     string                 `json:"event,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
