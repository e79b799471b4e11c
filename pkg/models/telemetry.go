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

import (
	"math"
	"strconv"
	"time"
)

// TimestampLayout is the on-wire timestamp format for telemetry
// submissions: UTC, no timezone suffix.
const TimestampLayout = "2006-01-02T15:04:05"

// Fixed2 is a float64 that marshals with exactly two fractional
// digits. Sensor readings are rounded to two decimals on the wire.
type Fixed2 float64

// MarshalJSON implements json.Marshaler.
func (f Fixed2) MarshalJSON() ([]byte, error) {
	rounded := math.Round(float64(f)*100) / 100
	return []byte(strconv.FormatFloat(rounded, 'f', 2, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Fixed2) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}

	*f = Fixed2(v)

	return nil
}

// TelemetrySubmission is the wire record an edge client posts to the
// registry, one per send tick. Motion is an integer flag so devices
// without a presence sensor can default it to zero.
type TelemetrySubmission struct {
	DeviceID    int64  `json:"device_id"`
	Timestamp   string `json:"timestamp"`
	Temperature Fixed2 `json:"temperature"`
	Humidity    Fixed2 `json:"humidity"`
	Motion      int    `json:"motion"`
}

// FormatTimestamp renders t in the wire layout, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
