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
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// minSyncedEpoch is the highest Unix time (seconds) still treated as
// an unsynchronized wall clock. Sensor boards report seconds since
// boot until external time sync completes, so anything this small
// cannot be a real calendar time.
const minSyncedEpoch = 100000

// TimeSource provides the wall clock and device uptime. The wall
// clock may be uninitialized until external time sync has happened;
// uptime is always available.
type TimeSource interface {
	Now() time.Time
	Uptime() time.Duration
}

// Synced reports whether t looks like a real calendar time rather
// than an unsynchronized tick counter.
func Synced(t time.Time) bool {
	return t.Unix() > minSyncedEpoch
}

// systemTimeSource reads the OS clock and host uptime.
type systemTimeSource struct{}

// SystemTimeSource returns the production TimeSource.
func SystemTimeSource() TimeSource {
	return systemTimeSource{}
}

func (systemTimeSource) Now() time.Time {
	return time.Now()
}

func (systemTimeSource) Uptime() time.Duration {
	secs, err := host.Uptime()
	if err != nil {
		return 0
	}

	return time.Duration(secs) * time.Second
}
