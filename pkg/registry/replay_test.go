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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/homewatch/homewatch/pkg/models"
)

func reading(temp, humidity float64, motion int) *models.TelemetrySubmission {
	return &models.TelemetrySubmission{
		DeviceID:    1,
		Timestamp:   "2025-06-01T12:00:00",
		Temperature: models.Fixed2(temp),
		Humidity:    models.Fixed2(humidity),
		Motion:      motion,
	}
}

type stepClock struct {
	now  time.Time
	step time.Duration
}

func (s *stepClock) next() time.Time {
	s.now = s.now.Add(s.step)
	return s.now
}

func TestDetectorFlagsReplay(t *testing.T) {
	clock := &stepClock{now: time.Unix(1750000000, 0), step: 100 * time.Millisecond}
	d := NewDetector(WithDetectorNow(clock.next))

	// Seven identical readings stay clean; the eighth crosses the
	// threshold.
	for i := 0; i < 7; i++ {
		assert.Equal(t, VerdictClean, d.Observe(1, reading(24.5, 60, 0)), "reading %d", i)
	}

	assert.Equal(t, VerdictReplay, d.Observe(1, reading(24.5, 60, 0)))
}

func TestDetectorQuantizesSensorNoise(t *testing.T) {
	clock := &stepClock{now: time.Unix(1750000000, 0), step: 100 * time.Millisecond}
	d := NewDetector(WithDetectorNow(clock.next))

	// Values differing below the quantization step hash identically.
	temps := []float64{24.50, 24.52, 24.48, 24.51, 24.49, 24.53, 24.47}
	for _, temp := range temps {
		assert.Equal(t, VerdictClean, d.Observe(1, reading(temp, 60.3, 0)))
	}

	assert.Equal(t, VerdictReplay, d.Observe(1, reading(24.46, 59.8, 0)))
}

func TestDetectorDistinctReadingsStayClean(t *testing.T) {
	clock := &stepClock{now: time.Unix(1750000000, 0), step: 300 * time.Millisecond}
	d := NewDetector(WithDetectorNow(clock.next))

	for i := 0; i < 12; i++ {
		temp := 20.0 + float64(i)
		assert.Equal(t, VerdictClean, d.Observe(1, reading(temp, 40+float64(i)*2, i%2)))
	}
}

func TestDetectorWindowExpiry(t *testing.T) {
	// One identical reading per second never accumulates eight within
	// the five second window.
	clock := &stepClock{now: time.Unix(1750000000, 0), step: time.Second}
	d := NewDetector(WithDetectorNow(clock.next))

	for i := 0; i < 30; i++ {
		assert.Equal(t, VerdictClean, d.Observe(1, reading(24.5, 60, 0)), "reading %d", i)
	}
}

func TestDetectorFlagsBurst(t *testing.T) {
	// Varied payloads sent fast enough trip the burst rate even
	// though nothing repeats.
	clock := &stepClock{now: time.Unix(1750000000, 0), step: 10 * time.Millisecond}
	d := NewDetector(WithDetectorNow(clock.next))

	var verdict Verdict
	for i := 0; i < 150; i++ {
		verdict = d.Observe(1, reading(float64(i), float64(i%100), i%2))
		if verdict != VerdictClean {
			break
		}
	}

	assert.Equal(t, VerdictBurst, verdict)
}

func TestDetectorTracksDevicesIndependently(t *testing.T) {
	clock := &stepClock{now: time.Unix(1750000000, 0), step: 50 * time.Millisecond}
	d := NewDetector(WithDetectorNow(clock.next))

	// Alternate devices; each sees only four identical readings.
	for i := 0; i < 8; i++ {
		deviceID := int64(1 + i%2)
		assert.Equal(t, VerdictClean, d.Observe(deviceID, reading(24.5, 60, 0)))
	}
}

func TestDetectorForget(t *testing.T) {
	clock := &stepClock{now: time.Unix(1750000000, 0), step: 100 * time.Millisecond}
	d := NewDetector(WithDetectorNow(clock.next))

	for i := 0; i < 7; i++ {
		d.Observe(1, reading(24.5, 60, 0))
	}

	d.Forget(1)

	// History cleared; the same reading starts over.
	assert.Equal(t, VerdictClean, d.Observe(1, reading(24.5, 60, 0)))
}
