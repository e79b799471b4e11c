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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	gosync "sync"
	"time"

	"github.com/homewatch/homewatch/pkg/models"
)

// Verdict is the result of the replay/burst heuristic for one reading.
type Verdict int

const (
	VerdictClean Verdict = iota
	VerdictReplay
	VerdictBurst
)

func (v Verdict) String() string {
	switch v {
	case VerdictReplay:
		return "replay_detected"
	case VerdictBurst:
		return "burst_detected"
	default:
		return "clean"
	}
}

const (
	defaultReplayWindow    = 5 * time.Second
	defaultReplayThreshold = 8
	defaultBurstRate       = 20

	// historyLimit bounds per-device memory regardless of traffic.
	historyLimit = 1000
)

type observation struct {
	hash string
	at   time.Time
}

// Detector flags replayed and burst telemetry before it ever reaches
// the analyzer. A reading repeated verbatim many times within the
// window is a replay; too many readings per second is a burst.
type Detector struct {
	window          time.Duration
	repeatThreshold int
	burstRate       float64
	now             func() time.Time

	mu      gosync.Mutex
	history map[int64][]observation
}

// DetectorOption tunes the heuristic.
type DetectorOption func(*Detector)

// WithReplayWindow sets the sliding window.
func WithReplayWindow(d time.Duration) DetectorOption {
	return func(det *Detector) { det.window = d }
}

// WithReplayThreshold sets how many identical readings within the
// window count as a replay.
func WithReplayThreshold(n int) DetectorOption {
	return func(det *Detector) { det.repeatThreshold = n }
}

// WithBurstRate sets the readings-per-second burst threshold.
func WithBurstRate(rate float64) DetectorOption {
	return func(det *Detector) { det.burstRate = rate }
}

// WithDetectorNow overrides the time source for tests.
func WithDetectorNow(now func() time.Time) DetectorOption {
	return func(det *Detector) { det.now = now }
}

// NewDetector builds a detector with production defaults.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		window:          defaultReplayWindow,
		repeatThreshold: defaultReplayThreshold,
		burstRate:       defaultBurstRate,
		now:             time.Now,
		history:         make(map[int64][]observation),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Observe records one reading and returns the verdict for it.
func (d *Detector) Observe(deviceID int64, sub *models.TelemetrySubmission) Verdict {
	now := d.now()
	hash := readingHash(sub)

	d.mu.Lock()
	defer d.mu.Unlock()

	history := append(d.history[deviceID], observation{hash: hash, at: now})

	// Trim entries that fell out of the window, then enforce the hard
	// cap.
	cutoff := now.Add(-d.window)
	start := 0

	for start < len(history) && history[start].at.Before(cutoff) {
		start++
	}

	history = history[start:]
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	d.history[deviceID] = history

	same := 0
	for _, obs := range history {
		if obs.hash == hash {
			same++
		}
	}

	if same >= d.repeatThreshold {
		return VerdictReplay
	}

	if float64(len(history))/d.window.Seconds() >= d.burstRate {
		return VerdictBurst
	}

	return VerdictClean
}

// Forget drops a device's history, e.g. after deletion.
func (d *Detector) Forget(deviceID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.history, deviceID)
}

// readingHash quantizes a reading before hashing so sensor noise does
// not defeat replay detection: temperature to 0.1, humidity to whole
// percent.
func readingHash(sub *models.TelemetrySubmission) string {
	quantTemp := math.Round(float64(sub.Temperature)*10) / 10
	quantHumidity := int(math.Round(float64(sub.Humidity)))

	key := fmt.Sprintf("t=%.1f|h=%d|m=%d", quantTemp, quantHumidity, sub.Motion)
	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])
}
