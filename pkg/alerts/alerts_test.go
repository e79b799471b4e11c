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

package alerts

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
)

// recordingSurface counts concurrent visible surfaces the way a
// renderer would observe them.
type recordingSurface struct {
	mu         sync.Mutex
	active     int
	maxActive  int
	lastText   string
	showCalls  int
	clearCalls int
}

func (r *recordingSurface) Show(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.showCalls++
	r.lastText = text

	// Show on an engine is idempotent create: the surface count only
	// grows when nothing was visible.
	if r.active == 0 {
		r.active++
	}

	if r.active > r.maxActive {
		r.maxActive = r.active
	}
}

func (r *recordingSurface) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearCalls++
	r.active = 0
}

func devices(threats ...string) []models.Device {
	out := make([]models.Device, len(threats))
	for i, th := range threats {
		out[i] = models.Device{ID: int64(i + 1), Threat: th}
	}

	return out
}

func TestOneThreatCreatesExactlyOneAlert(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, logger.NewTestLogger())

	e.Evaluate(devices("No Threat", "Threat Detected"))

	assert.True(t, e.Visible())
	assert.Equal(t, 1, s.active)
	assert.Equal(t, "Threat detected on 1 device", s.lastText)
}

func TestCaseVariedNoThreatCreatesNoAlert(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, logger.NewTestLogger())

	e.Evaluate(devices("no threat", "no threat"))

	assert.False(t, e.Visible())
	assert.Zero(t, s.showCalls)
}

func TestCaseVariedThreatMatches(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, logger.NewTestLogger())

	e.Evaluate(devices("threat detected"))

	assert.True(t, e.Visible())
}

func TestSubstringDoesNotTrigger(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, logger.NewTestLogger())

	// The sentinel phrase embedded in a longer sentence must not
	// trigger; only a whole-field match does.
	e.Evaluate(devices("Possible Threat Detected in hallway", "No Threat"))

	assert.False(t, e.Visible())
	assert.Zero(t, s.showCalls)
}

func TestRepeatedEvaluateIsIdempotent(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, logger.NewTestLogger())

	in := devices("Threat Detected")

	e.Evaluate(in)
	e.Evaluate(in)
	e.Evaluate(in)

	assert.Equal(t, 1, s.maxActive, "at most one alert surface may ever exist")
	assert.Equal(t, 1, s.showCalls, "unchanged input must not re-create the surface")
}

func TestAlertClearedWhenThreatGoes(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, logger.NewTestLogger())

	e.Evaluate(devices("Threat Detected"))
	require.True(t, e.Visible())

	e.Evaluate(devices("No Threat"))
	assert.False(t, e.Visible())
	assert.Equal(t, 1, s.clearCalls)

	// Clearing an already clear surface does nothing.
	e.Evaluate(devices("No Threat"))
	assert.Equal(t, 1, s.clearCalls)
}

func TestAlertTextTracksThreatCount(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, logger.NewTestLogger())

	e.Evaluate(devices("Threat Detected"))
	assert.Equal(t, "Threat detected on 1 device", s.lastText)

	e.Evaluate(devices("Threat Detected", "Threat Detected"))
	assert.Equal(t, "Threat detected on 2 devices", s.lastText)
	assert.Equal(t, 1, s.maxActive)
}

func TestEmptySnapshotClearsNothing(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, logger.NewTestLogger())

	e.Evaluate(nil)

	assert.False(t, e.Visible())
	assert.Zero(t, s.showCalls)
	assert.Zero(t, s.clearCalls)
}

func TestConcurrentEvaluateKeepsSingleSurface(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, logger.NewTestLogger())

	in := devices("Threat Detected", "No Threat")

	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			e.Evaluate(in)
		}()
	}

	wg.Wait()

	assert.True(t, e.Visible())
	assert.Equal(t, 1, s.maxActive)
}
