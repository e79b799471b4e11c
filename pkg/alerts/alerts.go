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

// Package alerts decides whether exactly one threat alert surface
// should be visible, derived only from per-device threat fields.
package alerts

import (
	"fmt"
	"sync"

	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
)

// Surface is the single global alert presentation. Show must be an
// idempotent create: calling it while visible replaces the text
// instead of adding a second surface.
type Surface interface {
	Show(text string)
	Clear()
}

// Engine is the alert deduplication engine. It is level-triggered:
// every Evaluate re-derives the surface state from scratch, so
// repeated invocations with the same input are idempotent and at most
// one surface ever exists.
type Engine struct {
	mu      sync.Mutex
	surface Surface
	logger  logger.Logger

	visible  bool
	lastText string
}

// NewEngine creates an alert engine writing to the given surface.
func NewEngine(surface Surface, log logger.Logger) *Engine {
	return &Engine{
		surface: surface,
		logger:  log,
	}
}

// Evaluate scans the per-device threat fields and ensures exactly one
// alert surface exists when any device reports a threat, none
// otherwise. Only the device fields are inspected; aggregate counters
// or any other rendered text never feed this decision.
func (e *Engine) Evaluate(devices []models.Device) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var threatened []int64

	for i := range devices {
		if devices[i].IsThreat() {
			threatened = append(threatened, devices[i].ID)
		}
	}

	if len(threatened) == 0 {
		if e.visible {
			e.surface.Clear()
			e.visible = false
			e.lastText = ""

			e.logger.Info().Msg("Threat cleared, removing alert")
		}

		return
	}

	text := alertText(len(threatened))

	if !e.visible || text != e.lastText {
		e.surface.Show(text)

		if !e.visible {
			e.logger.Info().Ints64("device_ids", threatened).Msg("Threat detected, showing alert")
		}

		e.visible = true
		e.lastText = text
	}
}

// Visible reports whether an alert surface currently exists.
func (e *Engine) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.visible
}

func alertText(count int) string {
	if count == 1 {
		return "Threat detected on 1 device"
	}

	return fmt.Sprintf("Threat detected on %d devices", count)
}
