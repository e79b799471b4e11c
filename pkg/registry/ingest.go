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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/homewatch/homewatch/pkg/analyzer"
	"github.com/homewatch/homewatch/pkg/models"
)

// lastSeenJustNow is what a freshly updated device reports.
const lastSeenJustNow = "Just Now"

type ingestResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Threat  string            `json:"threat,omitempty"`
	AI      map[string]string `json:"ai,omitempty"`
}

// handleTelemetry ingests one edge reading: gate on power, run the
// replay/burst heuristic, consult the analyzer, persist the outcome,
// then notify viewers.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	var sub models.TelemetrySubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.metrics.recordIngest(outcomeInvalid)
		writeError(w, "Invalid telemetry payload", http.StatusBadRequest)

		return
	}

	if sub.DeviceID == 0 {
		s.metrics.recordIngest(outcomeInvalid)
		writeError(w, "missing device_id", http.StatusBadRequest)

		return
	}

	device, err := s.store.GetDevice(r.Context(), sub.DeviceID)
	if errors.Is(err, ErrDeviceNotFound) {
		s.metrics.recordIngest(outcomeUnknownDevice)
		writeError(w, "Device not found", http.StatusNotFound)

		return
	}

	if err != nil {
		s.logger.Error().Err(err).Int64("device_id", sub.DeviceID).Msg("Failed to load device for ingest")
		writeError(w, "Failed to load device", http.StatusInternalServerError)

		return
	}

	// A powered-off device's telemetry is dropped without touching
	// stored state.
	if !device.Power {
		s.metrics.recordIngest(outcomeIgnoredOff)
		s.writeJSON(w, http.StatusOK, ingestResponse{
			Status:  "ignored",
			Message: "Device is turned OFF",
		})

		return
	}

	dataStr := fmt.Sprintf("%.2f°C, %.2f%%", float64(sub.Temperature), float64(sub.Humidity))

	// Cheap heuristics run before the analyzer so floods never reach
	// it.
	if verdict := s.detector.Observe(sub.DeviceID, &sub); verdict != VerdictClean {
		s.logger.Warn().
			Int64("device_id", sub.DeviceID).
			Str("verdict", verdict.String()).
			Msg("Telemetry flagged by replay/burst heuristic")

		s.metrics.recordIngest(outcomeAccepted)
		s.metrics.recordThreat(verdict.String())
		s.finishIngest(w, r, sub.DeviceID, models.ThreatDetected, dataStr, verdict.String())

		return
	}

	label := analyzer.LabelUnknown
	if s.classifier != nil {
		label = s.classifier.Classify(r.Context(), sub.DeviceID, &sub)
	}

	threat := analyzer.ThreatFromLabel(label)

	s.metrics.recordIngest(outcomeAccepted)

	if threat == models.ThreatDetected {
		s.metrics.recordThreat("analyzer")
	}

	s.finishIngest(w, r, sub.DeviceID, threat, dataStr, label)
}

// finishIngest persists the reading outcome, notifies viewers after
// the write lands, and answers the edge client.
func (s *Server) finishIngest(w http.ResponseWriter, r *http.Request, deviceID int64, threat, dataStr, label string) {
	if err := s.store.UpdateReading(r.Context(), deviceID, threat, dataStr, lastSeenJustNow); err != nil {
		s.logger.Error().Err(err).Int64("device_id", deviceID).Msg("Failed to store reading")
		writeError(w, "Failed to store reading", http.StatusInternalServerError)

		return
	}

	s.notifyViewers()

	s.writeJSON(w, http.StatusOK, ingestResponse{
		Status: "processed",
		Threat: threat,
		AI:     map[string]string{"label": label},
	})
}
