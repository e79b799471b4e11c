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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest outcomes used as metric label values.
const (
	outcomeAccepted      = "accepted"
	outcomeIgnoredOff    = "ignored_power_off"
	outcomeUnknownDevice = "unknown_device"
	outcomeInvalid       = "invalid"
)

// Metrics collects registry counters for the /metrics endpoint.
type Metrics struct {
	ingested *prometheus.CounterVec
	threats  *prometheus.CounterVec
}

// NewMetrics registers the registry's collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ingested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homewatch",
			Subsystem: "registry",
			Name:      "telemetry_ingested_total",
			Help:      "Telemetry submissions by outcome.",
		}, []string{"outcome"}),
		threats: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homewatch",
			Subsystem: "registry",
			Name:      "threats_detected_total",
			Help:      "Threat detections by cause.",
		}, []string{"cause"}),
	}
}

func (m *Metrics) recordIngest(outcome string) {
	if m == nil {
		return
	}

	m.ingested.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordThreat(cause string) {
	if m == nil {
		return
	}

	m.threats.WithLabelValues(cause).Inc()
}
