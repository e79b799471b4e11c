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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homewatch/homewatch/pkg/analyzer"
	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
)

type fakeClassifier struct {
	mu    gosync.Mutex
	label string
	calls int
}

func (f *fakeClassifier) Classify(_ context.Context, _ int64, _ *models.TelemetrySubmission) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	return f.label
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type fakeBroadcaster struct {
	mu     gosync.Mutex
	events []string
}

func (f *fakeBroadcaster) Broadcast(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.events)
}

type serverFixture struct {
	server     *Server
	store      *Store
	classifier *fakeClassifier
	events     *fakeBroadcaster
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	store := newTestStore(t)
	classifier := &fakeClassifier{label: "normal"}
	events := &fakeBroadcaster{}

	srv := NewServer(":0", store, NewDetector(), logger.NewTestLogger(),
		WithClassifier(classifier),
		WithBroadcaster(events))

	return &serverFixture{server: srv, store: store, classifier: classifier, events: events}
}

func (f *serverFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	return rec
}

func telemetryBody(deviceID int64) *models.TelemetrySubmission {
	return &models.TelemetrySubmission{
		DeviceID:    deviceID,
		Timestamp:   "2025-06-01T12:00:00",
		Temperature: 24.5,
		Humidity:    61.2,
		Motion:      0,
	}
}

func TestGetHealth(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetDevices(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var devices []models.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	assert.Len(t, devices, 2)
}

func TestAddDevice(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/devices", map[string]string{
		"name": "Door Sensor",
		"type": "Contact",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	devices, err := f.store.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 3)

	assert.Equal(t, 1, f.events.count(), "creation notifies viewers")
}

func TestAddDeviceRejectsMissingFields(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/devices", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.events.count())
}

func TestToggleDevice(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/devices/1/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	d, err := f.store.GetDevice(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, d.Power)

	rec = f.do(t, http.MethodPost, "/api/devices/999/toggle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDevice(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/devices/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := f.store.GetDevice(context.Background(), 2)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	rec = f.do(t, http.MethodDelete, "/api/devices/2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTelemetryNormalReading(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/telemetry", telemetryBody(1))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ingestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "processed", resp.Status)
	assert.Equal(t, models.NoThreat, resp.Threat)
	assert.Equal(t, "normal", resp.AI["label"])

	d, err := f.store.GetDevice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.NoThreat, d.Threat)
	assert.Equal(t, "24.50°C, 61.20%", d.Data)
	assert.Equal(t, "Just Now", d.LastSeen)

	assert.Equal(t, 1, f.events.count(), "ingest notifies viewers after commit")
}

func TestTelemetryAttackLabelRaisesThreat(t *testing.T) {
	f := newServerFixture(t)
	f.classifier.label = "1"

	rec := f.do(t, http.MethodPost, "/api/telemetry", telemetryBody(1))
	require.Equal(t, http.StatusOK, rec.Code)

	d, err := f.store.GetDevice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.ThreatDetected, d.Threat)
}

func TestTelemetryUnknownLabelStaysSafe(t *testing.T) {
	f := newServerFixture(t)
	f.classifier.label = analyzer.LabelUnknown

	rec := f.do(t, http.MethodPost, "/api/telemetry", telemetryBody(1))
	require.Equal(t, http.StatusOK, rec.Code)

	d, err := f.store.GetDevice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.NoThreat, d.Threat)
}

func TestTelemetryPowerGate(t *testing.T) {
	f := newServerFixture(t)

	require.NoError(t, f.store.TogglePower(context.Background(), 1))

	before, err := f.store.GetDevice(context.Background(), 1)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/telemetry", telemetryBody(1))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ingestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ignored", resp.Status)

	// Stored state untouched, no classifier call, no viewer
	// notification for the drop. The toggle itself broadcast once.
	after, err := f.store.GetDevice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Zero(t, f.classifier.callCount())
	assert.Equal(t, 1, f.events.count())
}

func TestTelemetryUnknownDevice(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/telemetry", telemetryBody(999))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, f.classifier.callCount())
}

func TestTelemetryMissingDeviceID(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/telemetry", map[string]interface{}{
		"timestamp": "2025-06-01T12:00:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTelemetryReplayFloodBypassesAnalyzer(t *testing.T) {
	f := newServerFixture(t)

	var last ingestResponse

	for i := 0; i < 8; i++ {
		rec := f.do(t, http.MethodPost, "/api/telemetry", telemetryBody(1))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &last))
	}

	assert.Equal(t, models.ThreatDetected, last.Threat)
	assert.Equal(t, "replay_detected", last.AI["label"])

	d, err := f.store.GetDevice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.ThreatDetected, d.Threat)

	// The flagged request never consulted the analyzer.
	assert.Equal(t, 7, f.classifier.callCount())
}

func TestTelemetryWithoutClassifierStaysSafe(t *testing.T) {
	store := newTestStore(t)
	srv := NewServer(":0", store, NewDetector(), logger.NewTestLogger())

	body, err := json.Marshal(telemetryBody(1))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/telemetry", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	d, err := store.GetDevice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.NoThreat, d.Threat)
}

func TestDeviceWireFormat(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.NotEmpty(t, raw)

	for _, key := range []string{"id", "name", "type", "data", "threat", "location", "last_seen", "power"} {
		assert.Contains(t, raw[0], key, fmt.Sprintf("missing field %s", key))
	}
}
