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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
	"github.com/homewatch/homewatch/pkg/stream"
)

const shutdownTimeout = 10 * time.Second

// Classifier scores a reading and returns an analyzer label.
type Classifier interface {
	Classify(ctx context.Context, deviceID int64, sub *models.TelemetrySubmission) string
}

// Broadcaster notifies subscribed viewers that device state changed.
type Broadcaster interface {
	Broadcast(event string)
}

// Server is the registry's HTTP front end.
type Server struct {
	listenAddr string
	store      *Store
	detector   *Detector
	classifier Classifier
	events     Broadcaster
	metrics    *Metrics
	router     *mux.Router
	httpSrv    *http.Server
	logger     logger.Logger
}

// ServerOption configures optional server collaborators.
type ServerOption func(*Server)

// WithClassifier wires the external threat analyzer.
func WithClassifier(c Classifier) ServerOption {
	return func(s *Server) { s.classifier = c }
}

// WithBroadcaster wires the viewer event stream.
func WithBroadcaster(b Broadcaster) ServerOption {
	return func(s *Server) { s.events = b }
}

// WithMetrics wires Prometheus counters.
func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithStreamHandler mounts a WebSocket handler at /api/stream.
func WithStreamHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.router.Handle("/api/stream", h)
	}
}

// WithMetricsHandler mounts the Prometheus exposition endpoint.
func WithMetricsHandler() ServerOption {
	return func(s *Server) {
		s.router.Handle("/metrics", promhttp.Handler())
	}
}

// NewServer builds the registry API server.
func NewServer(listenAddr string, store *Store, detector *Detector, log logger.Logger, options ...ServerOption) *Server {
	s := &Server{
		listenAddr: listenAddr,
		store:      store,
		detector:   detector,
		router:     mux.NewRouter(),
		logger:     log,
	}

	for _, opt := range options {
		opt(s)
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/health", s.getHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/devices", s.getDevices).Methods(http.MethodGet)
	s.router.HandleFunc("/api/devices", s.addDevice).Methods(http.MethodPost)
	s.router.HandleFunc("/api/devices/{id}/toggle", s.toggleDevice).Methods(http.MethodPost)
	s.router.HandleFunc("/api/devices/{id}", s.deleteDevice).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/telemetry", s.handleTelemetry).Methods(http.MethodPost)
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start implements the lifecycle.Service interface.
func (s *Server) Start(_ context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", s.listenAddr).Msg("Registry API listening")

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop implements the lifecycle.Service interface.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.ListDevices(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list devices")
		writeError(w, "Failed to list devices", http.StatusInternalServerError)

		return
	}

	s.writeJSON(w, http.StatusOK, devices)
}

type addDeviceRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (s *Server) addDevice(w http.ResponseWriter, r *http.Request) {
	var req addDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Type == "" {
		writeError(w, "name and type are required", http.StatusBadRequest)
		return
	}

	id, err := s.store.CreateDevice(r.Context(), req.Name, req.Type)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create device")
		writeError(w, "Failed to create device", http.StatusInternalServerError)

		return
	}

	s.notifyViewers()
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Device added", "id": id})
}

func (s *Server) toggleDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}

	if err := s.store.TogglePower(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "Failed to toggle device")
		return
	}

	s.notifyViewers()
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Toggled"})
}

func (s *Server) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteDevice(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "Failed to delete device")
		return
	}

	s.detector.Forget(id)
	s.notifyViewers()
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

func (s *Server) deviceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, "Invalid device id", http.StatusBadRequest)
		return 0, false
	}

	return id, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, ErrDeviceNotFound) {
		writeError(w, "Device not found", http.StatusNotFound)
		return
	}

	s.logger.Error().Err(err).Msg(msg)
	writeError(w, msg, http.StatusInternalServerError)
}

func (s *Server) notifyViewers() {
	if s.events != nil {
		s.events.Broadcast(stream.EventDeviceUpdate)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
