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

// Package edge implements the telemetry client that runs on each
// sensor node. One Client owns one device's connectivity state, time
// resolution and periodic send loop; nothing is shared across devices.
package edge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
)

// timeSyncPollInterval is the sleep between wall-clock polls while
// waiting for external time sync.
const timeSyncPollInterval = 100 * time.Millisecond

// ConnState is the client's connectivity state.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// RegistryClient is the slice of the registry API the edge client
// needs: a liveness probe and a one-shot telemetry submit.
type RegistryClient interface {
	CheckHealth(ctx context.Context) error
	SubmitTelemetry(ctx context.Context, sub *models.TelemetrySubmission) error
}

// Client is the edge telemetry client for a single device.
type Client struct {
	config     Config
	registry   RegistryClient
	sensor     Sensor
	timeSource TimeSource
	clock      Clock
	logger     logger.Logger

	state       ConnState
	lastAttempt time.Time

	ticker    Ticker
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates an edge client. A nil clock defaults to the system
// clock and a nil timeSource to the system time source.
func New(config *Config, registry RegistryClient, sensor Sensor, timeSource TimeSource, clock Clock, log logger.Logger) *Client {
	if clock == nil {
		clock = realClock{}
	}

	if timeSource == nil {
		timeSource = SystemTimeSource()
	}

	return &Client{
		config:     *config,
		registry:   registry,
		sensor:     sensor,
		timeSource: timeSource,
		clock:      clock,
		logger:     log,
		state:      StateDisconnected,
		done:       make(chan struct{}),
	}
}

// State returns the current connectivity state.
func (c *Client) State() ConnState {
	return c.state
}

// Start implements the lifecycle.Service interface. It runs the send
// loop until Stop is called or the context ends. Ticks are strictly
// sequential; a tick never blocks past its own bounded timeouts.
func (c *Client) Start(ctx context.Context) error {
	interval := time.Duration(c.config.SendInterval)
	c.ticker = c.clock.Ticker(interval)

	defer c.ticker.Stop()

	c.logger.Info().
		Int64("device_id", c.config.DeviceID).
		Dur("interval", interval).
		Msg("Starting edge telemetry client")

	c.wg.Add(1)
	defer c.wg.Done()

	c.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case <-c.ticker.Chan():
			c.tick(ctx)
		}
	}
}

// Stop implements the lifecycle.Service interface.
func (c *Client) Stop(_ context.Context) error {
	c.closeOnce.Do(func() {
		close(c.done)
	})

	c.wg.Wait()

	return nil
}

// tick performs one send cycle: connectivity check, sensor read, time
// resolution, one fire-and-forget submission. Every failure mode is
// expected and absorbed; the next tick proceeds unaffected.
func (c *Client) tick(ctx context.Context) {
	if !c.ensureConnected(ctx) {
		// Expected while the network is down; nothing is submitted
		// and nothing is surfaced upstream.
		c.logger.Debug().
			Int64("device_id", c.config.DeviceID).
			Str("state", c.state.String()).
			Msg("Not connected, skipping telemetry tick")

		return
	}

	reading, err := c.sensor.Read()
	if err != nil {
		c.logger.Warn().Err(err).Int64("device_id", c.config.DeviceID).Msg("Sensor read failed, skipping tick")
		return
	}

	if !reading.Valid() {
		c.logger.Warn().
			Int64("device_id", c.config.DeviceID).
			Float64("temperature", reading.Temperature).
			Float64("humidity", reading.Humidity).
			Msg("Sensor reading invalid, skipping tick")

		return
	}

	sub := &models.TelemetrySubmission{
		DeviceID:    c.config.DeviceID,
		Timestamp:   c.resolveTimestamp(ctx),
		Temperature: models.Fixed2(reading.Temperature),
		Humidity:    models.Fixed2(reading.Humidity),
		Motion:      reading.Motion,
	}

	submitCtx, cancel := context.WithTimeout(ctx, time.Duration(c.config.ConnectTimeout))
	defer cancel()

	if err := c.registry.SubmitTelemetry(submitCtx, sub); err != nil {
		// At-most-once per tick: the record is dropped, the loop and
		// the connectivity state are untouched.
		c.logger.Warn().Err(err).Int64("device_id", c.config.DeviceID).Msg("Telemetry submission dropped")
		return
	}

	c.logger.Debug().
		Int64("device_id", c.config.DeviceID).
		Str("timestamp", sub.Timestamp).
		Msg("Telemetry submitted")
}

// ensureConnected reports whether the registry is reachable. A lost
// connection is re-attempted on later ticks, never sooner than the
// configured backoff since the previous attempt.
func (c *Client) ensureConnected(ctx context.Context) bool {
	if c.state == StateConnected {
		if err := c.probe(ctx); err == nil {
			return true
		}

		c.logger.Warn().Int64("device_id", c.config.DeviceID).Msg("Lost connection to registry")
		c.state = StateDisconnected
	}

	if !c.lastAttempt.IsZero() &&
		c.clock.Now().Sub(c.lastAttempt) < time.Duration(c.config.ReconnectBackoff) {
		return false
	}

	c.lastAttempt = c.clock.Now()
	c.state = StateConnecting

	if err := c.probe(ctx); err != nil {
		c.state = StateDisconnected
		c.logger.Warn().Err(err).Int64("device_id", c.config.DeviceID).Msg("Connection attempt failed")

		return false
	}

	c.state = StateConnected
	c.logger.Info().Int64("device_id", c.config.DeviceID).Msg("Connected to registry")

	return true
}

func (c *Client) probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(c.config.ConnectTimeout))
	defer cancel()

	return c.registry.CheckHealth(probeCtx)
}

// resolveTimestamp returns a wire-format timestamp. If the wall clock
// has not synced within the bounded wait it falls back to the fixed
// epoch date with the time of day derived from device uptime, so the
// result always parses in the wire layout.
func (c *Client) resolveTimestamp(ctx context.Context) string {
	remaining := time.Duration(c.config.TimeSyncWait)

	for {
		if now := c.timeSource.Now(); Synced(now) {
			return models.FormatTimestamp(now)
		}

		if ctx.Err() != nil || remaining <= 0 {
			break
		}

		step := timeSyncPollInterval
		if step > remaining {
			step = remaining
		}

		time.Sleep(step)
		remaining -= step
	}

	secs := int64(c.timeSource.Uptime().Seconds()) % (24 * 60 * 60)
	ts := fmt.Sprintf("1970-01-01T%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)

	c.logger.Warn().
		Int64("device_id", c.config.DeviceID).
		Str("timestamp", ts).
		Msg("Wall clock not synced, using uptime-derived timestamp")

	return ts
}
