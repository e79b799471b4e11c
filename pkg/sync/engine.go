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

// Package sync keeps a viewer's local copy of device state fresh.
// The engine is a read-only cache with replace-on-refresh semantics:
// every trigger funnels into the same Refresh, which fetches the
// authoritative collection and replaces the snapshot wholesale.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
)

// DeviceSource fetches the authoritative device collection.
type DeviceSource interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
}

// DeviceActions are the registry mutations a viewer can perform. All
// are fire-and-forget; the engine refreshes after the side effect
// completes instead of trusting a response payload.
type DeviceActions interface {
	TogglePower(ctx context.Context, deviceID int64) error
	DeleteDevice(ctx context.Context, deviceID int64) error
	CreateDevice(ctx context.Context, name, deviceType string) error
}

// Subscriber establishes the push-hint channel. The returned channel
// yields one element per device_update arrival and is closed when the
// push channel is lost; the payload of the push event is never
// surfaced because the engine always re-fetches.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan struct{}, error)
}

// Consumer observes each successful refresh. Consumers must be
// idempotent under repeated identical snapshots.
type Consumer func(*Snapshot)

// Snapshot is the viewer-local copy of device state. It is replaced
// atomically and never patched, so a reader always sees a single
// generation end to end.
type Snapshot struct {
	Devices    []models.Device
	Generation uint64
	FetchedAt  time.Time
}

// Engine is the real-time sync engine for one viewer.
type Engine struct {
	config     Config
	source     DeviceSource
	actions    DeviceActions
	subscriber Subscriber
	consumers  []Consumer
	clock      Clock
	logger     logger.Logger

	mu       gosync.Mutex
	snapshot *Snapshot
	gen      uint64

	done      chan struct{}
	closeOnce gosync.Once
	wg        gosync.WaitGroup
}

// NewEngine creates a sync engine. Consumers run in registration
// order after every successful refresh; the render pipeline is
// registered before the alert engine. A nil clock defaults to the
// system clock; a nil subscriber means polling only.
func NewEngine(config *Config, source DeviceSource, actions DeviceActions, subscriber Subscriber, clock Clock, log logger.Logger, consumers ...Consumer) *Engine {
	if clock == nil {
		clock = realClock{}
	}

	return &Engine{
		config:     *config,
		source:     source,
		actions:    actions,
		subscriber: subscriber,
		consumers:  consumers,
		clock:      clock,
		logger:     log,
		done:       make(chan struct{}),
	}
}

// Snapshot returns the last successfully fetched snapshot, or nil
// before the first refresh.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.snapshot
}

// Refresh fetches the device collection, atomically replaces the
// snapshot, and runs the consumers. On fetch failure the last-good
// snapshot is retained and no consumer runs. Refresh may be invoked
// concurrently from any trigger; the fetch that completes last wins
// and no mixed-generation snapshot is ever observable.
func (e *Engine) Refresh(ctx context.Context) error {
	devices, err := e.source.ListDevices(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Device fetch failed, retaining last-good snapshot")
		return err
	}

	e.mu.Lock()
	e.gen++
	e.snapshot = &Snapshot{
		Devices:    devices,
		Generation: e.gen,
		FetchedAt:  e.clock.Now(),
	}
	e.mu.Unlock()

	// Consumers see the latest stored snapshot, not necessarily this
	// fetch's: when refreshes race, every consumer run converges on
	// the snapshot of the last completed fetch.
	snap := e.Snapshot()

	for _, consume := range e.consumers {
		consume(snap)
	}

	return nil
}

// TogglePower flips a device's power and refreshes on success.
func (e *Engine) TogglePower(ctx context.Context, deviceID int64) error {
	if err := e.actions.TogglePower(ctx, deviceID); err != nil {
		return err
	}

	return e.Refresh(ctx)
}

// DeleteDevice removes a device and refreshes on success.
func (e *Engine) DeleteDevice(ctx context.Context, deviceID int64) error {
	if err := e.actions.DeleteDevice(ctx, deviceID); err != nil {
		return err
	}

	return e.Refresh(ctx)
}

// CreateDevice registers a device and refreshes on success.
func (e *Engine) CreateDevice(ctx context.Context, name, deviceType string) error {
	if err := e.actions.CreateDevice(ctx, name, deviceType); err != nil {
		return err
	}

	return e.Refresh(ctx)
}

// Start implements the lifecycle.Service interface. It performs the
// initial refresh, then serves push hints with polling as the
// fallback whenever the push channel is unavailable.
func (e *Engine) Start(ctx context.Context) error {
	e.wg.Add(1)
	defer e.wg.Done()

	if err := e.Refresh(ctx); err != nil {
		e.logger.Error().Err(err).Msg("Initial refresh failed")
	}

	hints := e.trySubscribe(ctx)
	lastSubAttempt := e.clock.Now()

	ticker := e.clock.Ticker(time.Duration(e.config.PollInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.done:
			return nil
		case _, ok := <-hints:
			if !ok {
				// Push channel lost: fall back to polling. Never an
				// error from the viewer's perspective.
				e.logger.Warn().Msg("Push channel lost, falling back to polling")

				hints = nil
				lastSubAttempt = e.clock.Now()

				continue
			}

			// The hint carries nothing the engine trusts; re-fetch
			// the authoritative state.
			if err := e.Refresh(ctx); err != nil {
				e.logger.Warn().Err(err).Msg("Push-triggered refresh failed")
			}
		case <-ticker.Chan():
			if hints != nil {
				// Push channel healthy; it drives the refreshes.
				continue
			}

			if err := e.Refresh(ctx); err != nil {
				e.logger.Warn().Err(err).Msg("Poll refresh failed")
			}

			if e.clock.Now().Sub(lastSubAttempt) >= time.Duration(e.config.ResubscribeBackoff) {
				lastSubAttempt = e.clock.Now()
				hints = e.trySubscribe(ctx)
			}
		}
	}
}

// Stop implements the lifecycle.Service interface.
func (e *Engine) Stop(_ context.Context) error {
	e.closeOnce.Do(func() {
		close(e.done)
	})

	e.wg.Wait()

	return nil
}

// trySubscribe attempts to establish the push channel. Failure is
// expected and leaves the engine in polling mode.
func (e *Engine) trySubscribe(ctx context.Context) <-chan struct{} {
	if e.subscriber == nil {
		return nil
	}

	hints, err := e.subscriber.Subscribe(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Push subscription unavailable, polling instead")
		return nil
	}

	e.logger.Info().Msg("Push channel established")

	return hints
}
