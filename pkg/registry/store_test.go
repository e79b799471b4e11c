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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:", logger.NewTestLogger())
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStoreSeedsInitialDevices(t *testing.T) {
	s := newTestStore(t)

	devices, err := s.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "DHT22 Sensor", devices[0].Name)
	assert.Equal(t, "PIR Motion", devices[1].Name)

	for _, d := range devices {
		assert.Equal(t, models.NoThreat, d.Threat)
		assert.True(t, d.Power)
	}
}

func TestStoreCreateAndGetDevice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateDevice(ctx, "Door Sensor", "Contact")
	require.NoError(t, err)

	d, err := s.GetDevice(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "Door Sensor", d.Name)
	assert.Equal(t, "Contact", d.Type)
	assert.Equal(t, "N/A", d.Data)
	assert.Equal(t, models.NoThreat, d.Threat)
	assert.Equal(t, "Unassigned", d.Location)
	assert.True(t, d.Power)
}

func TestStoreGetDeviceNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDevice(context.Background(), 999)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestStoreTogglePower(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.TogglePower(ctx, 1))

	d, err := s.GetDevice(ctx, 1)
	require.NoError(t, err)
	assert.False(t, d.Power)

	require.NoError(t, s.TogglePower(ctx, 1))

	d, err = s.GetDevice(ctx, 1)
	require.NoError(t, err)
	assert.True(t, d.Power)

	assert.ErrorIs(t, s.TogglePower(ctx, 999), ErrDeviceNotFound)
}

func TestStoreDeleteDevice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteDevice(ctx, 2))

	devices, err := s.ListDevices(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 1)

	assert.ErrorIs(t, s.DeleteDevice(ctx, 2), ErrDeviceNotFound)
}

func TestStoreUpdateReading(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateReading(ctx, 1, models.ThreatDetected, "31.20°C, 88.00%", "Just Now"))

	d, err := s.GetDevice(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ThreatDetected, d.Threat)
	assert.Equal(t, "31.20°C, 88.00%", d.Data)
	assert.Equal(t, "Just Now", d.LastSeen)

	assert.ErrorIs(t, s.UpdateReading(ctx, 999, models.NoThreat, "x", "y"), ErrDeviceNotFound)
}
