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

package viewer

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homewatch/homewatch/pkg/models"
	homesync "github.com/homewatch/homewatch/pkg/sync"
)

type recordedAction struct {
	name string
	id   int64
}

type fakeActions struct {
	calls   []recordedAction
	created []string
}

func (f *fakeActions) Refresh(_ context.Context) error {
	f.calls = append(f.calls, recordedAction{name: "refresh"})
	return nil
}

func (f *fakeActions) TogglePower(_ context.Context, id int64) error {
	f.calls = append(f.calls, recordedAction{"toggle", id})
	return nil
}

func (f *fakeActions) DeleteDevice(_ context.Context, id int64) error {
	f.calls = append(f.calls, recordedAction{"delete", id})
	return nil
}

func (f *fakeActions) CreateDevice(_ context.Context, name, deviceType string) error {
	f.created = append(f.created, name+"/"+deviceType)
	return nil
}

func snapshotWith(devices ...models.Device) SnapshotMsg {
	return SnapshotMsg{Snapshot: &homesync.Snapshot{Devices: devices, Generation: 1}}
}

func testDevices() []models.Device {
	return []models.Device{
		{ID: 1, Name: "DHT22 Sensor", Type: "Temperature & Humidity", Data: "24°C, 60%", Threat: models.NoThreat, Location: "Living Room", LastSeen: "Now", Power: true},
		{ID: 2, Name: "PIR Motion", Type: "Motion Detection", Data: "Motion Detected", Threat: models.ThreatDetected, Location: "Entrance", LastSeen: "Just Now", Power: true},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSnapshotPopulatesTable(t *testing.T) {
	m := newModel(&fakeActions{})

	updated, _ := m.Update(snapshotWith(testDevices()...))
	m = updated.(*model)

	require.Len(t, m.table.Rows(), 2)
	assert.Equal(t, "DHT22 Sensor", m.table.Rows()[0][1])
	assert.Equal(t, "Threat Detected", m.table.Rows()[1][4])

	view := m.View()
	assert.Contains(t, view, "DHT22 Sensor")
}

func TestAlertBannerShowsAndClears(t *testing.T) {
	m := newModel(&fakeActions{})

	updated, _ := m.Update(AlertMsg{Text: "Threat detected on 1 device", Visible: true})
	m = updated.(*model)
	assert.Contains(t, m.View(), "Threat detected on 1 device")

	updated, _ = m.Update(AlertMsg{Visible: false})
	m = updated.(*model)
	assert.NotContains(t, m.View(), "Threat detected on 1 device")
	assert.Contains(t, m.View(), "All clear")
}

func TestToggleKeyTargetsSelectedDevice(t *testing.T) {
	actions := &fakeActions{}
	m := newModel(actions)

	updated, _ := m.Update(snapshotWith(testDevices()...))
	m = updated.(*model)

	_, cmd := m.Update(keyMsg("t"))
	require.NotNil(t, cmd)

	cmd()
	require.Len(t, actions.calls, 1)
	assert.Equal(t, recordedAction{"toggle", 1}, actions.calls[0])
}

func TestDeleteKeyTargetsSelectedDevice(t *testing.T) {
	actions := &fakeActions{}
	m := newModel(actions)

	updated, _ := m.Update(snapshotWith(testDevices()...))
	m = updated.(*model)

	_, cmd := m.Update(keyMsg("d"))
	require.NotNil(t, cmd)

	cmd()
	require.Len(t, actions.calls, 1)
	assert.Equal(t, recordedAction{"delete", 1}, actions.calls[0])
}

func TestRefreshKeyTriggersEngineRefresh(t *testing.T) {
	actions := &fakeActions{}
	m := newModel(actions)

	_, cmd := m.Update(keyMsg("r"))
	require.NotNil(t, cmd)

	cmd()
	require.Len(t, actions.calls, 1)
	assert.Equal(t, recordedAction{name: "refresh"}, actions.calls[0])
}

func TestActionKeysIgnoredWithEmptyTable(t *testing.T) {
	actions := &fakeActions{}
	m := newModel(actions)

	_, cmd := m.Update(keyMsg("t"))
	assert.Nil(t, cmd)
	assert.Empty(t, actions.calls)
}

func TestAddDeviceFlow(t *testing.T) {
	actions := &fakeActions{}
	m := newModel(actions)

	updated, _ := m.Update(keyMsg("a"))
	m = updated.(*model)
	require.Equal(t, modeAddName, m.mode)

	for _, r := range "Door" {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(*model)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(*model)
	require.Equal(t, modeAddType, m.mode)

	for _, r := range "Contact" {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(*model)
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(*model)
	require.NotNil(t, cmd)

	cmd()
	require.Len(t, actions.created, 1)
	assert.Equal(t, "Door/Contact", actions.created[0])
	assert.Equal(t, modeBrowse, m.mode)
}

func TestAddDeviceEscCancels(t *testing.T) {
	actions := &fakeActions{}
	m := newModel(actions)

	updated, _ := m.Update(keyMsg("a"))
	m = updated.(*model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(*model)

	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, actions.created)
}

func TestQuitKey(t *testing.T) {
	m := newModel(&fakeActions{})

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
