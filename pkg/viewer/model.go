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
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/homewatch/homewatch/pkg/models"
	homesync "github.com/homewatch/homewatch/pkg/sync"
)

// DeviceActions is the subset of sync engine operations the keyboard
// drives.
type DeviceActions interface {
	Refresh(ctx context.Context) error
	TogglePower(ctx context.Context, deviceID int64) error
	DeleteDevice(ctx context.Context, deviceID int64) error
	CreateDevice(ctx context.Context, name, deviceType string) error
}

// SnapshotMsg delivers a refreshed device snapshot to the UI.
type SnapshotMsg struct {
	Snapshot *homesync.Snapshot
}

// AlertMsg drives the alert banner.
type AlertMsg struct {
	Text    string
	Visible bool
}

type actionDoneMsg struct {
	err error
}

type uiMode int

const (
	modeBrowse uiMode = iota
	modeAddName
	modeAddType
)

type model struct {
	actions DeviceActions
	styles  styles

	table     table.Model
	devices   []models.Device
	alertText string
	alerting  bool
	lastErr   error

	mode      uiMode
	nameInput textinput.Model
	typeInput textinput.Model

	width int
}

func newModel(actions DeviceActions) *model {
	columns := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Name", Width: 16},
		{Title: "Type", Width: 22},
		{Title: "Data", Width: 18},
		{Title: "Threat", Width: 16},
		{Title: "Location", Width: 12},
		{Title: "Last Seen", Width: 10},
		{Title: "Power", Width: 5},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	name := textinput.New()
	name.Placeholder = "device name"
	name.CharLimit = 64

	deviceType := textinput.New()
	deviceType.Placeholder = "device type"
	deviceType.CharLimit = 64

	return &model{
		actions:   actions,
		styles:    newStyles(),
		table:     t,
		nameInput: name,
		typeInput: deviceType,
	}
}

func (*model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.setDevices(msg.Snapshot.Devices)
		return m, nil
	case AlertMsg:
		m.alertText = msg.Text
		m.alerting = msg.Visible

		return m, nil
	case actionDoneMsg:
		m.lastErr = msg.err
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeBrowse {
		return m.handleAddKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "t":
		return m.runAction(func(ctx context.Context, id int64) error {
			return m.actions.TogglePower(ctx, id)
		})
	case "d":
		return m.runAction(func(ctx context.Context, id int64) error {
			return m.actions.DeleteDevice(ctx, id)
		})
	case "a":
		m.mode = modeAddName
		m.nameInput.Reset()
		m.typeInput.Reset()

		return m, m.nameInput.Focus()
	case "r":
		return m, func() tea.Msg {
			return actionDoneMsg{err: m.actions.Refresh(context.Background())}
		}
	}

	var cmd tea.Cmd

	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.nameInput.Blur()
		m.typeInput.Blur()

		return m, nil
	case tea.KeyEnter, tea.KeyTab:
		if m.mode == modeAddName {
			m.mode = modeAddType
			m.nameInput.Blur()

			return m, m.typeInput.Focus()
		}

		if msg.Type == tea.KeyEnter {
			return m.submitAdd()
		}

		m.mode = modeAddName
		m.typeInput.Blur()

		return m, m.nameInput.Focus()
	default:
	}

	var cmd tea.Cmd

	if m.mode == modeAddName {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.typeInput, cmd = m.typeInput.Update(msg)
	}

	return m, cmd
}

func (m *model) submitAdd() (tea.Model, tea.Cmd) {
	name := m.nameInput.Value()
	deviceType := m.typeInput.Value()

	m.mode = modeBrowse
	m.typeInput.Blur()

	if name == "" || deviceType == "" {
		return m, nil
	}

	return m, func() tea.Msg {
		return actionDoneMsg{err: m.actions.CreateDevice(context.Background(), name, deviceType)}
	}
}

// runAction applies an engine action to the selected device. The
// engine refreshes after the side effect, so the snapshot update
// arrives as a SnapshotMsg rather than being patched in place.
func (m *model) runAction(action func(context.Context, int64) error) (tea.Model, tea.Cmd) {
	id, ok := m.selectedDevice()
	if !ok {
		return m, nil
	}

	return m, func() tea.Msg {
		return actionDoneMsg{err: action(context.Background(), id)}
	}
}

func (m *model) selectedDevice() (int64, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.devices) {
		return 0, false
	}

	return m.devices[idx].ID, true
}

func (m *model) setDevices(devices []models.Device) {
	m.devices = devices

	rows := make([]table.Row, len(devices))
	for i, d := range devices {
		power := "off"
		if d.Power {
			power = "on"
		}

		rows[i] = table.Row{
			strconv.FormatInt(d.ID, 10),
			d.Name,
			d.Type,
			d.Data,
			d.Threat,
			d.Location,
			d.LastSeen,
			power,
		}
	}

	m.table.SetRows(rows)
}

func (m *model) View() string {
	var sections []string

	sections = append(sections, m.styles.title.Render("Homewatch"))

	if m.alerting {
		sections = append(sections, m.styles.alert.Render(m.alertText))
	} else {
		sections = append(sections, m.styles.ok.Render("All clear"))
	}

	sections = append(sections, m.table.View())

	if m.mode != modeBrowse {
		sections = append(sections,
			m.styles.prompt.Render("New device"),
			m.nameInput.View(),
			m.typeInput.View(),
			m.styles.help.Render("enter: next/confirm  esc: cancel"))
	} else {
		sections = append(sections, m.styles.help.Render("t: toggle power  d: delete  a: add  r: refresh  q: quit"))
	}

	if m.lastErr != nil {
		sections = append(sections, m.styles.offline.Render(fmt.Sprintf("last action failed: %v", m.lastErr)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
