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

// Package viewer renders the device dashboard in the terminal. The
// sync engine owns all state; the viewer only displays snapshots and
// routes key presses back through the engine's actions.
package viewer

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/homewatch/homewatch/pkg/alerts"
	"github.com/homewatch/homewatch/pkg/logger"
	homesync "github.com/homewatch/homewatch/pkg/sync"
)

// App wraps the bubbletea program so the sync engine and alert
// engine can feed it from their own goroutines.
type App struct {
	program *tea.Program
	logger  logger.Logger
}

// NewApp builds the dashboard application.
func NewApp(actions DeviceActions, log logger.Logger) *App {
	m := newModel(actions)

	return &App{
		program: tea.NewProgram(m, tea.WithAltScreen()),
		logger:  log,
	}
}

// Run blocks until the user quits.
func (a *App) Run() error {
	_, err := a.program.Run()
	return err
}

// Quit asks the program to exit.
func (a *App) Quit() {
	a.program.Quit()
}

// Consumer returns the render pipeline fed by the sync engine.
func (a *App) Consumer() homesync.Consumer {
	return func(snap *homesync.Snapshot) {
		a.program.Send(SnapshotMsg{Snapshot: snap})
	}
}

// Surface returns the alert banner surface.
func (a *App) Surface() alerts.Surface {
	return &bannerSurface{program: a.program}
}

type bannerSurface struct {
	program *tea.Program
}

func (b *bannerSurface) Show(text string) {
	b.program.Send(AlertMsg{Text: text, Visible: true})
}

func (b *bannerSurface) Clear() {
	b.program.Send(AlertMsg{Visible: false})
}
