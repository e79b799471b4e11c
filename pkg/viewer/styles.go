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

import "github.com/charmbracelet/lipgloss"

const (
	colorCyan    = "#8be9fd"
	colorGreen   = "#50fa7b"
	colorRed     = "#ff5555"
	colorComment = "#6272a4"
	colorYellow  = "#f1fa8c"
)

type styles struct {
	title   lipgloss.Style
	alert   lipgloss.Style
	ok      lipgloss.Style
	help    lipgloss.Style
	prompt  lipgloss.Style
	offline lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorCyan)).
			Bold(true).
			Padding(0, 1),
		alert: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorRed)).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorRed)).
			Padding(0, 1),
		ok: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGreen)),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorComment)),
		prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorYellow)),
		offline: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorComment)),
	}
}
