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

// Package registry is the authoritative device registry. It owns the
// device database, ingests edge telemetry, runs threat heuristics,
// and notifies viewers of changes through the event stream.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite driver

	"github.com/homewatch/homewatch/pkg/logger"
	"github.com/homewatch/homewatch/pkg/models"
)

// ErrDeviceNotFound is returned when a device id has no row.
var ErrDeviceNotFound = errors.New("device not found")

var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS devices (
  id        INTEGER PRIMARY KEY AUTOINCREMENT,
  name      TEXT,
  type      TEXT,
  data      TEXT,
  threat    TEXT,
  location  TEXT,
  last_seen TEXT,
  power     BOOLEAN
);
`,
}

// seedDevices are installed on first boot so a fresh registry has
// something to show.
var seedDevices = []models.Device{
	{Name: "DHT22 Sensor", Type: "Temperature & Humidity", Data: "24°C, 60%", Threat: models.NoThreat, Location: "Living Room", LastSeen: "Now", Power: true},
	{Name: "PIR Motion", Type: "Motion Detection", Data: "Motion Detected", Threat: models.NoThreat, Location: "Entrance", LastSeen: "Now", Power: true},
}

// Store is the SQLite-backed device store.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// NewStore opens (and migrates) the device database at path. Use
// ":memory:" for an ephemeral store.
func NewStore(path string, log logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device database: %w", err)
	}

	// SQLite allows one writer; serialize through a single connection
	// instead of surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: log}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := s.seed(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func (s *Store) seed() error {
	var count int
	if err := s.db.QueryRow(`SELECT count(*) FROM devices`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count devices: %w", err)
	}

	if count > 0 {
		return nil
	}

	for _, d := range seedDevices {
		_, err := s.db.Exec(
			`INSERT INTO devices (name, type, data, threat, location, last_seen, power) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.Name, d.Type, d.Data, d.Threat, d.Location, d.LastSeen, d.Power)
		if err != nil {
			return fmt.Errorf("failed to seed devices: %w", err)
		}
	}

	s.logger.Info().Int("count", len(seedDevices)).Msg("Seeded initial devices")

	return nil
}

// ListDevices returns all devices ordered by id.
func (s *Store) ListDevices(ctx context.Context) ([]models.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, data, threat, location, last_seen, power FROM devices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	devices := make([]models.Device, 0)

	for rows.Next() {
		var d models.Device

		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Data, &d.Threat, &d.Location, &d.LastSeen, &d.Power); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}

		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("device row iteration failed: %w", err)
	}

	return devices, nil
}

// GetDevice returns one device by id.
func (s *Store) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	var d models.Device

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, data, threat, location, last_seen, power FROM devices WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Type, &d.Data, &d.Threat, &d.Location, &d.LastSeen, &d.Power)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get device %d: %w", id, err)
	}

	return &d, nil
}

// CreateDevice registers a device with placeholder state and returns
// its id.
func (s *Store) CreateDevice(ctx context.Context, name, deviceType string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (name, type, data, threat, location, last_seen, power) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, deviceType, "N/A", models.NoThreat, "Unassigned", "Now", true)
	if err != nil {
		return 0, fmt.Errorf("failed to create device: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new device id: %w", err)
	}

	return id, nil
}

// TogglePower flips a device's power state.
func (s *Store) TogglePower(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE devices SET power = NOT power WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to toggle device %d: %w", id, err)
	}

	return s.requireRow(res, id)
}

// DeleteDevice removes a device.
func (s *Store) DeleteDevice(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete device %d: %w", id, err)
	}

	return s.requireRow(res, id)
}

// UpdateReading stores the outcome of one telemetry ingest.
func (s *Store) UpdateReading(ctx context.Context, id int64, threat, data, lastSeen string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE devices SET threat = ?, data = ?, last_seen = ? WHERE id = ?`,
		threat, data, lastSeen, id)
	if err != nil {
		return fmt.Errorf("failed to update device %d: %w", id, err)
	}

	return s.requireRow(res, id)
}

func (*Store) requireRow(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
