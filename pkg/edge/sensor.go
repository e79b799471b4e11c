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

package edge

import (
	"errors"
	"math"
	"math/rand"
)

// ErrSensorFault indicates a read that produced no usable value.
var ErrSensorFault = errors.New("sensor fault")

// Reading is one raw sample from the device's sensors. Motion is 0
// for devices without a presence sensor.
type Reading struct {
	Temperature float64
	Humidity    float64
	Motion      int
}

// Valid reports whether the reading carries usable values. NaN and
// infinities are the fault sentinels of the underlying hardware.
func (r Reading) Valid() bool {
	return !math.IsNaN(r.Temperature) && !math.IsInf(r.Temperature, 0) &&
		!math.IsNaN(r.Humidity) && !math.IsInf(r.Humidity, 0)
}

// Sensor produces readings for the send loop. Read must not block
// past a reasonable hardware timeout; a failed read returns an error
// and the tick is skipped.
type Sensor interface {
	Read() (Reading, error)
}

// SimulatedSensor generates plausible temperature/humidity samples
// for nodes without real hardware attached.
type SimulatedSensor struct {
	// HasMotion controls whether the motion flag is ever raised.
	HasMotion bool
}

func (s *SimulatedSensor) Read() (Reading, error) {
	r := Reading{
		Temperature: 20.0 + rand.Float64()*15.0,
		Humidity:    40.0 + rand.Float64()*50.0,
	}

	if s.HasMotion && rand.Intn(4) == 0 {
		r.Motion = 1
	}

	return r, nil
}
