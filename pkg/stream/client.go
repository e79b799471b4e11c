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

package stream

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/homewatch/homewatch/pkg/logger"
)

const dialTimeout = 10 * time.Second

// Subscriber dials the registry's event stream and turns device_update
// events into refresh hints. It implements the sync engine's
// Subscriber interface.
type Subscriber struct {
	endpoint string
	dialer   *websocket.Dialer
	logger   logger.Logger
}

// NewSubscriber builds a subscriber for the registry at baseURL
// (http:// or https://); the scheme is rewritten for WebSocket.
func NewSubscriber(baseURL string, log logger.Logger) (*Subscriber, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("invalid registry URL scheme: %q", u.Scheme)
	}

	u.Path = "/api/stream"

	return &Subscriber{
		endpoint: u.String(),
		dialer:   &websocket.Dialer{HandshakeTimeout: dialTimeout},
		logger:   log,
	}, nil
}

// Subscribe connects to the event stream. The returned channel yields
// one element per device_update and is closed when the connection is
// lost; callers fall back to polling and retry Subscribe themselves.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("stream dial failed (%s): %w", resp.Status, err)
		}

		return nil, fmt.Errorf("stream dial failed: %w", err)
	}

	hints := make(chan struct{}, 1)

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(hints)
		defer func() { _ = conn.Close() }()

		for {
			var msg StreamMessage

			if err := conn.ReadJSON(&msg); err != nil {
				if ctx.Err() == nil {
					s.logger.Warn().Err(err).Msg("Event stream read failed")
				}

				return
			}

			if msg.Type != TypeEvent || msg.Event != EventDeviceUpdate {
				continue
			}

			// Coalesce: one pending hint is enough, a refresh fetches
			// everything.
			select {
			case hints <- struct{}{}:
			default:
			}
		}
	}()

	return hints, nil
}
