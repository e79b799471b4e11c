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

// Package lifecycle manages service startup, shutdown, and logger
// construction for the homewatch daemons.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homewatch/homewatch/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Service is implemented by long-running components managed by Run.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// CreateLogger creates a new logger instance with the provided
// configuration. This returns a logger that can be injected into
// services.
func CreateLogger(config *logger.Config) (logger.Logger, error) {
	return logger.New(config)
}

// CreateComponentLogger creates a logger tagged with a component name.
func CreateComponentLogger(component string, config *logger.Config) (logger.Logger, error) {
	log, err := logger.New(config)
	if err != nil {
		return nil, err
	}

	zlog := log.With().Str("component", component).Logger()

	return logger.FromZerolog(zlog), nil
}

// Run starts the service and blocks until the context is canceled, a
// termination signal arrives, or the service's Start returns. Stop is
// always attempted with a bounded timeout.
func Run(ctx context.Context, svc Service, log logger.Logger) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- svc.Start(ctx)
	}()

	var startErr error

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			startErr = fmt.Errorf("service failed: %w", err)
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	if err := svc.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")

		if startErr == nil {
			startErr = err
		}
	}

	return startErr
}
