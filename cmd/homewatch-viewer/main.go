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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/homewatch/homewatch/pkg/alerts"
	"github.com/homewatch/homewatch/pkg/config"
	"github.com/homewatch/homewatch/pkg/lifecycle"
	"github.com/homewatch/homewatch/pkg/registryapi"
	"github.com/homewatch/homewatch/pkg/stream"
	homesync "github.com/homewatch/homewatch/pkg/sync"
	"github.com/homewatch/homewatch/pkg/viewer"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/homewatch/viewer.json", "Path to viewer config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cfg viewer.Config
	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logInstance, err := lifecycle.CreateComponentLogger("viewer", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	api := registryapi.NewClient(cfg.RegistryURL)

	subscriber, err := stream.NewSubscriber(cfg.RegistryURL, logInstance)
	if err != nil {
		return fmt.Errorf("failed to build stream subscriber: %w", err)
	}

	// The app, the alert engine, and the sync engine form a cycle:
	// the engine feeds snapshots to both, the app routes key presses
	// back through the engine. Late-bind through closures.
	var (
		app         *viewer.App
		alertEngine *alerts.Engine
	)

	engine := homesync.NewEngine(&cfg.Sync, api, api, subscriber, nil, logInstance,
		func(snap *homesync.Snapshot) { app.Consumer()(snap) },
		func(snap *homesync.Snapshot) { alertEngine.Evaluate(snap.Devices) },
	)

	app = viewer.NewApp(engine, logInstance)
	alertEngine = alerts.NewEngine(app.Surface(), logInstance)

	go func() {
		if startErr := engine.Start(ctx); startErr != nil && ctx.Err() == nil {
			logInstance.Error().Err(startErr).Msg("Sync engine stopped")
		}
	}()

	runErr := app.Run()

	cancel()

	if stopErr := engine.Stop(context.Background()); stopErr != nil {
		logInstance.Error().Err(stopErr).Msg("Error stopping sync engine")
	}

	return runErr
}
