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

	"github.com/homewatch/homewatch/pkg/config"
	"github.com/homewatch/homewatch/pkg/edge"
	"github.com/homewatch/homewatch/pkg/lifecycle"
	"github.com/homewatch/homewatch/pkg/registryapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/homewatch/edge.json", "Path to edge config file")
	flag.Parse()

	ctx := context.Background()

	var cfg edge.Config
	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logInstance, err := lifecycle.CreateComponentLogger("edge", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	client := edge.New(&cfg,
		registryapi.NewClient(cfg.RegistryURL),
		&edge.SimulatedSensor{HasMotion: cfg.MotionSensor},
		edge.SystemTimeSource(),
		nil,
		logInstance)

	return lifecycle.Run(ctx, client, logInstance)
}
