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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/homewatch/homewatch/pkg/analyzer"
	"github.com/homewatch/homewatch/pkg/config"
	"github.com/homewatch/homewatch/pkg/lifecycle"
	"github.com/homewatch/homewatch/pkg/registry"
	"github.com/homewatch/homewatch/pkg/stream"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/homewatch/registry.json", "Path to registry config file")
	flag.Parse()

	ctx := context.Background()

	var cfg registry.Config
	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logInstance, err := lifecycle.CreateComponentLogger("registry", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := registry.NewStore(cfg.DBPath, logInstance)
	if err != nil {
		return fmt.Errorf("failed to open device store: %w", err)
	}

	defer func() {
		_ = store.Close()
	}()

	hub := stream.NewHub(logInstance)
	defer hub.Close()

	options := []registry.ServerOption{
		registry.WithBroadcaster(hub),
		registry.WithStreamHandler(hub.Handler()),
		registry.WithMetrics(registry.NewMetrics(prometheus.DefaultRegisterer)),
		registry.WithMetricsHandler(),
	}

	if cfg.AnalyzerURL != "" {
		options = append(options, registry.WithClassifier(analyzer.NewClient(cfg.AnalyzerURL, logInstance)))
	}

	server := registry.NewServer(cfg.ListenAddr, store,
		registry.NewDetector(cfg.DetectorOptions()...), logInstance, options...)

	return lifecycle.Run(ctx, server, logInstance)
}
