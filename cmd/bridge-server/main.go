/*
Copyright 2026 The Trino Teradata Connector Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command bridge-server wires together the bridge receiver and its buffer
// registry for a single worker and starts accepting producer connections.
// The hosting engine's plugin layer does this wiring in a real deployment;
// this entrypoint exists so the receiver can run standalone.
package main

import (
	"flag"
	"os"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/bridge"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/bufferregistry"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/logutil"
)

func main() {
	port := flag.Int("bridge-port", bridge.DefaultConfig().BridgePort, "TCP port the bridge receiver listens on")
	staticToken := flag.String("token", "", "static fallback bridge token")
	queueCapacity := flag.Int("buffer-queue-capacity", bufferregistry.DefaultCapacity, "max batches per QueryBuffer")
	flag.Parse()

	cfg := bridge.DefaultConfig()
	cfg.BridgePort = *port
	cfg.StaticToken = *staticToken

	registry := bufferregistry.NewRegistry(*queueCapacity)
	defer registry.Close()
	tokens := bridge.NewTokenRegistry()
	receiver := bridge.NewReceiver(cfg, registry, tokens)

	logutil.Infof("bridge-server: starting on port %d", cfg.BridgePort)
	if err := receiver.Serve(); err != nil {
		logutil.Errorf("bridge-server: exiting: %v", err)
		logutil.Flush()
		os.Exit(1)
	}
}
