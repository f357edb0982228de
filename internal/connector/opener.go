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

package connector

import (
	"context"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/orchestrator"
)

// OrchestratorOpener adapts Factory to orchestrator.SessionOpener, the
// narrow interface the SplitOrchestrator's background task needs.
type OrchestratorOpener struct {
	Factory *Factory
}

func (o OrchestratorOpener) Open(ctx context.Context, endUser string) (orchestrator.ProducerSession, error) {
	return o.Factory.OpenForUser(ctx, endUser)
}
