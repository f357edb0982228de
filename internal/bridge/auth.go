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

package bridge

import (
	"sync"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/bufferregistry"
)

// TokenAuthority answers "what token is this query allowed to present",
// letting BridgeReceiver accept either the per-query dynamic token minted by
// the SplitOrchestrator or the globally configured static fallback.
type TokenAuthority interface {
	// ExpectedToken returns the token registered for qid and whether one is
	// registered at all.
	ExpectedToken(qid bufferregistry.QueryID) (string, bool)
}

// TokenRegistry is the in-memory TokenAuthority the SplitOrchestrator
// populates when it mints a DynamicToken per query and clears when that
// query's background task ends, after its JDBC_FINISHED broadcast.
// Deregistering the query's buffer does not clear the token.
type TokenRegistry struct {
	mu     sync.RWMutex
	tokens map[bufferregistry.QueryID]string
}

func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{tokens: make(map[bufferregistry.QueryID]string)}
}

func (t *TokenRegistry) Set(qid bufferregistry.QueryID, token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[qid] = token
}

func (t *TokenRegistry) Clear(qid bufferregistry.QueryID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tokens, qid)
}

func (t *TokenRegistry) ExpectedToken(qid bufferregistry.QueryID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tok, ok := t.tokens[qid]
	return tok, ok
}

// authenticate reports whether presented is acceptable for qid: either it
// matches the per-query dynamic token, or (when non-empty) the static
// fallback configured bridge-wide.
func authenticate(tokens TokenAuthority, staticToken string, qid bufferregistry.QueryID, presented string) bool {
	if expected, ok := tokens.ExpectedToken(qid); ok && presented == expected {
		return true
	}
	if staticToken != "" && presented == staticToken {
		return true
	}
	return false
}
