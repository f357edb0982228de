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

package pushdown

import (
	"context"
	"time"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/logutil"
)

// DefaultDynamicFilterTimeout is dynamic-filter-timeout's documented
// default: how long planning waits for the engine's runtime filters before
// proceeding without them.
const DefaultDynamicFilterTimeout = 20 * time.Second

// AwaitDynamicFilters waits up to timeout for the engine to deliver its
// dynamic filter domains on filters (typically join-key domains collected
// at runtime from the build side). A missed deadline is not a failure: the
// query is still correct without the filter, just less selective, so the
// planner logs and proceeds with nil. A closed channel likewise yields nil.
func AwaitDynamicFilters(ctx context.Context, timeout time.Duration, filters <-chan []Domain) []Domain {
	if filters == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultDynamicFilterTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case domains := <-filters:
		return domains
	case <-timer.C:
		logutil.Warningf("pushdown: dynamic filters not ready after %s, planning without them", timeout)
		return nil
	case <-ctx.Done():
		return nil
	}
}
