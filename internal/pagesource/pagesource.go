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

// Package pagesource adapts a bufferregistry.Registry query into the pull
// shape the consumer engine drives a split with. The engine's own
// Page/Block representation lives behind the SPI boundary; PageConverter is
// the extension point a real integration implements.
package pagesource

import (
	"context"
	"time"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/bufferregistry"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/rowdecoder"
)

// DefaultPollTimeout is page-poll-timeout-ms's documented default.
const DefaultPollTimeout = 500 * time.Millisecond

// PageConverter turns a decoded Batch into whatever page/block representation
// the hosting engine needs. Left as an interface on purpose: the conversion
// itself depends entirely on the hosting engine's SPI.
type PageConverter interface {
	Convert(batch *rowdecoder.Batch) (interface{}, error)
}

// Source pulls batches for one query out of a Registry until end-of-stream.
// It holds only a weak, QueryId-keyed association with the buffer and never
// owns it; the registry does.
type Source struct {
	registry    *bufferregistry.Registry
	qid         bufferregistry.QueryID
	pollTimeout time.Duration
	converter   PageConverter
	done        bool
}

// New builds a Source for qid. pollTimeout <= 0 uses DefaultPollTimeout.
func New(registry *bufferregistry.Registry, qid bufferregistry.QueryID, pollTimeout time.Duration, converter PageConverter) *Source {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return &Source{registry: registry, qid: qid, pollTimeout: pollTimeout, converter: converter}
}

// NextBatch returns the next decoded Batch, or (nil, true, nil) once
// end-of-stream has been drained. It polls with a bounded timeout so the
// caller stays responsive to engine-side cancellation, and surfaces the
// first query-level failure recorded on the buffer.
func (s *Source) NextBatch(ctx context.Context) (*rowdecoder.Batch, bool, error) {
	if s.done {
		return nil, true, nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		default:
		}
		if err := s.registry.QueryError(s.qid); err != nil {
			s.done = true
			return nil, false, err
		}
		batch, eos, ok := s.registry.Poll(s.qid, s.pollTimeout)
		if !ok {
			if s.registry.Lookup(s.qid) == nil {
				// Not registered yet (data can arrive before the split
				// does); Poll returned immediately, so pace the retry.
				select {
				case <-ctx.Done():
					return nil, false, ctx.Err()
				case <-time.After(s.pollTimeout):
				}
			}
			continue
		}
		if eos {
			s.done = true
			return nil, true, nil
		}
		return batch, false, nil
	}
}

// NextPage is the convenience wrapper that additionally runs the configured
// PageConverter, for callers that don't want to handle Batch/Release
// themselves.
func (s *Source) NextPage(ctx context.Context) (interface{}, bool, error) {
	batch, eos, err := s.NextBatch(ctx)
	if err != nil || eos {
		return nil, eos, err
	}
	defer batch.Release()
	page, err := s.converter.Convert(batch)
	if err != nil {
		return nil, false, err
	}
	return page, false, nil
}

// Close deregisters the query's buffer; the counterpart of the
// orchestrator's cancellation path.
func (s *Source) Close() {
	s.registry.DeregisterQuery(s.qid)
}
