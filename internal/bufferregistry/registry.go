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

package bufferregistry

import (
	"sync"
	"time"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/connerr"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/rowdecoder"
)

// DefaultCapacity is the number of in-flight batches a QueryBuffer holds
// before PushBatch blocks (buffer-queue-capacity).
const DefaultCapacity = 100

// Registry owns every in-flight query's QueryBuffer and the single
// scheduler shared across all of them.
type Registry struct {
	sched *scheduler

	mu       sync.RWMutex
	buffers  map[QueryID]*QueryBuffer
	capacity int
}

// NewRegistry builds an empty Registry. capacity <= 0 falls back to
// DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		sched:    newScheduler(),
		buffers:  make(map[QueryID]*QueryBuffer),
		capacity: capacity,
	}
}

// RegisterQuery creates (or returns the existing) QueryBuffer for qid. The
// SplitOrchestrator calls this once per query before handing split
// assignments to any producer connection.
func (r *Registry) RegisterQuery(qid QueryID) *QueryBuffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if qb, ok := r.buffers[qid]; ok {
		return qb
	}
	qb := newQueryBuffer(qid, r.capacity, r.sched)
	r.buffers[qid] = qb
	return qb
}

// Lookup returns the QueryBuffer for qid, or nil if it isn't registered
// (including "was registered, now deregistered"). Callers on the push side
// must treat a nil buffer as "discard silently": the query was cancelled
// out from under the connection.
func (r *Registry) Lookup(qid QueryID) *QueryBuffer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buffers[qid]
}

// DeregisterQuery removes qid's buffer and releases any batches still
// sitting in its queue. Safe to call concurrently with in-flight pushes;
// they observe a closed buffer and discard their batch.
func (r *Registry) DeregisterQuery(qid QueryID) {
	r.mu.Lock()
	qb, ok := r.buffers[qid]
	if ok {
		delete(r.buffers, qid)
	}
	r.mu.Unlock()
	if ok {
		qb.close()
	}
}

// PushData routes a decoded batch to qid's buffer. If the query is unknown
// (already deregistered, or never registered, such as a stray connection
// after cancellation) the batch is released and PushData returns without
// error: a silent discard, not a reportable failure.
func (r *Registry) PushData(qid QueryID, b *rowdecoder.Batch) {
	qb := r.Lookup(qid)
	if qb == nil {
		b.Release()
		return
	}
	if !qb.PushBatch(b) {
		b.Release()
	}
}

// Poll waits up to timeout for the next batch or EOS on qid. ok is false on
// timeout or if qid isn't registered at all.
func (r *Registry) Poll(qid QueryID, timeout time.Duration) (batch *rowdecoder.Batch, eos bool, ok bool) {
	qb := r.Lookup(qid)
	if qb == nil {
		return nil, false, false
	}
	return qb.Poll(timeout)
}

// Stats returns a diagnostic snapshot for qid, or an error if qid isn't
// registered.
func (r *Registry) Stats(qid QueryID) (Stats, error) {
	qb := r.Lookup(qid)
	if qb == nil {
		return Stats{}, connerr.New(connerr.KindUnknown, "query %q is not registered", qid)
	}
	qb.mu.Lock()
	defer qb.mu.Unlock()
	return qb.statsLocked(), nil
}

// IncrementConnections/DecrementConnections/SignalJdbcFinished are
// convenience pass-throughs so callers that only hold a Registry (not the
// QueryBuffer pointer) can drive the EOS bookkeeping directly by QueryID.

func (r *Registry) IncrementConnections(qid QueryID) {
	if qb := r.Lookup(qid); qb != nil {
		qb.IncrementConnections()
	}
}

func (r *Registry) DecrementConnections(qid QueryID) {
	if qb := r.Lookup(qid); qb != nil {
		qb.DecrementConnections()
	}
}

func (r *Registry) SignalJdbcFinished(qid QueryID) {
	if qb := r.Lookup(qid); qb != nil {
		qb.SignalJdbcFinished()
	}
}

// SetQueryError records a query-level failure on qid's buffer so the
// consumer surfaces it at its next poll. A no-op for unknown queries.
func (r *Registry) SetQueryError(qid QueryID, err error) {
	if qb := r.Lookup(qid); qb != nil {
		qb.SetError(err)
	}
}

// QueryError returns the first query-level failure recorded for qid, or nil.
func (r *Registry) QueryError(qid QueryID) error {
	if qb := r.Lookup(qid); qb != nil {
		return qb.Err()
	}
	return nil
}

// Close tears the registry down: every remaining buffer is closed (releasing
// blocked pushers and pollers) and the shared scheduler is stopped. The
// registry must not be used afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	buffers := make([]*QueryBuffer, 0, len(r.buffers))
	for _, qb := range r.buffers {
		buffers = append(buffers, qb)
	}
	r.buffers = make(map[QueryID]*QueryBuffer)
	r.mu.Unlock()
	for _, qb := range buffers {
		qb.close()
	}
	r.sched.stop()
}
