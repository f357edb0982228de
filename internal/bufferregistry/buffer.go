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

// Package bufferregistry holds the per-query bounded FIFO buffers that sit
// between the BridgeReceiver's connection goroutines (producers of Batch
// values) and the PageSource adapter the consumer engine pulls from.
//
// The interesting part isn't the queue itself, it's knowing when a query is
// truly done: several producer connections stream into the same query
// concurrently, and the JDBC driver's "no more splits" signal can arrive
// before or after the last connection finishes. That's the hybrid
// end-of-stream rule implemented here.
package bufferregistry

import (
	"sync"
	"time"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/rowdecoder"
)

// QueryID identifies one logical query across all of its splits/connections.
type QueryID string

// eosIdleWindow is how long activeConnections must stay at zero (with
// jdbcFinished set) before EOS is actually signalled, so a connection that
// finishes and is immediately replaced by the orchestrator opening the next
// split doesn't trip a false end-of-stream.
const eosIdleWindow = 500 * time.Millisecond

// eosSentinel names the end-of-stream marker. It is not itself enqueued: the
// marker travels as an item with eos set, enqueued exactly once per query in
// place of a Batch, to tell the PageSource there is nothing further to read.
type eosSentinel struct{}

// item is what travels through a QueryBuffer's queue: either a decoded batch
// or the EOS sentinel.
type item struct {
	batch *rowdecoder.Batch
	eos   bool
}

// QueryBuffer is the bounded FIFO for one query's decoded batches, plus the
// bookkeeping the hybrid EOS rule needs.
type QueryBuffer struct {
	id    QueryID
	sched *scheduler

	mu               sync.Mutex
	cond             *sync.Cond
	queue            []item
	capacity         int
	closed           bool
	activeConns      int
	jdbcFinished     bool
	eosSignalled     bool
	recheckScheduled bool
	lastActivity     time.Time
	firstErr         error
}

func newQueryBuffer(id QueryID, capacity int, sched *scheduler) *QueryBuffer {
	qb := &QueryBuffer{
		id:           id,
		sched:        sched,
		capacity:     capacity,
		lastActivity: time.Now(),
	}
	qb.cond = sync.NewCond(&qb.mu)
	return qb
}

// IncrementConnections records that another producer connection has joined
// this query's fan-in.
func (qb *QueryBuffer) IncrementConnections() {
	qb.mu.Lock()
	qb.activeConns++
	qb.lastActivity = time.Now()
	qb.mu.Unlock()
}

// DecrementConnections records that a producer connection has finished (or
// failed) and is no longer going to push batches.
func (qb *QueryBuffer) DecrementConnections() {
	qb.mu.Lock()
	if qb.activeConns > 0 {
		qb.activeConns--
	}
	qb.lastActivity = time.Now()
	qb.checkAndSignalEosLocked()
	qb.mu.Unlock()
}

// SignalJdbcFinished records that the JDBC driver told the orchestrator no
// further splits will be opened for this query.
func (qb *QueryBuffer) SignalJdbcFinished() {
	qb.mu.Lock()
	qb.jdbcFinished = true
	qb.lastActivity = time.Now()
	qb.checkAndSignalEosLocked()
	qb.mu.Unlock()
}

// SetError records a query-level failure. Only the first error sticks; the
// consumer surfaces it to the engine at its next poll. Per-connection
// failures never land here, they are isolated to their connection.
func (qb *QueryBuffer) SetError(err error) {
	if err == nil {
		return
	}
	qb.mu.Lock()
	if qb.firstErr == nil {
		qb.firstErr = err
	}
	qb.cond.Broadcast()
	qb.mu.Unlock()
}

// Err returns the first query-level failure recorded, if any.
func (qb *QueryBuffer) Err() error {
	qb.mu.Lock()
	defer qb.mu.Unlock()
	return qb.firstErr
}

// PushBatch enqueues a decoded batch, blocking while the queue is at
// capacity (the backpressure the producer side must honor). Returns false if
// the buffer has already been closed/deregistered, in which case the caller
// must release the batch itself.
func (qb *QueryBuffer) PushBatch(b *rowdecoder.Batch) bool {
	qb.mu.Lock()
	defer qb.mu.Unlock()
	for !qb.closed && len(qb.queue) >= qb.capacity {
		qb.cond.Wait()
	}
	if qb.closed {
		return false
	}
	qb.queue = append(qb.queue, item{batch: b})
	qb.lastActivity = time.Now()
	qb.cond.Broadcast()
	return true
}

// Poll waits up to timeout for the next item. It returns (batch, eos, ok):
// ok is false on timeout with nothing available, or once the buffer has been
// closed and its queue is empty; eos is true once, when the end-of-stream
// sentinel is drained.
func (qb *QueryBuffer) Poll(timeout time.Duration) (batch *rowdecoder.Batch, eos bool, ok bool) {
	deadline := time.Now().Add(timeout)
	qb.mu.Lock()
	defer qb.mu.Unlock()
	for len(qb.queue) == 0 {
		if qb.closed {
			return nil, false, false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false, false
		}
		qb.waitWithTimeout(remaining)
	}
	it := qb.queue[0]
	qb.queue = qb.queue[1:]
	qb.cond.Broadcast()
	if it.eos {
		return nil, true, true
	}
	return it.batch, false, true
}

// waitWithTimeout wakes cond.Wait() after d by running a timer that grabs
// the same mutex to issue a Broadcast; this keeps Poll's public contract a
// plain bounded wait without parking a second goroutine for the length of
// the wait (the timer's callback only runs if the deadline is reached).
func (qb *QueryBuffer) waitWithTimeout(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		qb.mu.Lock()
		qb.cond.Broadcast()
		qb.mu.Unlock()
	})
	qb.cond.Wait()
	timer.Stop()
}

// checkAndSignalEosLocked implements the hybrid end-of-stream rule: EOS is
// signalled only once jdbcFinished is set AND activeConns has been at zero
// for at least eosIdleWindow. Must be called with qb.mu held.
func (qb *QueryBuffer) checkAndSignalEosLocked() {
	if qb.eosSignalled || qb.closed {
		return
	}
	if !qb.jdbcFinished || qb.activeConns != 0 {
		return
	}
	idleFor := time.Since(qb.lastActivity)
	if idleFor >= eosIdleWindow {
		qb.queue = append(qb.queue, item{eos: true})
		qb.eosSignalled = true
		qb.cond.Broadcast()
		return
	}
	if qb.recheckScheduled {
		return
	}
	qb.recheckScheduled = true
	fireAt := qb.lastActivity.Add(eosIdleWindow)
	qb.sched.schedule(fireAt, func() {
		qb.mu.Lock()
		qb.recheckScheduled = false
		qb.checkAndSignalEosLocked()
		qb.mu.Unlock()
	})
}

// Stats is a point-in-time snapshot for diagnostics/testing.
type Stats struct {
	QueueDepth       int
	ActiveConns      int
	JdbcFinished     bool
	EosSignalled     bool
	SecondsSinceBusy float64
}

func (qb *QueryBuffer) statsLocked() Stats {
	return Stats{
		QueueDepth:       len(qb.queue),
		ActiveConns:      qb.activeConns,
		JdbcFinished:     qb.jdbcFinished,
		EosSignalled:     qb.eosSignalled,
		SecondsSinceBusy: time.Since(qb.lastActivity).Seconds(),
	}
}

// close marks the buffer deregistered: any blocked pusher is released (and
// must discard its batch), and any blocked poller sees ok=false.
func (qb *QueryBuffer) close() {
	qb.mu.Lock()
	qb.closed = true
	for _, it := range qb.queue {
		if it.batch != nil {
			it.batch.Release()
		}
	}
	qb.queue = nil
	qb.cond.Broadcast()
	qb.mu.Unlock()
}
