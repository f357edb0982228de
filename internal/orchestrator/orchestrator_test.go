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

package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/bufferregistry"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/pushdown"
)

type fakeSession struct {
	execErr error
	ran     chan string
}

func (f *fakeSession) ExecContext(ctx context.Context, query string) error {
	if f.ran != nil {
		f.ran <- query
	}
	return f.execErr
}
func (f *fakeSession) Close() error { return nil }

type fakeOpener struct {
	session *fakeSession
	openErr error
}

func (f *fakeOpener) Open(ctx context.Context, endUser string) (ProducerSession, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.session, nil
}

type fakeControl struct {
	mu  sync.Mutex
	got []bufferregistry.QueryID
}

func (f *fakeControl) SendJdbcFinished(ctx context.Context, w WorkerNode, qid bufferregistry.QueryID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, qid)
	return nil
}

type fakeTokenSink struct {
	mu     sync.Mutex
	tokens map[bufferregistry.QueryID]string
}

func newFakeTokenSink() *fakeTokenSink {
	return &fakeTokenSink{tokens: make(map[bufferregistry.QueryID]string)}
}
func (f *fakeTokenSink) Set(qid bufferregistry.QueryID, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[qid] = token
}
func (f *fakeTokenSink) Clear(qid bufferregistry.QueryID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, qid)
}

func TestPlanSplitsReturnsOnePerWorker(t *testing.T) {
	registry := bufferregistry.NewRegistry(4)
	nodes := StaticSingleNodeManager{Node: WorkerNode{Hostname: "w1", Address: "10.0.0.1:9999"}}
	session := &fakeSession{ran: make(chan string, 1)}
	opener := &fakeOpener{session: session}
	control := &fakeControl{}
	tokens := newFakeTokenSink()

	o := New(Config{UDFDatabase: "td_db", UDFName: "ExportTableOp"}, registry, nodes, opener, control, tokens)
	plan := pushdown.NewPlannedTable("db1", "t")

	splits, err := o.PlanSplits(context.Background(), "alice", "t", plan)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, "10.0.0.1:9999", splits[0].Worker.Address)
	assert.Contains(t, splits[0].ID, "/t/")

	select {
	case sql := <-session.ran:
		assert.Contains(t, sql, "ExportTableOp")
	case <-time.After(time.Second):
		t.Fatal("producer SQL was never executed")
	}

	require.Eventually(t, func() bool {
		control.mu.Lock()
		defer control.mu.Unlock()
		return len(control.got) == 1
	}, time.Second, 10*time.Millisecond)
}

// TestBroadcastsJdbcFinishedEvenOnFailure: a failed producer statement must
// still broadcast JDBC_FINISHED so consumers do not hang.
func TestBroadcastsJdbcFinishedEvenOnFailure(t *testing.T) {
	registry := bufferregistry.NewRegistry(4)
	nodes := StaticSingleNodeManager{Node: WorkerNode{Hostname: "w1", Address: "10.0.0.1:9999"}}
	session := &fakeSession{execErr: errors.New("boom")}
	opener := &fakeOpener{session: session}
	control := &fakeControl{}
	tokens := newFakeTokenSink()

	o := New(Config{UDFDatabase: "td_db", UDFName: "ExportTableOp"}, registry, nodes, opener, control, tokens)
	plan := pushdown.NewPlannedTable("db1", "t")

	_, err := o.PlanSplits(context.Background(), "alice", "t", plan)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		control.mu.Lock()
		defer control.mu.Unlock()
		return len(control.got) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestNoActiveWorkersIsAnError(t *testing.T) {
	registry := bufferregistry.NewRegistry(4)
	o := New(Config{}, registry, noWorkers{}, &fakeOpener{session: &fakeSession{}}, &fakeControl{}, newFakeTokenSink())
	_, err := o.PlanSplits(context.Background(), "alice", "t", pushdown.NewPlannedTable("db1", "t"))
	assert.Error(t, err)
}

type noWorkers struct{}

func (noWorkers) ActiveWorkers() []WorkerNode { return nil }
