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

// Package orchestrator implements the SplitOrchestrator: for every query the
// engine issues, it mints a fresh QueryId/DynamicToken, resolves target
// worker endpoints, registers the query locally, kicks off the producer-side
// query on a background goroutine, and hands the engine back one Split per
// worker.
package orchestrator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/bufferregistry"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/connerr"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/logutil"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/pushdown"
)

// WorkerNode is one active consumer-engine worker.
type WorkerNode struct {
	Hostname string
	Address  string // resolved literal IP:port, required by the producer-side operator
}

// NodeManager resolves the set of workers a multi-worker deployment should
// fan out to. In single-worker mode a static one-node implementation is
// used; in multi-worker mode the engine's node manager implements this.
type NodeManager interface {
	ActiveWorkers() []WorkerNode
}

// StaticSingleNodeManager is the single-worker NodeManager: one fixed
// address resolved from configuration.
type StaticSingleNodeManager struct {
	Node WorkerNode
}

func (s StaticSingleNodeManager) ActiveWorkers() []WorkerNode { return []WorkerNode{s.Node} }

// ProducerSession is what ConnectionFactory hands back: the minimal surface
// the orchestrator's background task needs (open a session, run one
// statement, close). Kept as an interface so tests don't need a live
// producer database.
type ProducerSession interface {
	ExecContext(ctx context.Context, query string) error
	Close() error
}

// SessionOpener abstracts ConnectionFactory's "open an authenticated session
// for this end user" operation.
type SessionOpener interface {
	Open(ctx context.Context, endUser string) (ProducerSession, error)
}

// ControlFrameSender abstracts sending a token-authenticated JDBC_FINISHED
// control frame to a worker's bridge receiver; bridge.ControlClient backs
// this in production (via ControlSenderFunc), tests use a fake.
type ControlFrameSender interface {
	SendJdbcFinished(ctx context.Context, worker WorkerNode, qid bufferregistry.QueryID, token string) error
}

// ControlSenderFunc adapts an address-keyed send function (such as
// bridge.ControlClient.SendJdbcFinished) to ControlFrameSender.
type ControlSenderFunc func(ctx context.Context, addr string, qid bufferregistry.QueryID, token string) error

func (f ControlSenderFunc) SendJdbcFinished(ctx context.Context, worker WorkerNode, qid bufferregistry.QueryID, token string) error {
	return f(ctx, worker.Address, qid, token)
}

// Split is a unit of work the engine schedules on exactly one worker.
type Split struct {
	ID     string
	QID    bufferregistry.QueryID
	Worker WorkerNode
}

// Config carries the producer-side table operator identity (udf-database /
// udf-name) used to build the ExportTableOp SQL.
type Config struct {
	UDFDatabase string
	UDFName     string
}

// Orchestrator is the SplitOrchestrator.
type Orchestrator struct {
	cfg      Config
	nodes    NodeManager
	opener   SessionOpener
	control  ControlFrameSender
	tokens   TokenSink
	registry *bufferregistry.Registry
}

// TokenSink is how the orchestrator publishes a minted DynamicToken so the
// local BridgeReceiver's TokenAuthority can validate incoming connections
// (internal/bridge.TokenRegistry implements this).
type TokenSink interface {
	Set(qid bufferregistry.QueryID, token string)
	Clear(qid bufferregistry.QueryID)
}

func New(cfg Config, registry *bufferregistry.Registry, nodes NodeManager, opener SessionOpener, control ControlFrameSender, tokens TokenSink) *Orchestrator {
	return &Orchestrator{cfg: cfg, registry: registry, nodes: nodes, opener: opener, control: control, tokens: tokens}
}

func newQueryID() bufferregistry.QueryID {
	return bufferregistry.QueryID(uuid.NewString())
}

func newDynamicToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", connerr.Wrap(connerr.KindUnknown, err, "generating dynamic token")
	}
	return hex.EncodeToString(buf), nil
}

// splitID renders "<qid>/<table>/<random-suffix>" so multiple tables in a
// join never share a buffer even under the same qid.
func splitID(qid bufferregistry.QueryID, table string) string {
	return fmt.Sprintf("%s/%s/%s", qid, table, uuid.NewString())
}

// PlanSplits mints a fresh QueryId and DynamicToken, resolves the target
// workers, registers the query locally, launches the background producer
// executor, and returns one Split per worker.
func (o *Orchestrator) PlanSplits(ctx context.Context, endUser string, table string, plan pushdown.PlannedTable) ([]Split, error) {
	qid := newQueryID()
	token, err := newDynamicToken()
	if err != nil {
		return nil, err
	}

	workers := o.nodes.ActiveWorkers()
	if len(workers) == 0 {
		return nil, connerr.New(connerr.KindUnknown, "no active workers to plan splits on")
	}

	o.registry.RegisterQuery(qid)
	o.tokens.Set(qid, token)

	sql := o.buildExportSQL(plan, workers, qid, token)
	logutil.Infof("orchestrator: planned export for query %s: %s", qid, o.logExportSQL(plan, workers, qid))
	go o.runAndBroadcast(ctx, endUser, sql, qid, token, workers)

	splits := make([]Split, len(workers))
	for i, w := range workers {
		splits[i] = Split{ID: splitID(qid, table), QID: qid, Worker: w}
	}
	return splits, nil
}

// buildExportSQL renders the ExportTableOp wrapper: SELECT ... FROM
// ExportTableOp(ON (<planned sql>) ON (<endpoints,qid,token,compression>)
// DIMENSION). The real token must reach the DIMENSION clause verbatim: the
// producer-side operator reads it from there and presents it back to the
// bridge receiver to authenticate. Only the logged form (logExportSQL)
// substitutes logutil.DynamicTokenMask.
func (o *Orchestrator) buildExportSQL(plan pushdown.PlannedTable, workers []WorkerNode, qid bufferregistry.QueryID, token string) string {
	return o.renderExportSQL(plan, workers, qid, token)
}

// logExportSQL is what callers should pass to a log line instead of the real
// SQL: same shape, with the dynamic token masked out.
func (o *Orchestrator) logExportSQL(plan pushdown.PlannedTable, workers []WorkerNode, qid bufferregistry.QueryID) string {
	return o.renderExportSQL(plan, workers, qid, logutil.DynamicTokenMask)
}

func (o *Orchestrator) renderExportSQL(plan pushdown.PlannedTable, workers []WorkerNode, qid bufferregistry.QueryID, token string) string {
	addrs := make([]string, len(workers))
	for i, w := range workers {
		addrs[i] = w.Address
	}
	dimension := fmt.Sprintf("endpoints='%v', qid='%s', token='%s', compression='lz4'", addrs, qid, token)
	return fmt.Sprintf(
		"SELECT * FROM %s.%s(ON (%s) ON (%s) DIMENSION)",
		o.cfg.UDFDatabase, o.cfg.UDFName, plan.Render(), dimension,
	)
}

// runAndBroadcast is the per-query background task: open a session, run the
// SQL, and unconditionally broadcast JDBC_FINISHED to every target worker
// (including this one) whether the query succeeded or failed, so page
// sources never hang on a producer-side failure.
func (o *Orchestrator) runAndBroadcast(ctx context.Context, endUser, sql string, qid bufferregistry.QueryID, token string, workers []WorkerNode) {
	defer o.tokens.Clear(qid)

	execErr := o.execute(ctx, endUser, sql)
	if execErr != nil {
		logutil.Errorf("orchestrator: producer execution failed for query %s: %v", qid, execErr)
		o.registry.SetQueryError(qid, execErr)
	}

	// The broadcast must go out even when execution failed because ctx was
	// cancelled, otherwise the remaining consumers wait out their full
	// poll cycle for an EOS that never comes.
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	for _, w := range workers {
		w := w
		g.Go(func() error {
			return o.control.SendJdbcFinished(gctx, w, qid, token)
		})
	}
	if err := g.Wait(); err != nil {
		logutil.Warningf("orchestrator: broadcasting JDBC_FINISHED for query %s hit an error: %v", qid, err)
	}
}

func (o *Orchestrator) execute(ctx context.Context, endUser, sql string) error {
	session, err := o.opener.Open(ctx, endUser)
	if err != nil {
		return connerr.Wrap(connerr.KindAuthFailure, err, "opening producer session")
	}
	defer session.Close()

	if err := session.ExecContext(ctx, sql); err != nil {
		return connerr.Wrap(connerr.KindProducerExecFailure, err, "executing producer SQL")
	}
	return nil
}

// ResolveHostsToIPs resolves every worker's hostname to a literal IP
// address; the producer-side operator cannot resolve hostnames itself. Each
// resolved Address is the first IP found, on its own: no port is attached.
func ResolveHostsToIPs(workers []WorkerNode) ([]WorkerNode, error) {
	resolved := make([]WorkerNode, len(workers))
	for i, w := range workers {
		ips, err := net.LookupIP(w.Hostname)
		if err != nil {
			return nil, connerr.Wrap(connerr.KindUnknown, err, "resolving worker hostname %q", w.Hostname)
		}
		if len(ips) == 0 {
			return nil, connerr.New(connerr.KindUnknown, "no addresses found for worker hostname %q", w.Hostname)
		}
		resolved[i] = WorkerNode{Hostname: w.Hostname, Address: ips[0].String()}
	}
	return resolved, nil
}
