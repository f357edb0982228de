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

// Package testdriver is a minimal fake database/sql driver.Connector/Conn
// standing in for the real (license-gated) Teradata JDBC/ODBC driver in
// tests, so internal/connector can be exercised without a live producer
// database.
package testdriver

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
)

// errStatementRejected is what a fake connection returns for any statement
// matching Connector.FailOnSubstr. Deliberately not driver.ErrBadConn, which
// database/sql treats as "retry on a fresh connection" rather than surfacing
// to the caller.
var errStatementRejected = errors.New("testdriver: statement rejected")

// Connector is a fake driver.Connector. Executed receives every statement
// executed or queried through connections it opens, letting tests assert on
// the exact SQL the connector issues (e.g. the QUERY_BAND SET statement).
type Connector struct {
	mu           sync.Mutex
	Executed     []string
	FailOnSubstr string   // any statement whose query contains this substring returns an error
	Schemas      []string // rows served for any single-column query
}

func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	return &fakeConn{c: c}, nil
}

func (c *Connector) Driver() driver.Driver { return fakeDriver{} }

func (c *Connector) record(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Executed = append(c.Executed, query)
}

// ExecutedStatements returns a snapshot of every statement run so far.
func (c *Connector) ExecutedStatements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Executed...)
}

type fakeDriver struct{}

func (fakeDriver) Open(name string) (driver.Conn, error) { return &fakeConn{}, nil }

type fakeConn struct {
	c *Connector
}

func (f *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{c: f.c, query: query}, nil
}
func (f *fakeConn) Close() error              { return nil }
func (f *fakeConn) Begin() (driver.Tx, error) { return fakeTx{}, nil }

func (f *fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if f.c != nil {
		if f.c.FailOnSubstr != "" && strings.Contains(query, f.c.FailOnSubstr) {
			f.c.record(query)
			return nil, errStatementRejected
		}
		f.c.record(query)
	}
	return fakeResult{}, nil
}

func (f *fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if f.c != nil {
		if f.c.FailOnSubstr != "" && strings.Contains(query, f.c.FailOnSubstr) {
			f.c.record(query)
			return nil, errStatementRejected
		}
		f.c.record(query)
		return &stringRows{values: f.c.Schemas}, nil
	}
	return &fakeRows{}, nil
}

type stringRows struct {
	values []string
	pos    int
}

func (r *stringRows) Columns() []string { return []string{"name"} }
func (r *stringRows) Close() error      { return nil }
func (r *stringRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.values) {
		return io.EOF
	}
	dest[0] = r.values[r.pos]
	r.pos++
	return nil
}

type fakeStmt struct {
	c     *Connector
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }
func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	if s.c != nil {
		s.c.record(s.query)
	}
	return fakeResult{}, nil
}
func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	return &fakeRows{}, nil
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 0, nil }

type fakeRows struct{ done bool }

func (r *fakeRows) Columns() []string { return nil }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	return io.EOF
}

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }
