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

// Package connector opens authenticated sessions to the producer database
// and binds the end user's identity onto them via a query band. The real
// Teradata JDBC/ODBC driver is an external, license-gated collaborator, so
// everything here is built against database/sql's driver.Connector
// interface: any registered driver works.
package connector

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/connerr"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/logutil"
)

// Config carries the service credentials and connection shape; the end
// user identity is supplied per call, not stored here.
//
// There is deliberately no enforce-proxy-authentication toggle: OpenForUser
// has no service-identity fallback to relax into, so band-set failure
// always aborts the ingestion.
type Config struct {
	Connector driver.Connector
	// DefaultSchemas are always included in ListSchemas results, even when
	// the metadata lookup itself fails.
	DefaultSchemas []string
}

// Factory is the ConnectionFactory.
type Factory struct {
	cfg Config
	db  *sql.DB
}

// New opens the underlying *sql.DB against cfg.Connector. The connector is
// expected to already encode the service credentials.
func New(cfg Config) *Factory {
	return &Factory{cfg: cfg, db: sql.OpenDB(cfg.Connector)}
}

// Session is an authenticated, identity-bound producer connection.
type Session struct {
	conn *sql.Conn
}

// ExecContext runs one statement on the bound session.
func (s *Session) ExecContext(ctx context.Context, query string) error {
	_, err := s.conn.ExecContext(ctx, query)
	return err
}

// QueryStrings runs a query whose result is a single string column and
// returns the values.
func (s *Session) QueryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close releases the underlying connection back to the pool.
func (s *Session) Close() error { return s.conn.Close() }

// OpenForUser opens a session and immediately executes `SET QUERY_BAND =
// 'PROXYUSER=<end_user>;' FOR SESSION;` to bind endUser's identity. If the
// band command fails the connection is closed immediately and OpenForUser
// returns an AuthFailure; there is no fallback to service identity for data
// queries.
func (f *Factory) OpenForUser(ctx context.Context, endUser string) (*Session, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, connerr.Wrap(connerr.KindAuthFailure, err, "opening producer connection")
	}

	band := fmt.Sprintf("SET QUERY_BAND = 'PROXYUSER=%s;' FOR SESSION;", endUser)
	if _, err := conn.ExecContext(ctx, band); err != nil {
		conn.Close()
		return nil, connerr.Wrap(connerr.KindAuthFailure, err, "binding query band for user %q", endUser)
	}
	return &Session{conn: conn}, nil
}

// OpenMetadata opens a session WITHOUT binding a query band, for metadata
// operations (listing schemas/tables) that run under the service identity
// directly.
func (f *Factory) OpenMetadata(ctx context.Context) (*Session, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, connerr.Wrap(connerr.KindAuthFailure, err, "opening metadata connection")
	}
	return &Session{conn: conn}, nil
}

// ListSchemas enumerates the producer's databases under the service
// identity, merged with the configured default schemas. The defaults are
// exposed even when the metadata lookup fails, so a degraded catalog still
// lets queries against known schemas plan.
func (f *Factory) ListSchemas(ctx context.Context) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, s := range f.cfg.DefaultSchemas {
		add(s)
	}

	sess, err := f.OpenMetadata(ctx)
	if err != nil {
		logutil.Warningf("connector: metadata session unavailable, exposing default schemas only: %v", err)
		return out
	}
	defer sess.Close()
	names, err := sess.QueryStrings(ctx, "SELECT DatabaseName FROM DBC.DatabasesV ORDER BY DatabaseName")
	if err != nil {
		logutil.Warningf("connector: schema listing failed, exposing default schemas only: %v", err)
		return out
	}
	for _, n := range names {
		add(n)
	}
	return out
}

// Close closes the underlying connection pool.
func (f *Factory) Close() error {
	logutil.Infof("connector: closing producer connection pool")
	return f.db.Close()
}
