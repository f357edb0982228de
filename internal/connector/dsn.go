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
	"database/sql/driver"

	"github.com/go-sql-driver/mysql"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/connerr"
)

// NewDSNConnector builds a driver.Connector from a DSN, the shape a real
// producer driver registration would take (the actual Teradata JDBC/ODBC
// driver is license-gated and ships separately). It reuses
// go-sql-driver/mysql's Connector, whose DSN/TLS/auth plumbing is close
// enough to the producer's own connection-string shape to stand in for
// tests and local development against a MySQL-compatible endpoint; a real
// deployment supplies its own driver.Connector built the same way.
func NewDSNConnector(dsn string) (driver.Connector, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, connerr.Wrap(connerr.KindAuthFailure, err, "parsing producer DSN")
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, connerr.Wrap(connerr.KindAuthFailure, err, "building producer connector")
	}
	return connector, nil
}
