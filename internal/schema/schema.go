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

// Package schema carries the per-query column schema shared by the wire
// codec, the row decoder and the pushdown planner. LogicalType is the
// tagged-variant redesign called for in the design notes: the decoder
// dispatches on the tag instead of using per-type polymorphism.
package schema

import "fmt"

// LogicalType is one of the nine column types the bridge wire protocol knows
// how to carry.
type LogicalType string

const (
	Integer      LogicalType = "INTEGER"
	Bigint       LogicalType = "BIGINT"
	Double       LogicalType = "DOUBLE"
	Varchar      LogicalType = "VARCHAR"
	Date         LogicalType = "DATE"
	Time         LogicalType = "TIME"
	Timestamp    LogicalType = "TIMESTAMP"
	DecimalShort LogicalType = "DECIMAL_SHORT"
	DecimalLong  LogicalType = "DECIMAL_LONG"
)

// ParseLogicalType maps a schema-JSON type name to a LogicalType. Unrecognized
// names fall back to Varchar per the bridge wire protocol contract ("unknown
// types fall back to VARCHAR").
func ParseLogicalType(name string) LogicalType {
	switch LogicalType(name) {
	case Integer, Bigint, Double, Varchar, Date, Time, Timestamp, DecimalShort, DecimalLong:
		return LogicalType(name)
	default:
		return Varchar
	}
}

// Column describes one column of a query's result set.
type Column struct {
	Name LogicalColumnName
	Type LogicalType
	// Scale is meaningful for DecimalShort/DecimalLong: the number of
	// digits right of the decimal point. The wire payload carries only the
	// unscaled mantissa; Scale is caller-side knowledge. The handshake JSON
	// carries no scale, so ToColumnSchema leaves it zero.
	Scale int
	// Precision is meaningful for DecimalLong only (total digits); it does
	// not affect wire decoding (always 16 bytes) but is needed to render
	// the DECIMAL(p,s) literal shape the consumer engine expects.
	Precision int
	// Unknown is set when the schema handshake named a type this bridge
	// does not recognize. The column is still tagged Varchar (wire
	// contract: "unrecognized types fall back to VARCHAR") but the decoder
	// renders its payload as a hex string instead of treating it as UTF-8,
	// since the producer's actual encoding for that type is unknown.
	Unknown bool
}

// LogicalColumnName is a plain string alias kept distinct for readability at
// call sites that also handle SQL identifiers.
type LogicalColumnName = string

// ColumnSchema is the ordered column list for one query. Every connection
// carrying data for the same query presents the same column count and order.
type ColumnSchema struct {
	Columns []Column
}

// IndexOf returns the position of name in the schema, or -1.
func (s ColumnSchema) IndexOf(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (s ColumnSchema) String() string {
	return fmt.Sprintf("ColumnSchema(%d cols)", len(s.Columns))
}

// JSON wire shapes for the schema handshake: {"columns":[{"name":..,"type":..}]}
type WireColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type WireSchema struct {
	Columns []WireColumn `json:"columns"`
}

// ToColumnSchema converts the handshake JSON shape into a ColumnSchema.
func (w WireSchema) ToColumnSchema() ColumnSchema {
	cols := make([]Column, len(w.Columns))
	for i, c := range w.Columns {
		cols[i] = Column{Name: c.Name, Type: ParseLogicalType(c.Type), Unknown: isUnknownTypeName(c.Type)}
	}
	return ColumnSchema{Columns: cols}
}

func isUnknownTypeName(name string) bool {
	switch LogicalType(name) {
	case Integer, Bigint, Double, Varchar, Date, Time, Timestamp, DecimalShort, DecimalLong:
		return false
	default:
		return true
	}
}
