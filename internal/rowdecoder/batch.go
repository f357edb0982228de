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

// Package rowdecoder turns a batch payload plus its ColumnSchema into a
// columnar Batch, dispatching on the schema.LogicalType tag instead of
// per-type polymorphism.
package rowdecoder

import (
	"sync"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/schema"
)

// Column is one column's worth of decoded values. The typed slice selected
// by Type holds the values; the other typed slices are not meaningful (on a
// batch reused from the pool they may still hold an earlier use's data).
// Nulls carries the out-of-band null bitmap while the corresponding slot in
// the typed slice holds the type's zero value.
type Column struct {
	Name   string
	Type   schema.LogicalType
	Nulls  []bool
	Int32s []int32   // INTEGER
	Int64s []int64   // BIGINT, DATE (epoch days), TIME (picos), TIMESTAMP (micros), DECIMAL_SHORT (unscaled)
	Floats []float64 // DOUBLE
	Strs   []string  // VARCHAR/CHAR, and unknown-type hex rendering
	Dec128 [][16]byte
}

// Batch is a columnar group of rows decoded from a single frame.
type Batch struct {
	RowCount int
	Columns  []Column
}

var batchPool = sync.Pool{New: func() any { return &Batch{} }}

// AcquireBatch returns a Batch from the shared pool, shaped for the given
// schema and row count.
func AcquireBatch(sc schema.ColumnSchema, rowCount int) *Batch {
	b, _ := batchPool.Get().(*Batch)
	if cap(b.Columns) < len(sc.Columns) {
		b.Columns = make([]Column, len(sc.Columns))
	} else {
		b.Columns = b.Columns[:len(sc.Columns)]
	}
	for i, c := range sc.Columns {
		col := &b.Columns[i]
		col.Name = c.Name
		col.Type = c.Type
		col.Nulls = growBool(col.Nulls, rowCount)
		switch {
		case c.Type == schema.Integer:
			col.Int32s = growI32(col.Int32s, rowCount)
		case c.Type == schema.Bigint || c.Type == schema.Date || c.Type == schema.Time ||
			c.Type == schema.Timestamp || c.Type == schema.DecimalShort:
			col.Int64s = growI64(col.Int64s, rowCount)
		case c.Type == schema.Double:
			col.Floats = growF64(col.Floats, rowCount)
		case c.Type == schema.Varchar:
			col.Strs = growStr(col.Strs, rowCount)
		case c.Type == schema.DecimalLong:
			col.Dec128 = growDec(col.Dec128, rowCount)
		}
	}
	b.RowCount = rowCount
	return b
}

// Release returns the batch's backing arrays to the pool. The caller must
// not touch the batch afterwards. A connection that pushes into a buffer
// deregistered out from under it releases the batch itself through this.
func (b *Batch) Release() {
	b.RowCount = 0
	batchPool.Put(b)
}

func growBool(s []bool, n int) []bool {
	if cap(s) < n {
		return make([]bool, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = false
	}
	return s
}

func growI32(s []int32, n int) []int32 {
	if cap(s) < n {
		return make([]int32, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}

func growI64(s []int64, n int) []int64 {
	if cap(s) < n {
		return make([]int64, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}

func growF64(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}

func growStr(s []string, n int) []string {
	if cap(s) < n {
		return make([]string, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = ""
	}
	return s
}

func growDec(s [][16]byte, n int) [][16]byte {
	if cap(s) < n {
		return make([][16]byte, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = [16]byte{}
	}
	return s
}
