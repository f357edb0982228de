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

// Package pushdown translates engine-level predicates, limits, sorts and
// aggregations into producer-side SQL fragments. The engine hands a Domain
// value object per column across the boundary; anything the planner cannot
// render exactly stays with the engine as residue.
package pushdown

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/wirecodec"
)

// ValueKind tags which field of Value is meaningful.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueInt64
	ValueFloat64
	ValueBool
	ValueDate
	ValueTimestamp
)

// Value is a single typed literal the engine can hand the planner as part of
// a column Domain.
type Value struct {
	Kind ValueKind
	Str  string
	I64  int64
	F64  float64
	Bool bool
	Time time.Time
}

// Render renders v as a producer SQL literal: booleans as 1/0, dates as
// DATE '...', timestamps as TIMESTAMP '...', strings with quotes doubled.
func (v Value) Render() string {
	switch v.Kind {
	case ValueString:
		return "'" + wirecodec.EscapeStringLiteral(v.Str) + "'"
	case ValueInt64:
		return fmt.Sprintf("%d", v.I64)
	case ValueFloat64:
		return fmt.Sprintf("%g", v.F64)
	case ValueBool:
		if v.Bool {
			return "1"
		}
		return "0"
	case ValueDate:
		return wirecodec.FormatDateLiteral(v.Time)
	case ValueTimestamp:
		return wirecodec.FormatTimestampLiteral(v.Time)
	default:
		return ""
	}
}

// Range is a (possibly open-ended) bound on a column; at least one of Low,
// High must be non-nil.
type Range struct {
	Low           *Value
	LowInclusive  bool
	High          *Value
	HighInclusive bool
}

// Domain is everything the engine knows about acceptable values for one
// column: either a set of discrete Values (equality / IN-list), or a single
// Range, optionally with nulls allowed too. Supplying both Values and a
// Range on the same Domain is unsupported (the planner will decline to
// render it, leaving it as residue for the engine).
type Domain struct {
	Column      string
	Values      []Value
	Range       *Range
	NullAllowed bool
}

// renderPredicate renders one Domain's predicate fragment, or ok=false if
// the domain shape isn't one the producer dialect can express exactly, in
// which case the engine must retain the predicate itself.
func renderPredicate(d Domain) (string, bool) {
	var expr string
	switch {
	case len(d.Values) == 1 && d.Range == nil:
		expr = fmt.Sprintf("%s = %s", d.Column, d.Values[0].Render())
	case len(d.Values) > 1 && d.Range == nil:
		rendered := make([]string, len(d.Values))
		for i, v := range d.Values {
			rendered[i] = v.Render()
		}
		expr = fmt.Sprintf("%s IN (%s)", d.Column, strings.Join(rendered, ","))
	case len(d.Values) == 0 && d.Range != nil:
		r := d.Range
		switch {
		case r.Low != nil && r.High != nil:
			lowOp, highOp := ">=", "<="
			if !r.LowInclusive {
				lowOp = ">"
			}
			if !r.HighInclusive {
				highOp = "<"
			}
			expr = fmt.Sprintf("%s %s %s AND %s %s %s", d.Column, lowOp, r.Low.Render(), d.Column, highOp, r.High.Render())
		case r.Low != nil:
			op := ">="
			if !r.LowInclusive {
				op = ">"
			}
			expr = fmt.Sprintf("%s %s %s", d.Column, op, r.Low.Render())
		case r.High != nil:
			op := "<="
			if !r.HighInclusive {
				op = "<"
			}
			expr = fmt.Sprintf("%s %s %s", d.Column, op, r.High.Render())
		default:
			return "", false
		}
	default:
		return "", false
	}

	if d.NullAllowed {
		expr = fmt.Sprintf("(%s OR %s IS NULL)", expr, d.Column)
	}
	return expr, true
}

// RenderDomains renders every pushable Domain in domains, AND-joining the
// fragments, and returns the residual Domains the planner declined to
// render. Domains are sorted by column name first so the same predicate set
// always renders the same SQL.
func RenderDomains(domains []Domain) (predicate string, residual []Domain) {
	sorted := append([]Domain(nil), domains...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Column < sorted[j].Column })

	var clauses []string
	for _, d := range sorted {
		expr, ok := renderPredicate(d)
		if !ok {
			residual = append(residual, d)
			continue
		}
		clauses = append(clauses, expr)
	}
	return strings.Join(clauses, " AND "), residual
}
