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

package pushdown

import (
	"fmt"
	"strings"
)

// SortItem is one ORDER BY entry.
type SortItem struct {
	Column string
	Desc   bool
}

// AggregateFunc enumerates the aggregate functions that can be pushed to
// the producer (non-DISTINCT forms only).
type AggregateFunc string

const (
	AggCount AggregateFunc = "COUNT"
	AggSum   AggregateFunc = "SUM"
	AggMin   AggregateFunc = "MIN"
	AggMax   AggregateFunc = "MAX"
	AggAvg   AggregateFunc = "AVG"
)

// AggregateExpr is one aggregate the engine wants pushed.
type AggregateExpr struct {
	Func     AggregateFunc
	Column   string
	Alias    string
	Distinct bool
}

// queryBuilder accumulates the pieces of a producer SELECT; callers call
// the set* methods, then String() renders once. The order of the calls is
// free except that setLimit reads the ORDER BY items already set, so it must
// follow setOrderBy.
type queryBuilder struct {
	schema, table string

	projection []string // explicit column list; empty means "*"
	groupBy    []string
	aggregates []AggregateExpr

	predicate string

	orderBy []SortItem
	limit   int
	sample  bool
	hasTop  bool
}

func newQueryBuilder(schema, table string) *queryBuilder {
	return &queryBuilder{schema: schema, table: table}
}

func (qb *queryBuilder) setProjection(cols []string) {
	qb.projection = append([]string(nil), cols...)
}

func (qb *queryBuilder) setPredicate(p string) { qb.predicate = p }

func (qb *queryBuilder) setGroupBy(cols []string) {
	qb.groupBy = append([]string(nil), cols...)
}

func (qb *queryBuilder) setAggregates(aggs []AggregateExpr) {
	qb.aggregates = append([]AggregateExpr(nil), aggs...)
}

func (qb *queryBuilder) setOrderBy(items []SortItem) {
	qb.orderBy = append([]SortItem(nil), items...)
}

// setLimit picks the producer's limit form: LIMIT with no ORDER BY becomes
// SAMPLE N (random rows); LIMIT with ORDER BY becomes TOP N.
func (qb *queryBuilder) setLimit(n int) {
	qb.limit = n
	qb.hasTop = len(qb.orderBy) > 0
	qb.sample = len(qb.orderBy) == 0
}

func (qb *queryBuilder) projectionSQL() string {
	if len(qb.aggregates) > 0 {
		parts := append([]string(nil), qb.groupBy...)
		for _, a := range qb.aggregates {
			parts = append(parts, fmt.Sprintf("%s(%s) AS %s", a.Func, a.Column, a.Alias))
		}
		return strings.Join(parts, ", ")
	}
	if len(qb.projection) == 0 {
		return "*"
	}
	return strings.Join(qb.projection, ", ")
}

func (qb *queryBuilder) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if qb.limit > 0 && qb.hasTop {
		fmt.Fprintf(&b, "TOP %d ", qb.limit)
	}
	b.WriteString(qb.projectionSQL())
	fmt.Fprintf(&b, " FROM %s.%s", qb.schema, qb.table)
	if qb.predicate != "" {
		fmt.Fprintf(&b, " WHERE %s", qb.predicate)
	}
	if len(qb.groupBy) > 0 {
		fmt.Fprintf(&b, " GROUP BY %s", strings.Join(qb.groupBy, ", "))
	}
	if len(qb.orderBy) > 0 {
		items := make([]string, len(qb.orderBy))
		for i, s := range qb.orderBy {
			if s.Desc {
				items[i] = s.Column + " DESC"
			} else {
				items[i] = s.Column
			}
		}
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(items, ", "))
	}
	// SAMPLE is a query-level clause in the producer dialect: it follows
	// WHERE/GROUP BY rather than the table reference.
	if qb.limit > 0 && qb.sample {
		fmt.Fprintf(&b, " SAMPLE %d", qb.limit)
	}
	return b.String()
}
