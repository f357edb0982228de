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

// PlannedTable is the immutable handle the engine asks the PushdownPlanner
// to produce. Applying a pushdown never mutates a handle; each With* method
// returns a replacement.
type PlannedTable struct {
	Schema string
	Table  string

	ProjectedColumns []string // nil/empty means "all columns"
	Domains          []Domain
	GroupBy          []string
	Aggregates       []AggregateExpr
	OrderBy          []SortItem
	Limit            int // 0 means unset
}

// NewPlannedTable is the entry point: engine asks for a planned table handle
// with no pushdown applied yet.
func NewPlannedTable(schema, table string) PlannedTable {
	return PlannedTable{Schema: schema, Table: table}
}

// WithProjection returns a PlannedTable projecting only cols. cols must be
// a subset of the table's columns; the planner trusts the caller (the
// engine) to have already enforced that.
func (p PlannedTable) WithProjection(cols []string) PlannedTable {
	next := p
	next.ProjectedColumns = append([]string(nil), cols...)
	return next
}

// WithPredicate attempts to push every Domain in domains, returning the
// updated PlannedTable plus whichever Domains could not be rendered exactly
// (residue the engine must still apply itself).
func (p PlannedTable) WithPredicate(domains []Domain) (PlannedTable, []Domain) {
	_, residual := RenderDomains(domains)
	pushed := make([]Domain, 0, len(domains))
	residualSet := make(map[string]bool, len(residual))
	for _, d := range residual {
		residualSet[d.Column] = true
	}
	for _, d := range domains {
		if !residualSet[d.Column] {
			pushed = append(pushed, d)
		}
	}
	next := p
	next.Domains = append(append([]Domain(nil), p.Domains...), pushed...)
	return next, residual
}

// WithLimit applies LIMIT N, and order (if any). LIMIT with ORDER BY
// renders as TOP N; LIMIT alone renders as SAMPLE N.
func (p PlannedTable) WithLimit(n int, order []SortItem) PlannedTable {
	next := p
	next.Limit = n
	next.OrderBy = append([]SortItem(nil), order...)
	return next
}

// WithAggregation pushes every non-DISTINCT aggregate in agg, returning the
// updated PlannedTable plus the DISTINCT aggregates left as residue;
// DISTINCT forms are never pushed.
func (p PlannedTable) WithAggregation(groupBy []string, agg []AggregateExpr) (PlannedTable, []AggregateExpr) {
	var pushed, residual []AggregateExpr
	for _, a := range agg {
		if a.Distinct {
			residual = append(residual, a)
			continue
		}
		pushed = append(pushed, a)
	}
	next := p
	next.GroupBy = append([]string(nil), groupBy...)
	next.Aggregates = append(append([]AggregateExpr(nil), p.Aggregates...), pushed...)
	return next, residual
}

// Render serializes the PlannedTable into producer SQL:
// SELECT [TOP N] <projection> FROM <schema>.<table> [WHERE <predicate>]
// [GROUP BY <cols>] [ORDER BY <sort>] [SAMPLE N].
func (p PlannedTable) Render() string {
	qb := newQueryBuilder(p.Schema, p.Table)
	qb.setProjection(p.ProjectedColumns)
	qb.setGroupBy(p.GroupBy)
	qb.setAggregates(p.Aggregates)
	predicate, _ := RenderDomains(p.Domains)
	qb.setPredicate(predicate)
	qb.setOrderBy(p.OrderBy)
	if p.Limit > 0 {
		qb.setLimit(p.Limit)
	}
	return qb.String()
}

// PushdownPlanner is the stateless entry point the engine calls into; all
// the interesting state lives on PlannedTable, which PushdownPlanner simply
// builds and rewrites.
type PushdownPlanner struct{}

// NewPlanner constructs a PushdownPlanner. It carries no state: every
// method is a pure function of its PlannedTable argument.
func NewPlanner() *PushdownPlanner { return &PushdownPlanner{} }

// Plan returns a fresh, unpushed PlannedTable for schema.table.
func (p *PushdownPlanner) Plan(schema, table string) PlannedTable {
	return NewPlannedTable(schema, table)
}
