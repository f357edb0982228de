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
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualityPredicate(t *testing.T) {
	d := Domain{Column: "status", Values: []Value{{Kind: ValueString, Str: "O'Brien"}}}
	expr, ok := renderPredicate(d)
	require.True(t, ok)
	assert.Equal(t, "status = 'O''Brien'", expr)
}

func TestInListPredicate(t *testing.T) {
	d := Domain{Column: "n", Values: []Value{{Kind: ValueInt64, I64: 1}, {Kind: ValueInt64, I64: 2}, {Kind: ValueInt64, I64: 3}}}
	expr, ok := renderPredicate(d)
	require.True(t, ok)
	assert.Equal(t, "n IN (1,2,3)", expr)
}

func TestInclusiveRangePredicate(t *testing.T) {
	lo, hi := Value{Kind: ValueInt64, I64: 10}, Value{Kind: ValueInt64, I64: 20}
	d := Domain{Column: "n", Range: &Range{Low: &lo, LowInclusive: true, High: &hi, HighInclusive: true}}
	expr, ok := renderPredicate(d)
	require.True(t, ok)
	assert.Equal(t, "n >= 10 AND n <= 20", expr)
}

func TestExclusiveRangePredicate(t *testing.T) {
	lo, hi := Value{Kind: ValueInt64, I64: 10}, Value{Kind: ValueInt64, I64: 20}
	d := Domain{Column: "n", Range: &Range{Low: &lo, LowInclusive: false, High: &hi, HighInclusive: false}}
	expr, ok := renderPredicate(d)
	require.True(t, ok)
	assert.Equal(t, "n > 10 AND n < 20", expr)
}

func TestNullAllowedWrapsPredicate(t *testing.T) {
	d := Domain{Column: "n", Values: []Value{{Kind: ValueInt64, I64: 5}}, NullAllowed: true}
	expr, ok := renderPredicate(d)
	require.True(t, ok)
	assert.Equal(t, "(n = 5 OR n IS NULL)", expr)
}

func TestUnsupportedDomainIsResidual(t *testing.T) {
	d := Domain{Column: "n"} // neither Values nor Range set
	_, ok := renderPredicate(d)
	assert.False(t, ok)
}

func TestDateAndTimestampLiterals(t *testing.T) {
	date := Value{Kind: ValueDate, Time: time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)}
	ts := Value{Kind: ValueTimestamp, Time: time.Date(2026, 1, 2, 3, 4, 5, 6000, time.UTC)}
	assert.Equal(t, "DATE '2099-12-31'", date.Render())
	assert.Equal(t, "TIMESTAMP '2026-01-02 03:04:05.000006'", ts.Render())
}

func TestTopNPushdown(t *testing.T) {
	planner := NewPlanner()
	pt := planner.Plan("db1", "t")
	pt = pt.WithProjection([]string{"test_id"})
	lo := Value{Kind: ValueInt64, I64: 200}
	pt, residual := pt.WithPredicate([]Domain{{Column: "filter_int", Range: &Range{Low: &lo, LowInclusive: false}}})
	require.Empty(t, residual)
	pt = pt.WithLimit(2, []SortItem{{Column: "test_id"}})

	sql := pt.Render()
	assert.Contains(t, sql, "TOP 2")
	assert.Contains(t, sql, "ORDER BY test_id")
	assert.Contains(t, sql, "filter_int > 200")
}

func TestAggregationPushdown(t *testing.T) {
	planner := NewPlanner()
	pt := planner.Plan("db1", "t")
	pt, residual := pt.WithAggregation(nil, []AggregateExpr{{Func: AggSum, Column: "filter_int", Alias: "sum_filter_int"}})
	require.Empty(t, residual)

	sql := pt.Render()
	assert.Contains(t, sql, "SUM(filter_int) AS sum_filter_int")
}

func TestDistinctAggregateNotPushed(t *testing.T) {
	planner := NewPlanner()
	pt := planner.Plan("db1", "t")
	pt, residual := pt.WithAggregation([]string{"grp"}, []AggregateExpr{
		{Func: AggCount, Column: "n", Alias: "cnt"},
		{Func: AggCount, Column: "n", Alias: "cnt_distinct", Distinct: true},
	})
	require.Len(t, residual, 1)
	assert.True(t, residual[0].Distinct)

	sql := pt.Render()
	assert.Contains(t, sql, "COUNT(n) AS cnt")
	assert.NotContains(t, sql, "cnt_distinct")
}

func TestPlainLimitWithoutOrderByRendersSample(t *testing.T) {
	planner := NewPlanner()
	pt := planner.Plan("db1", "t").WithLimit(5, nil)
	sql := pt.Render()
	assert.Contains(t, sql, "SAMPLE 5")
	assert.NotContains(t, sql, "TOP 5")
}

func TestSampleFollowsWhereClause(t *testing.T) {
	planner := NewPlanner()
	pt := planner.Plan("db1", "t")
	pt, _ = pt.WithPredicate([]Domain{{Column: "n", Values: []Value{{Kind: ValueInt64, I64: 7}}}})
	pt = pt.WithLimit(3, nil)
	assert.Equal(t, "SELECT * FROM db1.t WHERE n = 7 SAMPLE 3", pt.Render())
}

func TestAwaitDynamicFiltersDelivered(t *testing.T) {
	ch := make(chan []Domain, 1)
	ch <- []Domain{{Column: "k", Values: []Value{{Kind: ValueInt64, I64: 9}}}}
	got := AwaitDynamicFilters(context.Background(), time.Second, ch)
	require.Len(t, got, 1)
	assert.Equal(t, "k", got[0].Column)
}

func TestAwaitDynamicFiltersTimeoutIsNonFatal(t *testing.T) {
	ch := make(chan []Domain)
	got := AwaitDynamicFilters(context.Background(), 20*time.Millisecond, ch)
	assert.Nil(t, got)
}

func TestUnrenderableDomainLeftAsResidue(t *testing.T) {
	planner := NewPlanner()
	pt := planner.Plan("db1", "t")
	pt, residual := pt.WithPredicate([]Domain{
		{Column: "a", Values: []Value{{Kind: ValueInt64, I64: 1}}},
		{Column: "b"}, // unsupported shape
	})
	require.Len(t, residual, 1)
	assert.Equal(t, "b", residual[0].Column)

	sql := pt.Render()
	assert.True(t, strings.Contains(sql, "a = 1"))
	assert.Equal(t, "SELECT * FROM db1.t WHERE a = 1", sql)
}
