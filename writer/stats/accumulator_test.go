// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package stats

import (
	"encoding/binary"
	"strconv"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldMeta(id int) arrow.Metadata {
	return arrow.NewMetadata([]string{FieldIDKey}, []string{strconv.Itoa(id)})
}

func testSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Metadata: fieldMeta(1)},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true, Metadata: fieldMeta(2)},
	}, nil)
}

func makeBatch(t *testing.T, schema *arrow.Schema, ids []int64, names []string, nameValid []bool) arrow.Record {
	t.Helper()
	bld := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer bld.Release()
	bld.Field(0).(*array.Int64Builder).AppendValues(ids, nil)
	bld.Field(1).(*array.StringBuilder).AppendValues(names, nameValid)
	return bld.NewRecordBatch()
}

func int64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func TestAccumulator_BoundsAndNulls(t *testing.T) {
	schema := testSchema()
	rec := makeBatch(t, schema, []int64{5, 1, 3}, []string{"m", "", "a"}, []bool{true, false, true})
	defer rec.Release()

	acc := NewAccumulator()
	require.NoError(t, acc.Add(rec))

	m, err := acc.Finalize()
	require.NoError(t, err)

	assert.Equal(t, int64Bytes(1), m.LowerBounds[1])
	assert.Equal(t, int64Bytes(5), m.UpperBounds[1])
	assert.Equal(t, []byte("a"), m.LowerBounds[2])
	assert.Equal(t, []byte("m"), m.UpperBounds[2])
	assert.Equal(t, int64(0), m.NullCounts[1])
	assert.Equal(t, int64(1), m.NullCounts[2])
	assert.Positive(t, m.ColumnSizes[1])
}

func TestAccumulator_AllNullColumnHasNoBounds(t *testing.T) {
	schema := testSchema()
	rec := makeBatch(t, schema, []int64{1, 2}, []string{"", ""}, []bool{false, false})
	defer rec.Release()

	acc := NewAccumulator()
	require.NoError(t, acc.Add(rec))

	m, err := acc.Finalize()
	require.NoError(t, err)

	assert.NotContains(t, m.LowerBounds, 2)
	assert.NotContains(t, m.UpperBounds, 2)
	assert.Equal(t, int64(2), m.NullCounts[2])
}

func TestAccumulator_MergeOrderIndependent(t *testing.T) {
	schema := testSchema()
	b1 := makeBatch(t, schema, []int64{10, 20}, []string{"x", "y"}, nil)
	defer b1.Release()
	b2 := makeBatch(t, schema, []int64{-5, 7}, []string{"b", ""}, []bool{true, false})
	defer b2.Release()
	b3 := makeBatch(t, schema, []int64{3}, []string{"zz"}, nil)
	defer b3.Release()

	orders := [][]arrow.Record{
		{b1, b2, b3},
		{b3, b1, b2},
		{b2, b3, b1},
	}

	var got []ColumnMetrics
	for _, order := range orders {
		partials := make([]*Accumulator, len(order))
		for i, rec := range order {
			partials[i] = NewAccumulator()
			require.NoError(t, partials[i].Add(rec))
		}
		total := NewAccumulator()
		for _, p := range partials {
			require.NoError(t, total.Merge(p))
		}
		m, err := total.Finalize()
		require.NoError(t, err)
		got = append(got, m)
	}

	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[0], got[i], "order %d diverged", i)
	}
	assert.Equal(t, int64Bytes(-5), got[0].LowerBounds[1])
	assert.Equal(t, int64Bytes(20), got[0].UpperBounds[1])
	assert.Equal(t, []byte("b"), got[0].LowerBounds[2])
	assert.Equal(t, []byte("zz"), got[0].UpperBounds[2])
	assert.Equal(t, int64(1), got[0].NullCounts[2])
}

func TestFieldID_FallsBackToOrdinal(t *testing.T) {
	f := arrow.Field{Name: "plain", Type: arrow.PrimitiveTypes.Int64}
	assert.Equal(t, 3, FieldID(f, 2))

	tagged := arrow.Field{Name: "tagged", Type: arrow.PrimitiveTypes.Int64, Metadata: fieldMeta(42)}
	assert.Equal(t, 42, FieldID(tagged, 0))
}

func TestSerializeLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []byte
	}{
		{"bool true", true, []byte{1}},
		{"int64", int64(1), int64Bytes(1)},
		{"string", "abc", []byte("abc")},
		{"bytes", []byte{0xde, 0xad}, []byte{0xde, 0xad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SerializeLiteral(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SerializeLiteral(struct{}{})
	assert.Error(t, err)
}
