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

// Package stats maintains running per-column statistics for data files:
// exact lower/upper bounds, null counts and byte sizes, keyed by Iceberg
// field id. Accumulation is O(batch) per Add and per-batch partials combine
// associatively and commutatively, so aggregating batches in any order
// yields the same final metrics.
package stats

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// FieldIDKey is the Arrow field metadata key carrying the Iceberg field id.
// It matches the key pqarrow persists into parquet files.
const FieldIDKey = "PARQUET:field_id"

// FieldID resolves the Iceberg field id of an Arrow field, falling back to
// the 1-based ordinal when the metadata key is absent.
func FieldID(f arrow.Field, ordinal int) int {
	if i := f.Metadata.FindKey(FieldIDKey); i >= 0 {
		if id, err := strconv.Atoi(f.Metadata.Values()[i]); err == nil {
			return id
		}
	}
	return ordinal + 1
}

// ColumnMetrics is the finalized statistics for one file, keyed by field id.
// Columns whose values were all null have no bounds entry.
type ColumnMetrics struct {
	LowerBounds map[int][]byte
	UpperBounds map[int][]byte
	NullCounts  map[int]int64
	ColumnSizes map[int]int64
}

type colAgg struct {
	min   any // nil until a non-null value is seen
	max   any
	nulls int64
	size  int64
}

// Accumulator collects per-column statistics across the batches routed to a
// single file. Not safe for concurrent use; each writer owns its own.
type Accumulator struct {
	cols map[int]*colAgg
}

func NewAccumulator() *Accumulator {
	return &Accumulator{cols: make(map[int]*colAgg)}
}

// Add folds one record batch into the running statistics.
func (a *Accumulator) Add(rec arrow.Record) error {
	schema := rec.Schema()
	for i, field := range schema.Fields() {
		id := FieldID(field, i)
		agg := a.cols[id]
		if agg == nil {
			agg = &colAgg{}
			a.cols[id] = agg
		}

		col := rec.Column(i)
		agg.nulls += int64(col.NullN())
		agg.size += bufferBytes(col)

		lo, hi, err := columnBounds(col)
		if err != nil {
			return fmt.Errorf("column %q: %w", field.Name, err)
		}
		if err := agg.widen(lo, hi); err != nil {
			return fmt.Errorf("column %q: %w", field.Name, err)
		}
	}
	return nil
}

// Merge folds another accumulator into this one. Merging is associative and
// commutative: absent bounds never widen the result.
func (a *Accumulator) Merge(other *Accumulator) error {
	for id, o := range other.cols {
		agg := a.cols[id]
		if agg == nil {
			agg = &colAgg{}
			a.cols[id] = agg
		}
		agg.nulls += o.nulls
		agg.size += o.size
		if err := agg.widen(o.min, o.max); err != nil {
			return fmt.Errorf("field %d: %w", id, err)
		}
	}
	return nil
}

// Finalize serializes the accumulated statistics. The accumulator remains
// usable afterwards; callers finalize once per file.
func (a *Accumulator) Finalize() (ColumnMetrics, error) {
	m := ColumnMetrics{
		LowerBounds: make(map[int][]byte),
		UpperBounds: make(map[int][]byte),
		NullCounts:  make(map[int]int64),
		ColumnSizes: make(map[int]int64),
	}
	for id, agg := range a.cols {
		m.NullCounts[id] = agg.nulls
		m.ColumnSizes[id] = agg.size
		if agg.min == nil {
			continue
		}
		lo, err := SerializeLiteral(agg.min)
		if err != nil {
			return ColumnMetrics{}, fmt.Errorf("field %d lower bound: %w", id, err)
		}
		hi, err := SerializeLiteral(agg.max)
		if err != nil {
			return ColumnMetrics{}, fmt.Errorf("field %d upper bound: %w", id, err)
		}
		m.LowerBounds[id] = lo
		m.UpperBounds[id] = hi
	}
	return m, nil
}

func (g *colAgg) widen(lo, hi any) error {
	if lo == nil {
		return nil
	}
	if g.min == nil {
		g.min, g.max = lo, hi
		return nil
	}
	if c, err := compareLiterals(lo, g.min); err != nil {
		return err
	} else if c < 0 {
		g.min = lo
	}
	if c, err := compareLiterals(hi, g.max); err != nil {
		return err
	} else if c > 0 {
		g.max = hi
	}
	return nil
}

// columnBounds scans one array and returns its min and max non-null values,
// or nil when every entry is null.
func columnBounds(col arrow.Array) (any, any, error) {
	var lo, hi any
	update := func(v any) error {
		if lo == nil {
			lo, hi = v, v
			return nil
		}
		if c, err := compareLiterals(v, lo); err != nil {
			return err
		} else if c < 0 {
			lo = v
		}
		if c, err := compareLiterals(v, hi); err != nil {
			return err
		} else if c > 0 {
			hi = v
		}
		return nil
	}

	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		v, err := ArrayValue(col, i)
		if err != nil {
			return nil, nil, err
		}
		if err := update(v); err != nil {
			return nil, nil, err
		}
	}
	return lo, hi, nil
}

// ArrayValue extracts the Go scalar at row i. Timestamps and dates are
// returned as their underlying integer representation so they order and
// serialize like the numeric types.
func ArrayValue(col arrow.Array, i int) (any, error) {
	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(i), nil
	case *array.Int32:
		return arr.Value(i), nil
	case *array.Int64:
		return arr.Value(i), nil
	case *array.Float32:
		return arr.Value(i), nil
	case *array.Float64:
		return arr.Value(i), nil
	case *array.String:
		return arr.Value(i), nil
	case *array.LargeString:
		return arr.Value(i), nil
	case *array.Binary:
		return arr.Value(i), nil
	case *array.Timestamp:
		return int64(arr.Value(i)), nil
	case *array.Date32:
		return int32(arr.Value(i)), nil
	default:
		return nil, fmt.Errorf("unsupported array type %s", col.DataType())
	}
}

// bufferBytes sums the sizes of the array's physical buffers, a best-effort
// in-memory footprint for the column-size metric.
func bufferBytes(col arrow.Array) int64 {
	var n int64
	for _, b := range col.Data().Buffers() {
		if b != nil {
			n += int64(b.Len())
		}
	}
	return n
}
