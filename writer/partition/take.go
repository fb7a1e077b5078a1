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

package partition

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// TakeRecord materializes the subset of rec selected by the given row
// indices, in index order, as a new record sharing rec's schema. The caller
// owns the returned record and must Release it.
func TakeRecord(rec arrow.Record, indices []int) (arrow.Record, error) {
	schema := rec.Schema()
	cols := make([]arrow.Array, schema.NumFields())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()

	for i := 0; i < schema.NumFields(); i++ {
		bldr := array.NewBuilder(memory.DefaultAllocator, schema.Field(i).Type)
		if err := appendRows(bldr, rec.Column(i), indices); err != nil {
			bldr.Release()
			return nil, fmt.Errorf("take column %q: %w", schema.Field(i).Name, err)
		}
		cols[i] = bldr.NewArray()
		bldr.Release()
	}

	out := array.NewRecordBatch(schema, cols, int64(len(indices)))
	return out, nil
}

func appendRows(bldr array.Builder, col arrow.Array, indices []int) error {
	for _, row := range indices {
		if col.IsNull(row) {
			bldr.AppendNull()
			continue
		}
		switch b := bldr.(type) {
		case *array.BooleanBuilder:
			b.Append(col.(*array.Boolean).Value(row))
		case *array.Int32Builder:
			b.Append(col.(*array.Int32).Value(row))
		case *array.Int64Builder:
			b.Append(col.(*array.Int64).Value(row))
		case *array.Float32Builder:
			b.Append(col.(*array.Float32).Value(row))
		case *array.Float64Builder:
			b.Append(col.(*array.Float64).Value(row))
		case *array.StringBuilder:
			b.Append(col.(*array.String).Value(row))
		case *array.BinaryBuilder:
			b.Append(col.(*array.Binary).Value(row))
		case *array.TimestampBuilder:
			b.Append(col.(*array.Timestamp).Value(row))
		case *array.Date32Builder:
			b.Append(col.(*array.Date32).Value(row))
		default:
			return fmt.Errorf("unsupported builder type %T", bldr)
		}
	}
	return nil
}
