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

	"github.com/cardinalhq/lakewriter/writer"
	"github.com/cardinalhq/lakewriter/writer/stats"
)

// Router derives route keys for the rows of record batches that share one
// schema. Column positions are resolved once at construction, by field id
// when the spec provides one, by name otherwise; batches whose schema drifts
// from the resolved one are rejected.
type Router struct {
	spec    Spec
	schema  *arrow.Schema
	indices []int
}

func NewRouter(spec Spec, schema *arrow.Schema) (*Router, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	indices := make([]int, len(spec.Fields))
	for i, f := range spec.Fields {
		idx := -1
		for j, sf := range schema.Fields() {
			if f.SourceID != 0 && stats.FieldID(sf, j) == f.SourceID {
				idx = j
				break
			}
			if f.SourceID == 0 && sf.Name == f.SourceName {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: source column %q (id %d) not in schema",
				writer.ErrPartitionRoute, f.SourceName, f.SourceID)
		}
		indices[i] = idx
	}
	return &Router{spec: spec, schema: schema, indices: indices}, nil
}

// Group is the set of row indices of one batch that share a route key.
type Group struct {
	Key     Key
	Indices []int
}

// Split groups the batch's rows by route key, in order of first appearance.
// A batch whose schema differs from the one the router was built against
// fails with ErrSchemaMismatch. A null partition source value or a transform
// failure yields a route error; no rows of the batch are considered routed
// in either case.
func (r *Router) Split(rec arrow.Record) ([]Group, error) {
	if !r.schema.Equal(rec.Schema()) {
		return nil, fmt.Errorf("%w: batch schema does not match the schema the routes were resolved against",
			writer.ErrSchemaMismatch)
	}
	if r.spec.IsUnpartitioned() {
		all := make([]int, rec.NumRows())
		for i := range all {
			all[i] = i
		}
		return []Group{{Key: UnpartitionedKey, Indices: all}}, nil
	}

	byPath := make(map[string]int)
	var groups []Group
	vals := make([]any, len(r.spec.Fields))

	for row := 0; row < int(rec.NumRows()); row++ {
		for i, f := range r.spec.Fields {
			col := rec.Column(r.indices[i])
			if col.IsNull(row) {
				return nil, fmt.Errorf("%w: null value in partition source %q at row %d",
					writer.ErrPartitionRoute, f.SourceName, row)
			}
			v, err := stats.ArrayValue(col, row)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", writer.ErrPartitionRoute, err)
			}
			tv, err := f.Transform.Apply(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", writer.ErrPartitionRoute, err)
			}
			vals[i] = tv
		}

		key := newKey(r.spec.Fields, vals)
		gi, ok := byPath[key.Path()]
		if !ok {
			gi = len(groups)
			byPath[key.Path()] = gi
			groups = append(groups, Group{Key: key})
		}
		groups[gi].Indices = append(groups[gi].Indices, row)
	}
	return groups, nil
}
