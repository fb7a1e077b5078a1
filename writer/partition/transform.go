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

// Package partition derives route keys from record batches: a partition spec
// names source columns and transforms, and a Router groups each batch's rows
// by their transformed partition values.
package partition

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/cardinalhq/lakewriter/writer/stats"
)

// Transform maps a source column value to a partition value. Apply fails
// when the input is outside the transform's domain; the router surfaces
// that as a route error.
type Transform interface {
	Apply(v any) (any, error)
	Name() string
}

// Identity passes the source value through unchanged.
type Identity struct{}

func (Identity) Name() string { return "identity" }

func (Identity) Apply(v any) (any, error) {
	switch v.(type) {
	case bool, int32, int64, float32, float64, string, []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("identity transform: unsupported type %T", v)
	}
}

// Bucket hashes the serialized source value into one of N buckets.
type Bucket struct {
	N int
}

func (b Bucket) Name() string { return fmt.Sprintf("bucket[%d]", b.N) }

func (b Bucket) Apply(v any) (any, error) {
	if b.N <= 0 {
		return nil, fmt.Errorf("bucket transform: bucket count %d out of domain", b.N)
	}
	raw, err := stats.SerializeLiteral(v)
	if err != nil {
		return nil, fmt.Errorf("bucket transform: %w", err)
	}
	return int32(xxhash.Sum64(raw) % uint64(b.N)), nil
}

// Truncate shortens strings to Width runes and floors integers to the
// nearest multiple of Width.
type Truncate struct {
	Width int
}

func (t Truncate) Name() string { return fmt.Sprintf("truncate[%d]", t.Width) }

func (t Truncate) Apply(v any) (any, error) {
	if t.Width <= 0 {
		return nil, fmt.Errorf("truncate transform: width %d out of domain", t.Width)
	}
	switch val := v.(type) {
	case string:
		runes := []rune(val)
		if len(runes) <= t.Width {
			return val, nil
		}
		return string(runes[:t.Width]), nil
	case int32:
		w := int32(t.Width)
		return val - ((val%w)+w)%w, nil
	case int64:
		w := int64(t.Width)
		return val - ((val%w)+w)%w, nil
	default:
		return nil, fmt.Errorf("truncate transform: unsupported type %T", v)
	}
}
