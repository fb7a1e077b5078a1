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
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// SerializeLiteral encodes a scalar column value into the single-value binary
// representation used for data file bounds: numeric types little-endian,
// strings and byte slices verbatim, booleans as one byte.
func SerializeLiteral(v any) ([]byte, error) {
	switch val := v.(type) {
	case bool:
		if val {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case int32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(val))
		return b, nil
	case int64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(val))
		return b, nil
	case float32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(val))
		return b, nil
	case float64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(val))
		return b, nil
	case string:
		return []byte(val), nil
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported literal type %T", v)
	}
}

// compareLiterals orders two scalars of the same dynamic type by the
// column's natural total order.
func compareLiterals(a, b any) (int, error) {
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		switch {
		case av == bv:
			return 0, nil
		case !av:
			return -1, nil
		default:
			return 1, nil
		}
	case int32:
		bv, ok := b.(int32)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		return cmpOrdered(av, bv), nil
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		return cmpOrdered(av, bv), nil
	case float32:
		bv, ok := b.(float32)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		return cmpOrdered(av, bv), nil
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		return cmpOrdered(av, bv), nil
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		return cmpOrdered(av, bv), nil
	case []byte:
		bv, ok := b.([]byte)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		return bytes.Compare(av, bv), nil
	default:
		return 0, fmt.Errorf("unsupported literal type %T", a)
	}
}

func typeMismatch(a, b any) error {
	return fmt.Errorf("cannot compare %T with %T", a, b)
}

func cmpOrdered[T int32 | int64 | float32 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
