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
	"net/url"
	"strings"

	"github.com/cardinalhq/lakewriter/writer"
)

// Field binds one partition field to its source column and transform.
type Field struct {
	// SourceName is the source column name in the batch schema.
	SourceName string

	// SourceID is the Iceberg field id of the source column. When zero the
	// router resolves the column by name instead.
	SourceID int

	// Name is the partition field name used in paths and DataFile
	// partition tuples. Defaults to SourceName when empty.
	Name string

	Transform Transform
}

func (f Field) name() string {
	if f.Name != "" {
		return f.Name
	}
	return f.SourceName
}

// Spec is an immutable description of how a table is partitioned. The zero
// value is an unpartitioned spec.
type Spec struct {
	Fields []Field
}

func Unpartitioned() Spec { return Spec{} }

func (s Spec) IsUnpartitioned() bool { return len(s.Fields) == 0 }

func (s Spec) Validate() error {
	for i, f := range s.Fields {
		if f.SourceName == "" && f.SourceID == 0 {
			return &writer.ConfigError{
				Field:   fmt.Sprintf("Fields[%d]", i),
				Message: "needs a SourceName or SourceID",
			}
		}
		if f.Transform == nil {
			return &writer.ConfigError{
				Field:   fmt.Sprintf("Fields[%d].Transform", i),
				Message: "cannot be nil",
			}
		}
	}
	return nil
}

// Key is the route identity of one partition tuple. Keys with equal Path
// refer to the same logical partition.
type Key struct {
	path   string
	values writer.Partition
}

// Path is the hive-style relative directory for the partition, for example
// "region=eu/day=2026-08-25". Empty for the unpartitioned key.
func (k Key) Path() string { return k.path }

// Values is the partition tuple to attach to emitted DataFiles. Nil for the
// unpartitioned key.
func (k Key) Values() writer.Partition { return k.values }

// UnpartitionedKey is the single route key of an unpartitioned table.
var UnpartitionedKey = Key{}

func newKey(fields []Field, vals []any) Key {
	parts := make([]string, 0, len(fields))
	values := make(writer.Partition, len(fields))
	for i, f := range fields {
		values[f.name()] = vals[i]
		parts = append(parts, f.name()+"="+url.PathEscape(formatValue(vals[i])))
	}
	return Key{path: strings.Join(parts, "/"), values: values}
}

func formatValue(v any) string {
	if b, ok := v.([]byte); ok {
		return fmt.Sprintf("%x", b)
	}
	return fmt.Sprintf("%v", v)
}
