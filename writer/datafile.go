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

package writer

// FileFormat identifies the physical encoding of a data file.
type FileFormat string

const (
	FormatParquet FileFormat = "parquet"
	FormatAvro    FileFormat = "avro"
	FormatORC     FileFormat = "orc"
)

// Content distinguishes what a file contributes to the table.
type Content int

const (
	ContentData Content = iota
	ContentPositionDeletes
	ContentEqualityDeletes
)

func (c Content) String() string {
	switch c {
	case ContentData:
		return "data"
	case ContentPositionDeletes:
		return "position-deletes"
	case ContentEqualityDeletes:
		return "equality-deletes"
	default:
		return "unknown"
	}
}

// Partition is one value per partition field, keyed by field name. A nil map
// means the file belongs to an unpartitioned table.
type Partition map[string]any

// DataFile describes one committed physical file from the table's
// perspective. It is constructed only at writer close time and is immutable
// thereafter; the caller hands it to the transaction-commit step.
//
// All column-level maps are keyed by Iceberg field id, not column position,
// so statistics stay correct across schema evolution. Bounds and null counts
// reflect exactly the rows persisted in the file.
type DataFile struct {
	Path        string
	Format      FileFormat
	Content     Content
	SizeBytes   int64
	RecordCount int64

	Partition Partition

	// LowerBounds and UpperBounds hold the serialized minimum and maximum
	// non-null value per column. Columns whose values were all null have
	// no entry.
	LowerBounds map[int][]byte
	UpperBounds map[int][]byte

	// NullCounts is the exact number of null entries per column.
	NullCounts map[int]int64

	// ColumnSizes is the in-memory byte footprint per column, best effort.
	ColumnSizes map[int]int64

	// EqualityFieldIDs is set only for equality delete files and names the
	// fields whose values identify the rows being deleted.
	EqualityFieldIDs []int
}
