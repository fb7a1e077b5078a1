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

package datafile

import (
	"context"
	"encoding/binary"
	"strconv"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakewriter/writer"
	"github.com/cardinalhq/lakewriter/writer/fileio"
	"github.com/cardinalhq/lakewriter/writer/location"
	"github.com/cardinalhq/lakewriter/writer/parquetfile"
	"github.com/cardinalhq/lakewriter/writer/stats"
)

func fieldMeta(id int) arrow.Metadata {
	return arrow.NewMetadata([]string{stats.FieldIDKey}, []string{strconv.Itoa(id)})
}

func tableSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Metadata: fieldMeta(1)},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true, Metadata: fieldMeta(2)},
		{Name: "region", Type: arrow.BinaryTypes.String, Metadata: fieldMeta(3)},
	}, nil)
}

func parquetBuilder(t *testing.T, schema *arrow.Schema) parquetfile.WriterBuilder {
	t.Helper()
	loc, err := location.NewDefaultLocationGenerator(t.TempDir())
	require.NoError(t, err)
	return parquetfile.WriterBuilder{
		Schema:   schema,
		IO:       fileio.LocalFS{},
		Location: loc,
		Names:    location.NewDefaultFileNameGenerator("data", "", "", writer.FormatParquet),
	}
}

func tableBatch(t *testing.T, ids []int64, names, regions []string) arrow.Record {
	t.Helper()
	bld := array.NewRecordBuilder(memory.DefaultAllocator, tableSchema())
	defer bld.Release()
	bld.Field(0).(*array.Int64Builder).AppendValues(ids, nil)
	bld.Field(1).(*array.StringBuilder).AppendValues(names, nil)
	bld.Field(2).(*array.StringBuilder).AppendValues(regions, nil)
	return bld.NewRecordBatch()
}

func tableBatchWithNullName(t *testing.T) arrow.Record {
	t.Helper()
	bld := array.NewRecordBuilder(memory.DefaultAllocator, tableSchema())
	defer bld.Release()
	bld.Field(0).(*array.Int64Builder).Append(2)
	bld.Field(1).(*array.StringBuilder).AppendNull()
	bld.Field(2).(*array.StringBuilder).Append("eu")
	return bld.NewRecordBatch()
}

func idOnlyBatch(t *testing.T, ids []int64) arrow.Record {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Metadata: fieldMeta(1)},
	}, nil)
	bld := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer bld.Release()
	bld.Field(0).(*array.Int64Builder).AppendValues(ids, nil)
	return bld.NewRecordBatch()
}

func int64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func TestDataFileWriter_SingleFile(t *testing.T) {
	ctx := context.Background()
	b := WriterBuilder{File: parquetBuilder(t, tableSchema())}

	w, err := b.Build(ctx)
	require.NoError(t, err)

	rec := tableBatch(t, []int64{1, 2}, []string{"a", "b"}, []string{"eu", "eu"})
	defer rec.Release()
	require.NoError(t, w.Write(ctx, rec))

	files, err := w.Close(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)

	df := files[0]
	assert.Equal(t, writer.ContentData, df.Content)
	assert.Equal(t, writer.FormatParquet, df.Format)
	assert.Equal(t, int64(2), df.RecordCount)
	assert.Positive(t, df.SizeBytes)
	assert.Nil(t, df.Partition)
	assert.Empty(t, df.EqualityFieldIDs)

	assert.Equal(t, int64Bytes(1), df.LowerBounds[1])
	assert.Equal(t, int64Bytes(2), df.UpperBounds[1])
	assert.Equal(t, []byte("a"), df.LowerBounds[2])
	assert.Equal(t, []byte("b"), df.UpperBounds[2])
	assert.Equal(t, int64(0), df.NullCounts[1])
	assert.Equal(t, int64(0), df.NullCounts[2])
}

func TestDataFileWriter_StatsFoldAcrossBatches(t *testing.T) {
	ctx := context.Background()
	w, err := WriterBuilder{File: parquetBuilder(t, tableSchema())}.Build(ctx)
	require.NoError(t, err)

	b1 := tableBatch(t, []int64{10, 20}, []string{"m", "n"}, []string{"eu", "eu"})
	defer b1.Release()
	b2 := tableBatch(t, []int64{-5}, []string{"a"}, []string{"eu"})
	defer b2.Release()

	require.NoError(t, w.Write(ctx, b1))
	require.NoError(t, w.Write(ctx, b2))

	files, err := w.Close(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, int64(3), files[0].RecordCount)
	assert.Equal(t, int64Bytes(-5), files[0].LowerBounds[1])
	assert.Equal(t, int64Bytes(20), files[0].UpperBounds[1])
	assert.Equal(t, []byte("a"), files[0].LowerBounds[2])
	assert.Equal(t, []byte("n"), files[0].UpperBounds[2])
}

func TestDataFileWriter_UseAfterClose(t *testing.T) {
	ctx := context.Background()
	w, err := WriterBuilder{File: parquetBuilder(t, tableSchema())}.Build(ctx)
	require.NoError(t, err)

	_, err = w.Close(ctx)
	require.NoError(t, err)

	rec := tableBatch(t, []int64{1}, []string{"a"}, []string{"eu"})
	defer rec.Release()
	require.ErrorIs(t, w.Write(ctx, rec), writer.ErrAlreadyClosed)
	_, err = w.Close(ctx)
	require.ErrorIs(t, err, writer.ErrAlreadyClosed)
}

func TestDataFileWriter_PartitionTupleCarriedThrough(t *testing.T) {
	ctx := context.Background()
	part := writer.Partition{"region": "eu"}
	w, err := WriterBuilder{File: parquetBuilder(t, tableSchema()), Partition: part}.Build(ctx)
	require.NoError(t, err)

	rec := tableBatch(t, []int64{1}, []string{"a"}, []string{"eu"})
	defer rec.Release()
	require.NoError(t, w.Write(ctx, rec))

	files, err := w.Close(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, part, files[0].Partition)
}

func TestDataFileWriter_UnsupportedStatsColumnFailsBeforeWrite(t *testing.T) {
	ctx := context.Background()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ts", Type: arrow.PrimitiveTypes.Date64, Metadata: fieldMeta(1)},
	}, nil)
	w, err := WriterBuilder{File: parquetBuilder(t, schema)}.Build(ctx)
	require.NoError(t, err)

	bld := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	bld.Field(0).(*array.Date64Builder).Append(1)
	rec := bld.NewRecordBatch()
	bld.Release()
	defer rec.Release()

	require.ErrorIs(t, w.Write(ctx, rec), writer.ErrSchemaMismatch)

	// The batch was rejected before reaching the file, so the emitted
	// metadata still covers exactly the persisted rows: none.
	files, err := w.Close(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(0), files[0].RecordCount)
	assert.Empty(t, files[0].LowerBounds)
}

func TestDataFileWriter_Validate(t *testing.T) {
	var cfgErr *writer.ConfigError
	_, err := WriterBuilder{}.Build(context.Background())
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "File", cfgErr.Field)
}

// All logical writers are usable through the plain RecordWriter interface,
// so callers can hold mixed sets without knowing the concrete types.
func TestRecordWriter_ObjectSafety(t *testing.T) {
	ctx := context.Background()

	builders := []writer.RecordWriterBuilder{
		WriterBuilder{File: parquetBuilder(t, tableSchema())},
		RollingWriterBuilder{
			Inner:  WriterBuilder{File: parquetBuilder(t, tableSchema())},
			Policy: RollPolicy{MaxRows: 100},
		},
	}

	var writers []writer.RecordWriter
	for _, b := range builders {
		w, err := b.Build(ctx)
		require.NoError(t, err)
		writers = append(writers, w)
	}

	rec := tableBatch(t, []int64{1, 2}, []string{"a", "b"}, []string{"eu", "us"})
	defer rec.Release()

	var total int64
	for _, w := range writers {
		require.NoError(t, w.Write(ctx, rec))
		files, err := w.Close(ctx)
		require.NoError(t, err)
		for _, df := range files {
			total += df.RecordCount
		}
	}
	assert.Equal(t, int64(4), total)
}
