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
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/cardinalhq/lakewriter/writer"
	"github.com/cardinalhq/lakewriter/writer/stats"
)

// Reserved Iceberg field ids for position delete columns.
const (
	PositionDeleteFilePathFieldID = 2147483546
	PositionDeletePosFieldID      = 2147483545
)

// PositionDeleteSchema is the fixed schema of position delete files: the
// data file path and the 0-based position of the deleted row within it.
// Callers must supply rows sorted by (file_path, pos).
func PositionDeleteSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{
			Name: "file_path",
			Type: arrow.BinaryTypes.String,
			Metadata: arrow.NewMetadata(
				[]string{stats.FieldIDKey},
				[]string{fmt.Sprint(PositionDeleteFilePathFieldID)}),
		},
		{
			Name: "pos",
			Type: arrow.PrimitiveTypes.Int64,
			Metadata: arrow.NewMetadata(
				[]string{stats.FieldIDKey},
				[]string{fmt.Sprint(PositionDeletePosFieldID)}),
		},
	}, nil)
}

// PositionDeleteWriterBuilder builds writers for position delete files. The
// physical builder must be configured with PositionDeleteSchema.
type PositionDeleteWriterBuilder struct {
	File      writer.FileWriterBuilder
	Partition writer.Partition
}

var _ writer.RecordWriterBuilder = PositionDeleteWriterBuilder{}

func (b PositionDeleteWriterBuilder) Build(ctx context.Context) (writer.RecordWriter, error) {
	inner, err := WriterBuilder{
		File:      b.File,
		Partition: b.Partition,
		Content:   writer.ContentPositionDeletes,
	}.Build(ctx)
	if err != nil {
		return nil, err
	}
	return &positionDeleteWriter{inner: inner}, nil
}

type positionDeleteWriter struct {
	inner writer.RecordWriter
}

func (w *positionDeleteWriter) Write(ctx context.Context, rec arrow.Record) error {
	if err := validatePositionDeleteSchema(rec.Schema()); err != nil {
		return err
	}
	return w.inner.Write(ctx, rec)
}

func (w *positionDeleteWriter) Close(ctx context.Context) ([]writer.DataFile, error) {
	return w.inner.Close(ctx)
}

func validatePositionDeleteSchema(s *arrow.Schema) error {
	if s.NumFields() != 2 ||
		s.Field(0).Name != "file_path" ||
		!arrow.TypeEqual(s.Field(0).Type, arrow.BinaryTypes.String) ||
		s.Field(1).Name != "pos" ||
		!arrow.TypeEqual(s.Field(1).Type, arrow.PrimitiveTypes.Int64) {
		return fmt.Errorf("%w: position deletes need (file_path string, pos int64), got %s",
			writer.ErrSchemaMismatch, s)
	}
	return nil
}
