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
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/cardinalhq/lakewriter/writer"
	"github.com/cardinalhq/lakewriter/writer/stats"
)

// EqualityDeleteWriterBuilder builds writers for equality delete files.
// Incoming batches use the full table schema; the writer projects them onto
// the configured equality fields before encoding. Every batch written to one
// writer must carry the same schema as the first. The physical builder must
// be configured with the projected schema.
type EqualityDeleteWriterBuilder struct {
	File      writer.FileWriterBuilder
	Partition writer.Partition

	// EqualityFieldIDs names the fields whose values identify deleted
	// rows. They must be primitive, non-nullable columns of the input.
	EqualityFieldIDs []int
}

var _ writer.RecordWriterBuilder = EqualityDeleteWriterBuilder{}

func (b EqualityDeleteWriterBuilder) Validate() error {
	if len(b.EqualityFieldIDs) == 0 {
		return &writer.ConfigError{Field: "EqualityFieldIDs", Message: "cannot be empty"}
	}
	return nil
}

func (b EqualityDeleteWriterBuilder) Build(ctx context.Context) (writer.RecordWriter, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	inner, err := WriterBuilder{
		File:             b.File,
		Partition:        b.Partition,
		Content:          writer.ContentEqualityDeletes,
		EqualityFieldIDs: b.EqualityFieldIDs,
	}.Build(ctx)
	if err != nil {
		return nil, err
	}
	return &equalityDeleteWriter{inner: inner, ids: b.EqualityFieldIDs}, nil
}

type equalityDeleteWriter struct {
	inner writer.RecordWriter
	ids   []int

	// projection resolved against the first batch's schema; later batches
	// must match it exactly
	src    *arrow.Schema
	cols   []int
	schema *arrow.Schema
}

func (w *equalityDeleteWriter) Write(ctx context.Context, rec arrow.Record) error {
	if w.cols == nil {
		if err := w.resolve(rec.Schema()); err != nil {
			return err
		}
	} else if !w.src.Equal(rec.Schema()) {
		return fmt.Errorf("%w: batch schema does not match the schema the key projection was resolved against",
			writer.ErrSchemaMismatch)
	}

	cols := make([]arrow.Array, len(w.cols))
	for i, idx := range w.cols {
		cols[i] = rec.Column(idx)
	}
	proj := array.NewRecordBatch(w.schema, cols, rec.NumRows())
	err := w.inner.Write(ctx, proj)
	proj.Release()
	return err
}

func (w *equalityDeleteWriter) Close(ctx context.Context) ([]writer.DataFile, error) {
	return w.inner.Close(ctx)
}

func (w *equalityDeleteWriter) resolve(s *arrow.Schema) error {
	cols := make([]int, 0, len(w.ids))
	fields := make([]arrow.Field, 0, len(w.ids))
	for _, id := range w.ids {
		found := -1
		for j, f := range s.Fields() {
			if stats.FieldID(f, j) == id {
				found = j
				break
			}
		}
		if found < 0 {
			return fmt.Errorf("%w: equality field id %d not in batch schema", writer.ErrSchemaMismatch, id)
		}
		f := s.Field(found)
		if f.Nullable {
			return fmt.Errorf("%w: equality field %q must not be nullable", writer.ErrSchemaMismatch, f.Name)
		}
		if _, ok := f.Type.(arrow.NestedType); ok {
			return fmt.Errorf("%w: equality field %q must be a primitive column", writer.ErrSchemaMismatch, f.Name)
		}
		cols = append(cols, found)
		fields = append(fields, f)
	}
	w.src = s
	w.cols = cols
	w.schema = arrow.NewSchema(fields, nil)
	return nil
}
