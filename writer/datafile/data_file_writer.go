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

// Package datafile implements the logical writers of the Iceberg layer: the
// single-file data writer, the rolling writer, the partitioned fan-out
// writer and the delete-file writers. They drive physical file writers and
// turn their facts plus accumulated column statistics into DataFile records.
package datafile

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/cardinalhq/lakewriter/writer"
	"github.com/cardinalhq/lakewriter/writer/stats"
)

// WriterBuilder configures single-file data writers. The zero Content is
// ContentData; delete-file builders wrap this with their own content kind.
type WriterBuilder struct {
	// File produces the physical writer this logical writer drives.
	File writer.FileWriterBuilder

	// Partition is the partition tuple attached to the emitted DataFile.
	// Nil for unpartitioned tables.
	Partition writer.Partition

	Content writer.Content

	// EqualityFieldIDs is carried through to the DataFile for equality
	// delete files.
	EqualityFieldIDs []int
}

var _ writer.RecordWriterBuilder = WriterBuilder{}

func (b WriterBuilder) Validate() error {
	if b.File == nil {
		return &writer.ConfigError{Field: "File", Message: "cannot be nil"}
	}
	return nil
}

// Build opens the physical file immediately and returns a writer consuming
// record batches for exactly one data file.
func (b WriterBuilder) Build(ctx context.Context) (writer.RecordWriter, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	inner, err := b.File.Build(ctx)
	if err != nil {
		return nil, err
	}
	return &Writer{
		inner:       inner,
		stats:       stats.NewAccumulator(),
		partition:   b.Partition,
		content:     b.Content,
		equalityIDs: b.EqualityFieldIDs,
	}, nil
}

// Writer writes batches into one physical file while folding per-column
// bounds, null counts and sizes into a running accumulator, so Close never
// rescans written data.
type Writer struct {
	inner       writer.FileWriter
	stats       *stats.Accumulator
	partition   writer.Partition
	content     writer.Content
	equalityIDs []int
	closed      bool
}

var (
	_ writer.RecordWriter      = (*Writer)(nil)
	_ writer.CurrentFileStatus = (*Writer)(nil)
)

func (w *Writer) Write(ctx context.Context, rec arrow.Record) error {
	if w.closed {
		return writer.ErrAlreadyClosed
	}

	// Statistics go into a per-batch partial first, so a column type the
	// accumulator cannot handle is rejected before any row is persisted and
	// the running statistics always cover exactly the written rows.
	partial := stats.NewAccumulator()
	if err := partial.Add(rec); err != nil {
		return fmt.Errorf("%w: cannot accumulate statistics: %v", writer.ErrSchemaMismatch, err)
	}

	if err := w.inner.Write(ctx, rec); err != nil {
		return err
	}
	if err := w.stats.Merge(partial); err != nil {
		return fmt.Errorf("merge statistics: %w", err)
	}
	return nil
}

func (w *Writer) Close(ctx context.Context) ([]writer.DataFile, error) {
	if w.closed {
		return nil, writer.ErrAlreadyClosed
	}
	w.closed = true

	info, err := w.inner.Close(ctx)
	if err != nil {
		return nil, err
	}
	metrics, err := w.stats.Finalize()
	if err != nil {
		return nil, fmt.Errorf("finalize statistics for %s: %w", info.Path, err)
	}

	return []writer.DataFile{{
		Path:             info.Path,
		Format:           info.Format,
		Content:          w.content,
		SizeBytes:        info.SizeBytes,
		RecordCount:      info.RecordCount,
		Partition:        w.partition,
		LowerBounds:      metrics.LowerBounds,
		UpperBounds:      metrics.UpperBounds,
		NullCounts:       metrics.NullCounts,
		ColumnSizes:      metrics.ColumnSizes,
		EqualityFieldIDs: w.equalityIDs,
	}}, nil
}

func (w *Writer) CurrentFilePath() string {
	if st, ok := w.inner.(writer.CurrentFileStatus); ok {
		return st.CurrentFilePath()
	}
	return ""
}

func (w *Writer) CurrentRowNum() int64 {
	if st, ok := w.inner.(writer.CurrentFileStatus); ok {
		return st.CurrentRowNum()
	}
	return 0
}

func (w *Writer) CurrentWrittenSize() int64 {
	if st, ok := w.inner.(writer.CurrentFileStatus); ok {
		return st.CurrentWrittenSize()
	}
	return 0
}
