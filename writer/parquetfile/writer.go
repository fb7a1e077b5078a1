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

// Package parquetfile is the physical layer for the parquet format: it
// encodes Arrow record batches into one parquet file per writer, streaming
// row groups to the storage sink as they are written.
package parquetfile

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/cardinalhq/lakewriter/writer"
	"github.com/cardinalhq/lakewriter/writer/fileio"
	"github.com/cardinalhq/lakewriter/writer/location"
)

// WriterBuilder holds the immutable configuration for opening parquet file
// writers. It is a plain value: copy it freely, every Build call opens an
// independent file at a freshly generated location.
type WriterBuilder struct {
	// Schema is the Arrow schema of incoming batches. Fields should carry
	// Iceberg field ids in their metadata under stats.FieldIDKey.
	Schema *arrow.Schema

	// Props are the parquet encoding properties. Nil gets zstd compression
	// with dictionary encoding, matching our other parquet producers.
	Props *parquet.WriterProperties

	IO       fileio.FileIO
	Location location.LocationGenerator
	Names    location.FileNameGenerator
}

var _ writer.FileWriterBuilder = WriterBuilder{}

func (b WriterBuilder) Validate() error {
	if b.Schema == nil {
		return &writer.ConfigError{Field: "Schema", Message: "cannot be nil"}
	}
	if b.IO == nil {
		return &writer.ConfigError{Field: "IO", Message: "cannot be nil"}
	}
	if b.Location == nil {
		return &writer.ConfigError{Field: "Location", Message: "cannot be nil"}
	}
	if b.Names == nil {
		return &writer.ConfigError{Field: "Names", Message: "cannot be nil"}
	}
	return nil
}

// WithLocation returns a copy of the builder writing under a different
// location generator. Fan-out writers use this to scope one configuration to
// many partition directories.
func (b WriterBuilder) WithLocation(g location.LocationGenerator) WriterBuilder {
	b.Location = g
	return b
}

// Build opens a new output stream at a freshly generated location and
// prepares the parquet encoder for the configured schema.
func (b WriterBuilder) Build(ctx context.Context) (writer.FileWriter, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	path := b.Location.NewLocation(b.Names.NewFileName())
	sink, err := b.IO.Create(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	props := b.Props
	if props == nil {
		props = parquet.NewWriterProperties(
			parquet.WithCompression(compress.Codecs.Zstd),
			parquet.WithDictionaryDefault(true),
		)
	}

	cw := &countingWriter{w: sink}
	fw, err := pqarrow.NewFileWriter(b.Schema, cw, props,
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		_ = sink.Close()
		return nil, fmt.Errorf("%w: schema not encodable as parquet: %v", writer.ErrSchemaMismatch, err)
	}

	slog.Debug("opened parquet file", slog.String("path", path))
	return &Writer{
		schema:   b.Schema,
		fw:       fw,
		sink:     sink,
		counting: cw,
		path:     path,
	}, nil
}

// Writer encodes batches into a single parquet file. Not safe for
// concurrent use; its state is owned by one caller.
type Writer struct {
	schema   *arrow.Schema
	fw       *pqarrow.FileWriter
	sink     fileio.Sink
	counting *countingWriter
	path     string
	rows     int64
	closed   bool
}

var (
	_ writer.FileWriter        = (*Writer)(nil)
	_ writer.CurrentFileStatus = (*Writer)(nil)
)

// Write appends a batch as one parquet row group.
func (w *Writer) Write(ctx context.Context, rec arrow.Record) error {
	if w.closed {
		return writer.ErrAlreadyClosed
	}
	if !w.schema.Equal(rec.Schema()) {
		return fmt.Errorf("%w: got %s, want %s", writer.ErrSchemaMismatch, rec.Schema(), w.schema)
	}
	if err := w.fw.Write(rec); err != nil {
		return fmt.Errorf("%w: write row group to %s: %v", writer.ErrStorageUnavailable, w.path, err)
	}
	w.rows += rec.NumRows()
	return nil
}

// Close writes the parquet footer and finalizes the storage object. If it
// fails the partial file is unreliable: discard this writer and rebuild,
// which picks a new location.
func (w *Writer) Close(ctx context.Context) (writer.FileInfo, error) {
	if w.closed {
		return writer.FileInfo{}, writer.ErrAlreadyClosed
	}
	w.closed = true

	if err := w.fw.Close(); err != nil {
		_ = w.sink.Close()
		return writer.FileInfo{}, fmt.Errorf("%w: finalize %s: %v", writer.ErrStorageUnavailable, w.path, err)
	}
	if err := w.sink.Close(); err != nil {
		return writer.FileInfo{}, fmt.Errorf("close %s: %w", w.path, err)
	}

	info := writer.FileInfo{
		Path:        w.path,
		Format:      writer.FormatParquet,
		SizeBytes:   w.counting.n,
		RecordCount: w.rows,
	}
	slog.Debug("closed parquet file",
		slog.String("path", w.path),
		slog.Int64("rows", info.RecordCount),
		slog.Int64("bytes", info.SizeBytes))
	return info, nil
}

func (w *Writer) CurrentFilePath() string { return w.path }

func (w *Writer) CurrentRowNum() int64 { return w.rows }

// CurrentWrittenSize reports bytes flushed to the sink so far. Each Write
// closes a row group, so this tracks the actual encoded size rather than an
// estimate.
func (w *Writer) CurrentWrittenSize() int64 { return w.counting.n }

// countingWriter deliberately does not implement io.Closer so the parquet
// writer cannot close the sink out from under us; sink lifecycle stays with
// Writer.Close.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
