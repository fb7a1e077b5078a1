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

// Package writer defines the two-layer writer contracts for producing Iceberg
// data files from Arrow record batches.
//
// The physical layer (FileWriter) encodes batches into a single file of one
// format and tracks row and byte counters. The logical layer (IcebergWriter)
// maps table semantics - partitioning, delete files, column statistics - onto
// one or more physical writers and emits the DataFile metadata a table commit
// needs. Builders on both layers are plain values that can be copied freely;
// each Build call produces a writer with private mutable state, so running N
// writers for N parallel tasks needs no coordination.
//
// Writers are consumed exactly once: zero or more Write calls followed by one
// Close. Any use after Close fails with ErrAlreadyClosed.
package writer

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// IcebergWriter writes table-level input and, on close, returns the metadata
// of every file it produced. A single instance is not safe for concurrent
// use; parallelism is achieved by building multiple writers from one builder.
type IcebergWriter[I, O any] interface {
	// Write appends input to the table. The input is not retained beyond
	// the call.
	Write(ctx context.Context, input I) error

	// Close flushes and closes all underlying file writers and returns the
	// accumulated output. If Close fails, bytes may already be durable in
	// storage without being represented in the returned output; the writer
	// must be discarded either way. Any call after Close, success or
	// failure, fails with ErrAlreadyClosed.
	Close(ctx context.Context) (O, error)
}

// IcebergWriterBuilder constructs logical writers. Builders are cheap to copy
// and every Build call must return an independent writer.
type IcebergWriterBuilder[I, O any] interface {
	Build(ctx context.Context) (IcebergWriter[I, O], error)
}

// RecordWriter is the uniform, non-generic handle over the default
// input/output pair: an Arrow record batch in, a slice of DataFiles out.
// It exists so heterogeneous writers can be stored behind one interface
// value; every concrete writer in this module implements it.
type RecordWriter = IcebergWriter[arrow.Record, []DataFile]

// RecordWriterBuilder is the uniform builder counterpart of RecordWriter.
type RecordWriterBuilder = IcebergWriterBuilder[arrow.Record, []DataFile]

// FileWriter is the physical layer: it encodes record batches into exactly
// one file and finalizes it on close.
type FileWriter interface {
	// Write appends a batch to the open file. The batch schema must match
	// the writer's configured schema; otherwise ErrSchemaMismatch.
	Write(ctx context.Context, rec arrow.Record) error

	// Close flushes buffered data, finalizes the file and returns its
	// facts. If Close fails the partially written file is unreliable and
	// must not be resumed; retry by building a fresh writer, which will
	// pick a new location.
	Close(ctx context.Context) (FileInfo, error)
}

// FileWriterBuilder produces independent FileWriter instances from one
// immutable configuration.
type FileWriterBuilder interface {
	Build(ctx context.Context) (FileWriter, error)
}

// FileInfo is the low-level outcome of one closed physical file.
type FileInfo struct {
	Path        string
	Format      FileFormat
	SizeBytes   int64
	RecordCount int64
}

// CurrentFileStatus is the introspection capability of any writer that has at
// most one file open at a time. Roll policies use it to decide when to close
// and reopen the underlying file. Values are consistent with the most recent
// completed Write.
type CurrentFileStatus interface {
	CurrentFilePath() string
	CurrentRowNum() int64
	CurrentWrittenSize() int64
}
