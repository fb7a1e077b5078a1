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
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/cardinalhq/lakewriter/writer"
)

// RollPolicy decides when the currently open file is closed and a new one
// opened. Zero fields disable that trigger; the zero policy never rolls.
type RollPolicy struct {
	// MaxRows caps the rows per file. Oversized batches are sliced at the
	// boundary, so no file exceeds the cap.
	MaxRows int64

	// TargetFileSizeBytes rolls after the file's flushed size reaches the
	// target. Checked after each write, so a file may exceed the target by
	// at most one batch's worth of bytes.
	TargetFileSizeBytes int64
}

func (p RollPolicy) enabled() bool {
	return p.MaxRows > 0 || p.TargetFileSizeBytes > 0
}

func (p RollPolicy) shouldRoll(st writer.CurrentFileStatus) bool {
	if p.MaxRows > 0 && st.CurrentRowNum() >= p.MaxRows {
		return true
	}
	if p.TargetFileSizeBytes > 0 && st.CurrentWrittenSize() >= p.TargetFileSizeBytes {
		return true
	}
	return false
}

// RollingWriterBuilder wraps any single-file writer builder with a roll
// policy. The inner builder's writers must expose CurrentFileStatus for the
// policy to observe.
type RollingWriterBuilder struct {
	Inner  writer.RecordWriterBuilder
	Policy RollPolicy
}

var _ writer.RecordWriterBuilder = RollingWriterBuilder{}

func (b RollingWriterBuilder) Validate() error {
	if b.Inner == nil {
		return &writer.ConfigError{Field: "Inner", Message: "cannot be nil"}
	}
	if !b.Policy.enabled() {
		return &writer.ConfigError{Field: "Policy", Message: "needs MaxRows or TargetFileSizeBytes"}
	}
	return nil
}

func (b RollingWriterBuilder) Build(ctx context.Context) (writer.RecordWriter, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &RollingWriter{inner: b.Inner, policy: b.Policy}, nil
}

// RollingWriter opens files lazily and cycles them per the policy: a route's
// file is fully closed, its DataFile collected, before the next one opens.
type RollingWriter struct {
	inner   writer.RecordWriterBuilder
	policy  RollPolicy
	current writer.RecordWriter
	status  writer.CurrentFileStatus
	results []writer.DataFile
	closed  bool
}

var _ writer.RecordWriter = (*RollingWriter)(nil)

func (w *RollingWriter) Write(ctx context.Context, rec arrow.Record) error {
	if w.closed {
		return writer.ErrAlreadyClosed
	}

	// Slice the batch so no file passes MaxRows, covering the case of one
	// batch bigger than a whole file.
	for off, n := int64(0), rec.NumRows(); off < n; {
		if err := w.ensureOpen(ctx); err != nil {
			return err
		}

		take := n - off
		if w.policy.MaxRows > 0 {
			if room := w.policy.MaxRows - w.status.CurrentRowNum(); room < take {
				take = room
			}
		}

		part := rec.NewSlice(off, off+take)
		err := w.current.Write(ctx, part)
		part.Release()
		if err != nil {
			return err
		}
		off += take

		if w.policy.shouldRoll(w.status) {
			if err := w.roll(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *RollingWriter) ensureOpen(ctx context.Context) error {
	if w.current != nil {
		return nil
	}
	cur, err := w.inner.Build(ctx)
	if err != nil {
		return err
	}
	st, ok := cur.(writer.CurrentFileStatus)
	if !ok {
		_, _ = cur.Close(ctx)
		return &writer.ConfigError{Field: "Inner", Message: "writers must implement CurrentFileStatus"}
	}
	w.current = cur
	w.status = st
	return nil
}

func (w *RollingWriter) roll(ctx context.Context) error {
	slog.Debug("rolling data file",
		slog.String("path", w.status.CurrentFilePath()),
		slog.Int64("rows", w.status.CurrentRowNum()),
		slog.Int64("bytes", w.status.CurrentWrittenSize()))

	files, err := w.current.Close(ctx)
	w.current = nil
	w.status = nil
	if err != nil {
		return err
	}
	w.results = append(w.results, files...)
	return nil
}

func (w *RollingWriter) Close(ctx context.Context) ([]writer.DataFile, error) {
	if w.closed {
		return nil, writer.ErrAlreadyClosed
	}
	w.closed = true

	if w.current != nil {
		if err := w.roll(ctx); err != nil {
			return w.results, err
		}
	}
	return w.results, nil
}
