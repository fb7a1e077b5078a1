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

// Package fileio is the storage collaborator of the writers: byte-stream
// create and open against a path. Writers only ever create new objects at
// generator-provided paths; they never list, delete or rename.
package fileio

import (
	"context"
	"io"
)

// Sink is an open output stream. Close flushes and finalizes the object;
// until Close returns nil the object must not be assumed durable.
type Sink interface {
	io.Writer
	Close() error
}

// FileIO creates and opens byte streams by path.
type FileIO interface {
	// Create opens a new object for writing at path, creating any
	// intermediate directories the backend requires.
	Create(ctx context.Context, path string) (Sink, error)

	// Open opens an existing object for reading.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}
