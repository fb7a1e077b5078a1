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

package fileio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cardinalhq/lakewriter/writer"
)

// LocalFS implements FileIO against the local filesystem. Paths are plain
// filesystem paths.
type LocalFS struct{}

var _ FileIO = LocalFS{}

func (LocalFS) Create(ctx context.Context, path string) (Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create parent dirs for %s: %v", writer.ErrStorageUnavailable, path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", writer.ErrStorageUnavailable, path, err)
	}
	return f, nil
}

func (LocalFS) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", writer.ErrStorageUnavailable, path, err)
	}
	return f, nil
}
