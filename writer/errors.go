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

import "errors"

// Common errors returned by writers. All failures surface synchronously to
// the caller of the operation that triggered them; no operation retries
// internally.
var (
	// ErrAlreadyClosed indicates use after Close. This is a caller bug,
	// not a recoverable condition: after a failed Close some files may be
	// durable in storage yet unrepresented in any returned metadata, so
	// any further result would be ambiguous.
	ErrAlreadyClosed = errors.New("lakewriter: writer is already closed")

	// ErrSchemaMismatch indicates the input batch is incompatible with the
	// writer's configured schema. The caller must fix the input; retrying
	// the same batch cannot succeed.
	ErrSchemaMismatch = errors.New("lakewriter: batch schema does not match writer schema")

	// ErrPartitionRoute indicates a route key could not be derived for a
	// row, for example a partition transform input out of domain.
	ErrPartitionRoute = errors.New("lakewriter: cannot derive partition route key")

	// ErrStorageUnavailable indicates a transient I/O failure opening,
	// writing or closing the underlying storage object. Retry by building
	// a brand-new writer; never reuse the failed instance.
	ErrStorageUnavailable = errors.New("lakewriter: storage unavailable")
)

// ConfigError represents a builder configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "lakewriter config: " + e.Field + " " + e.Message
}
