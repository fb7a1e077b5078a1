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

// Package location maps logical write requests to storage paths. Generators
// are pure: uniqueness across concurrent writers comes from embedding a
// distinct token (a task id or a ULID) rather than from coordination, and a
// generator rebuilt with the same task id replays the same names so retried
// writes overwrite instead of orphaning objects.
package location

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/cardinalhq/lakewriter/writer"
)

// LocationGenerator maps a generated file name to its full storage path.
type LocationGenerator interface {
	NewLocation(fileName string) string
}

// FileNameGenerator produces file names unique within one table.
type FileNameGenerator interface {
	NewFileName() string
}

// DefaultLocationGenerator places files under "<table location>/data".
type DefaultLocationGenerator struct {
	dataDir string
}

func NewDefaultLocationGenerator(tableLocation string) (DefaultLocationGenerator, error) {
	loc := strings.TrimRight(tableLocation, "/")
	if loc == "" {
		return DefaultLocationGenerator{}, &writer.ConfigError{
			Field:   "tableLocation",
			Message: "cannot be empty",
		}
	}
	return DefaultLocationGenerator{dataDir: loc + "/data"}, nil
}

func (g DefaultLocationGenerator) NewLocation(fileName string) string {
	return g.dataDir + "/" + fileName
}

// partitionedLocationGenerator inserts a partition path between the base
// directory and the file name.
type partitionedLocationGenerator struct {
	inner LocationGenerator
	dir   string
}

// WithPartition scopes a generator to one partition directory, for example
// "region=eu/day=2026-08-25". An empty path returns the generator unchanged.
func WithPartition(g LocationGenerator, partitionPath string) LocationGenerator {
	if partitionPath == "" {
		return g
	}
	return partitionedLocationGenerator{inner: g, dir: strings.Trim(partitionPath, "/")}
}

func (g partitionedLocationGenerator) NewLocation(fileName string) string {
	return g.inner.NewLocation(g.dir + "/" + fileName)
}

// DefaultFileNameGenerator names files "<prefix>-<seq>-<taskID>[-<suffix>].<format>".
// The sequence counter is shared across copies of the generator, so builders
// cloned from one configuration never collide, while rebuilding a generator
// with the same task id replays the same names for retried writes.
type DefaultFileNameGenerator struct {
	prefix string
	suffix string
	taskID string
	format writer.FileFormat
	seq    *atomic.Int64
}

// NewDefaultFileNameGenerator creates a generator for one logical write
// task. An empty taskID gets a fresh random one.
func NewDefaultFileNameGenerator(prefix, taskID, suffix string, format writer.FileFormat) DefaultFileNameGenerator {
	if taskID == "" {
		taskID = uuid.NewString()
	}
	return DefaultFileNameGenerator{
		prefix: prefix,
		suffix: suffix,
		taskID: taskID,
		format: format,
		seq:    &atomic.Int64{},
	}
}

func (g DefaultFileNameGenerator) NewFileName() string {
	name := fmt.Sprintf("%s-%05d-%s", g.prefix, g.seq.Add(1), g.taskID)
	if g.suffix != "" {
		name += "-" + g.suffix
	}
	return name + "." + string(g.format)
}

// ULIDFileNameGenerator names files with a fresh ULID per call. Names are
// lexically ordered by creation time and never repeat, which suits one-shot
// writes where retry stability does not matter.
type ULIDFileNameGenerator struct {
	prefix string
	format writer.FileFormat
}

func NewULIDFileNameGenerator(prefix string, format writer.FileFormat) ULIDFileNameGenerator {
	return ULIDFileNameGenerator{prefix: prefix, format: format}
}

func (g ULIDFileNameGenerator) NewFileName() string {
	name := ulid.Make().String()
	if g.prefix != "" {
		name = g.prefix + "-" + name
	}
	return name + "." + string(g.format)
}
