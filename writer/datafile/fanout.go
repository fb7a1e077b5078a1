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
	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/lakewriter/writer"
	"github.com/cardinalhq/lakewriter/writer/location"
	"github.com/cardinalhq/lakewriter/writer/parquetfile"
	"github.com/cardinalhq/lakewriter/writer/partition"
)

// BuilderFactory produces the logical writer builder for one route key.
// The factory is consulted once per distinct key per fan-out writer.
type BuilderFactory func(key partition.Key) writer.RecordWriterBuilder

// PartitionedParquetFactory is the common factory: it clones the physical
// parquet builder into the partition's directory and attaches the partition
// tuple to emitted DataFiles.
func PartitionedParquetFactory(pb parquetfile.WriterBuilder) BuilderFactory {
	return func(key partition.Key) writer.RecordWriterBuilder {
		return WriterBuilder{
			File:      pb.WithLocation(location.WithPartition(pb.Location, key.Path())),
			Partition: key.Values(),
		}
	}
}

// FanoutWriterBuilder configures writers that split incoming batches by
// route key and keep at most one open file chain per key.
type FanoutWriterBuilder struct {
	Spec    partition.Spec
	Factory BuilderFactory

	// Policy, when enabled, wraps every per-partition writer in a rolling
	// writer.
	Policy RollPolicy
}

var _ writer.RecordWriterBuilder = FanoutWriterBuilder{}

func (b FanoutWriterBuilder) Validate() error {
	if b.Factory == nil {
		return &writer.ConfigError{Field: "Factory", Message: "cannot be nil"}
	}
	return b.Spec.Validate()
}

func (b FanoutWriterBuilder) Build(ctx context.Context) (writer.RecordWriter, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &FanoutWriter{
		spec:    b.Spec,
		factory: b.Factory,
		policy:  b.Policy,
		open:    make(map[string]writer.RecordWriter),
	}, nil
}

// FanoutWriter routes each row of a batch to the physical file chain of its
// partition value. Rows with different route keys never share a file. Every
// batch written to one fan-out writer must carry the same schema as the
// first; a batch with a drifting schema fails with ErrSchemaMismatch. Not
// safe for concurrent use: the route map is mutated in place.
type FanoutWriter struct {
	spec    partition.Spec
	factory BuilderFactory
	policy  RollPolicy

	// router is resolved against the first batch's schema and rejects
	// batches that do not match it
	router  *partition.Router
	open    map[string]writer.RecordWriter
	order   []string
	results []writer.DataFile
	closed  bool
}

var _ writer.RecordWriter = (*FanoutWriter)(nil)

func (w *FanoutWriter) Write(ctx context.Context, rec arrow.Record) error {
	if w.closed {
		return writer.ErrAlreadyClosed
	}

	if w.router == nil {
		r, err := partition.NewRouter(w.spec, rec.Schema())
		if err != nil {
			return err
		}
		w.router = r
	}

	groups, err := w.router.Split(rec)
	if err != nil {
		return err
	}

	for _, g := range groups {
		rw, err := w.writerFor(ctx, g.Key)
		if err != nil {
			return err
		}
		sub, err := partition.TakeRecord(rec, g.Indices)
		if err != nil {
			return err
		}
		err = rw.Write(ctx, sub)
		sub.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *FanoutWriter) writerFor(ctx context.Context, key partition.Key) (writer.RecordWriter, error) {
	if rw, ok := w.open[key.Path()]; ok {
		return rw, nil
	}

	b := w.factory(key)
	if w.policy.enabled() {
		b = RollingWriterBuilder{Inner: b, Policy: w.policy}
	}
	rw, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}

	slog.Debug("opened partition route", slog.String("partition", key.Path()))
	w.open[key.Path()] = rw
	w.order = append(w.order, key.Path())
	return rw, nil
}

// Close closes every still-open route writer. Each route flushes fully
// before its DataFiles join the aggregate; failures are collected so the
// remaining routes still get closed, but any error means the returned
// metadata is incomplete and the whole write must be treated as failed.
func (w *FanoutWriter) Close(ctx context.Context) ([]writer.DataFile, error) {
	if w.closed {
		return nil, writer.ErrAlreadyClosed
	}
	w.closed = true

	var errs *multierror.Error
	for _, path := range w.order {
		files, err := w.open[path].Close(ctx)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		w.results = append(w.results, files...)
	}
	return w.results, errs.ErrorOrNil()
}
