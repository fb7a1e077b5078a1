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
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakewriter/writer"
)

func TestLocalFS_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/data/part-00001.parquet"

	sink, err := LocalFS{}.Create(ctx, path)
	require.NoError(t, err)
	_, err = sink.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	r, err := LocalFS{}.Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestLocalFS_OpenMissing(t *testing.T) {
	_, err := LocalFS{}.Open(context.Background(), t.TempDir()+"/nope")
	require.ErrorIs(t, err, writer.ErrStorageUnavailable)
}

func TestParseS3Path(t *testing.T) {
	bucket, key, err := parseS3Path("s3://b/warehouse/tbl/data/f.parquet")
	require.NoError(t, err)
	assert.Equal(t, "b", bucket)
	assert.Equal(t, "warehouse/tbl/data/f.parquet", key)

	for _, bad := range []string{"/local/path", "s3://", "s3://bucketonly"} {
		_, _, err := parseS3Path(bad)
		assert.Error(t, err, "path %q", bad)
	}
}
