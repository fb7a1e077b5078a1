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
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cardinalhq/lakewriter/writer"
)

// S3FileIO implements FileIO against S3 (or any S3-compatible store). Paths
// are "s3://bucket/key" URIs. Writes stream through a pipe into a multipart
// upload, so files never need to be buffered whole in memory.
type S3FileIO struct {
	client   *s3.Client
	uploader *manager.Uploader
}

var _ FileIO = (*S3FileIO)(nil)

func NewS3FileIO(client *s3.Client) *S3FileIO {
	return &S3FileIO{
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

// NewS3FileIOFromEnv builds a client from the ambient AWS configuration
// (environment, shared config, instance role).
func NewS3FileIOFromEnv(ctx context.Context) (*S3FileIO, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", writer.ErrStorageUnavailable, err)
	}
	return NewS3FileIO(s3.NewFromConfig(cfg)), nil
}

func (f *S3FileIO) Create(ctx context.Context, path string) (Sink, error) {
	bucket, key, err := parseS3Path(path)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, err := f.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		// Unblock any in-flight Write if the upload died early.
		_ = pr.CloseWithError(err)
		done <- err
	}()

	return &s3Sink{pw: pw, done: done}, nil
}

func (f *S3FileIO) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, err := parseS3Path(path)
	if err != nil {
		return nil, err
	}
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get s3://%s/%s: %v", writer.ErrStorageUnavailable, bucket, key, err)
	}
	return out.Body, nil
}

type s3Sink struct {
	pw   *io.PipeWriter
	done chan error
}

func (s *s3Sink) Write(p []byte) (int, error) {
	n, err := s.pw.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", writer.ErrStorageUnavailable, err)
	}
	return n, nil
}

func (s *s3Sink) Close() error {
	if err := s.pw.Close(); err != nil {
		return fmt.Errorf("%w: %v", writer.ErrStorageUnavailable, err)
	}
	if err := <-s.done; err != nil {
		return fmt.Errorf("%w: finish upload: %v", writer.ErrStorageUnavailable, err)
	}
	return nil
}

func parseS3Path(path string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(path, "s3://")
	if !ok {
		return "", "", &writer.ConfigError{Field: "path", Message: "must start with s3://"}
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", &writer.ConfigError{Field: "path", Message: "must be s3://bucket/key"}
	}
	return bucket, key, nil
}
