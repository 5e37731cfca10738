package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3MenuSource implements MenuSource backed by S3

type S3MenuSource struct {
	bucket string
	key    string
	s3     s3GetObjectAPI
}

func NewS3MenuSource(s3Client s3GetObjectAPI, bucket, key string) *S3MenuSource {
	return &S3MenuSource{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

func (s *S3MenuSource) Load(ctx context.Context) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get menu object from S3: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// S3SnapshotStore mirrors final snapshots to S3. The put is conditional on
// the key not existing, so a snapshot is written at most once.

type S3SnapshotStore struct {
	bucket string
	key    string
	s3     s3PutObjectAPI
}

func NewS3SnapshotStore(s3Client s3PutObjectAPI, bucket, prefix, sessionID string) *S3SnapshotStore {
	return &S3SnapshotStore{
		bucket: bucket,
		key:    path.Join(prefix, sessionID, SnapshotFileName),
		s3:     s3Client,
	}
}

// Key returns the object key the snapshot is written to.
func (s *S3SnapshotStore) Key() string { return s.key }

func (s *S3SnapshotStore) WriteSnapshot(ctx context.Context, data []byte) error {
	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return fmt.Errorf("s3://%s/%s: %w", s.bucket, s.key, ErrSnapshotExists)
		}
		return fmt.Errorf("failed to put snapshot object to S3: %w", err)
	}
	return nil
}
