package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// PresignExpiry is how long PresignGet's URLs remain valid.
const PresignExpiry = 15 * time.Minute

// S3 is the production store.Store backend: an S3 (or S3-compatible)
// bucket reached through the AWS SDK. List pages through
// ListObjectsV2, BatchDelete batches through DeleteObjects, and
// PresignGet uses the SDK's native presign client -- the real-world
// collaborator the original implementation's boto3 S3 bucket resource
// stood in for.
type S3 struct {
	client   *s3.Client
	presign  *s3.PresignClient
	bucket   string
	pool     *Pool
}

// NewS3 builds an S3-backed store against bucket using client.
func NewS3(client *s3.Client, bucket string) *S3 {
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		pool:    NewPool(DefaultPoolSize),
	}
}

func (s *S3) Put(ctx context.Context, key string, data []byte) error {
	return s.PutWithMetadata(ctx, key, data, nil)
}

func (s *S3) PutWithMetadata(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     bytes.NewReader(data),
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("store: s3 put %s: %w", key, err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrapGetErr(key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("store: s3 read body %s: %w", key, err)
	}
	return data, nil
}

func (s *S3) GetRange(ctx context.Context, key string, start, end int64) ([]byte, error) {
	byteRange := fmt.Sprintf("bytes=%d-%d", start, end)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(byteRange),
	})
	if err != nil {
		return nil, s.wrapGetErr(key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("store: s3 read range %s: %w", key, err)
	}
	return data, nil
}

func (s *S3) GetMetadata(ctx context.Context, key string) (map[string]string, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrapGetErr(key, err)
	}
	return out.Metadata, nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: s3 list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("store: s3 delete %s: %w", key, err)
	}
	return nil
}

func (s *S3) BatchDelete(ctx context.Context, keys []string) error {
	chunks := chunkKeys(keys)
	tasks := make([]func() error, 0, len(chunks))
	for _, chunk := range chunks {
		chunk := chunk
		tasks = append(tasks, func() error {
			objects := make([]types.ObjectIdentifier, len(chunk))
			for i, k := range chunk {
				objects[i] = types.ObjectIdentifier{Key: aws.String(k)}
			}
			_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{Objects: objects},
			})
			if err != nil {
				return fmt.Errorf("store: s3 batch delete: %w", err)
			}
			return nil
		})
	}
	return s.pool.Run(tasks)
}

func (s *S3) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("store: s3 presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3) ConcurrentList(ctx context.Context, prefixes []string) ([]string, error) {
	var all []string
	var mu sync.Mutex
	tasks := make([]func() error, 0, len(prefixes))
	for _, pfx := range prefixes {
		pfx := pfx
		tasks = append(tasks, func() error {
			keys, err := s.List(ctx, pfx)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, keys...)
			mu.Unlock()
			return nil
		})
	}
	if err := s.pool.Run(tasks); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *S3) wrapGetErr(key string, err error) error {
	var nsk *types.NoSuchKey
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &nsk) {
		return fmt.Errorf("store: s3 get %s: %w", key, ErrNotFound)
	}
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return fmt.Errorf("store: s3 get %s: %w", key, ErrNotFound)
	}
	return fmt.Errorf("store: s3 get %s: %w", key, err)
}
