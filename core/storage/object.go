package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/minio/minio-go/v7"
)

const markdownContentType = "text/markdown; charset=utf-8"

// ObjectStore implements Store on top of an S3 compatible bucket.
// Directories are zero-byte "dir/" marker objects.
type ObjectStore struct {
	client Client
	bucket string
	region string
}

// NewObjectStore creates a Store writing into bucket.
func NewObjectStore(client Client, bucket, region string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, region: region}
}

// Exists reports whether an object, or a directory prefix, exists at p.
func (s *ObjectStore) Exists(ctx context.Context, p string) (bool, error) {
	key := cleanKey(p)
	if key == "" {
		return s.client.BucketExists(ctx, s.bucket)
	}

	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if !isNotFound(err) {
		return false, fmt.Errorf("stat %s: %w", key, err)
	}

	// No object under the exact key; look for anything under it as a prefix.
	opts := minio.ListObjectsOptions{
		Prefix:    key + "/",
		Recursive: false,
		MaxKeys:   1,
	}
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			if isNotFound(obj.Err) {
				return false, nil
			}
			return false, fmt.Errorf("list %s: %w", key, obj.Err)
		}
		return true, nil
	}
	return false, nil
}

// ReadBytes downloads the object at p.
func (s *ObjectStore) ReadBytes(ctx context.Context, p string) ([]byte, error) {
	key := cleanKey(p)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectErr("get", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapObjectErr("read", key, err)
	}
	return data, nil
}

// Write uploads data to p.
func (s *ObjectStore) Write(ctx context.Context, p string, data []byte, overwrite bool) error {
	key := cleanKey(p)
	if !overwrite {
		exists, err := s.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("write %s: %w", key, ErrExists)
		}
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: markdownContentType,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Move copies oldPath to newPath server-side, then removes oldPath.
func (s *ObjectStore) Move(ctx context.Context, oldPath, newPath string, overwrite bool) error {
	src, dst := cleanKey(oldPath), cleanKey(newPath)
	if src == dst {
		return nil
	}
	if !overwrite {
		exists, err := s.Exists(ctx, dst)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("move %s -> %s: %w", src, dst, ErrExists)
		}
	}

	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: s.bucket, Object: src},
	)
	if err != nil {
		return mapObjectErr("copy", src, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, src, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}

// Remove deletes the object at p.
func (s *ObjectStore) Remove(ctx context.Context, p string) error {
	key := cleanKey(p)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return mapObjectErr("remove", key, err)
	}
	return nil
}

// Mkdir makes sure the bucket exists and writes a marker object for p.
func (s *ObjectStore) Mkdir(ctx context.Context, p string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}

	key := cleanKey(p)
	if key == "" {
		return nil
	}
	marker := path.Clean(key) + "/"
	if _, err := s.client.PutObject(ctx, s.bucket, marker, bytes.NewReader([]byte{}), 0, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("create folder %s: %w", marker, err)
	}
	return nil
}

func isNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return resp.StatusCode == http.StatusNotFound
}

func mapObjectErr(op, key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %s: %w", op, key, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}
