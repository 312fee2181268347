package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/hupe1980/trajcache/chunkstore"
	"github.com/minio/minio-go/v7"
)

// Store implements chunkstore.Store for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a new MinIO chunk store.
// bucket is the MinIO bucket name.
// rootPrefix is prepended to all keys (e.g. "runs/prod-42/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) objectKey(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) chunkKey(key chunkstore.Key) string {
	return s.objectKey(fmt.Sprintf("chunk-%08d.bin", key))
}

// Load downloads the chunk for key.
func (s *Store) Load(ctx context.Context, key chunkstore.Key) ([]byte, error) {
	data, err := s.getObject(ctx, s.chunkKey(key))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("chunk %d: %w", key, chunkstore.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Put uploads a chunk.
func (s *Store) Put(ctx context.Context, key chunkstore.Key, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.chunkKey(key),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// GetManifest downloads the dataset manifest.
func (s *Store) GetManifest(ctx context.Context) ([]byte, error) {
	data, err := s.getObject(ctx, s.objectKey("manifest.json"))
	if err != nil {
		if isNotFound(err) {
			return nil, chunkstore.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// PutManifest uploads the dataset manifest.
func (s *Store) PutManifest(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectKey("manifest.json"),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

func (s *Store) getObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	// GetObject is lazy; the first read surfaces NoSuchKey.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func isNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound"
}
