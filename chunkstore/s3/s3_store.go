package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/trajcache/chunkstore"
)

// Store implements chunkstore.Store for S3.
// Chunk downloads go through the transfer manager, which splits large
// chunks into parallel ranged GETs.
type Store struct {
	client     *s3.Client
	downloader *manager.Downloader
	bucket     string
	prefix     string
}

// NewStore creates a new S3 chunk store.
// rootPrefix is prepended to all keys (e.g. "runs/prod-42/").
func NewStore(client *s3.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client:     client,
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		prefix:     rootPrefix,
	}
}

// NewFromDefaultConfig creates a Store using the ambient AWS configuration
// (environment, shared config files, instance role).
func NewFromDefaultConfig(ctx context.Context, bucket, rootPrefix string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewStore(s3.NewFromConfig(cfg), bucket, rootPrefix), nil
}

func (s *Store) objectKey(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) chunkKey(key chunkstore.Key) string {
	return s.objectKey(fmt.Sprintf("chunk-%08d.bin", key))
}

// Load downloads the chunk for key.
func (s *Store) Load(ctx context.Context, key chunkstore.Key) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.chunkKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("chunk %d: %w", key, chunkstore.ErrNotFound)
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// Put uploads a chunk.
func (s *Store) Put(ctx context.Context, key chunkstore.Key, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.chunkKey(key)),
		Body:   bytes.NewReader(data),
	})
	return err
}

// GetManifest downloads the dataset manifest.
func (s *Store) GetManifest(ctx context.Context) ([]byte, error) {
	return s.getObject(ctx, s.objectKey("manifest.json"))
}

// PutManifest uploads the dataset manifest.
func (s *Store) PutManifest(ctx context.Context, data []byte) error {
	return s.putObject(ctx, s.objectKey("manifest.json"), data)
}

func (s *Store) getObject(ctx context.Context, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, chunkstore.ErrNotFound
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Store) putObject(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}
