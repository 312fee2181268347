package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/trajcache/chunkstore"
)

// VersionedManifestStore implements chunkstore.ManifestStore backed by S3
// with DynamoDB for atomic manifest commits.
//
// Trajectory datasets are typically written once per simulation run, but a
// run that is restarted or extended rewrites its manifest. DynamoDB acts as
// a commit log: manifest content goes to S3 under a versioned key, then a
// conditional write advances the latest-version pointer. Concurrent writers
// fail cleanly instead of clobbering each other.
//
// Table schema:
//   - Partition key: dataset_uri (string) - the S3 prefix/path
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name trajcache-manifests \
//	  --attribute-definitions AttributeName=dataset_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=dataset_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type VersionedManifestStore struct {
	s3Store    objectStore
	ddbClient  DDBClient
	tableName  string
	datasetURI string // S3 bucket/prefix used as partition key
}

// objectStore is the slice of Store the manifest store needs; split out so
// tests can run against an in-memory fake.
type objectStore interface {
	objectKey(name string) string
	getObject(ctx context.Context, key string) ([]byte, error)
	putObject(ctx context.Context, key string, data []byte) error
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentModification is returned when a concurrent manifest commit
// is detected.
var ErrConcurrentModification = errors.New("concurrent manifest modification detected")

// NewVersionedManifestStore creates a new S3+DynamoDB manifest store.
// The datasetURI should be "s3://bucket/prefix" format used as partition key.
func NewVersionedManifestStore(s3Store *Store, ddbClient DDBClient, tableName, datasetURI string) *VersionedManifestStore {
	return &VersionedManifestStore{
		s3Store:    s3Store,
		ddbClient:  ddbClient,
		tableName:  tableName,
		datasetURI: datasetURI,
	}
}

// GetManifest returns the manifest content of the latest committed version.
func (s *VersionedManifestStore) GetManifest(ctx context.Context) ([]byte, error) {
	version, objectKey, err := s.latestVersion(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, chunkstore.ErrNotFound
	}
	return s.s3Store.getObject(ctx, objectKey)
}

// PutManifest commits a new manifest version.
func (s *VersionedManifestStore) PutManifest(ctx context.Context, data []byte) error {
	currentVersion, _, err := s.latestVersion(ctx)
	if err != nil {
		return err
	}
	newVersion := currentVersion + 1

	objectKey := s.s3Store.objectKey(fmt.Sprintf("manifests/v%d.json", newVersion))
	if err := s.s3Store.putObject(ctx, objectKey, data); err != nil {
		return err
	}

	// Conditional put: only succeed if this version doesn't exist yet
	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"dataset_uri":  &types.AttributeValueMemberS{Value: s.datasetURI},
			"version":      &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"manifest_key": &types.AttributeValueMemberS{Value: objectKey},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit manifest version: %w", err)
	}
	return nil
}

// latestVersion queries DynamoDB for the latest committed version.
func (s *VersionedManifestStore) latestVersion(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("dataset_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.datasetURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	keyAttr, ok := item["manifest_key"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid manifest_key attribute in DynamoDB")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}
	return version, keyAttr.Value, nil
}
