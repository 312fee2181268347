package s3

import (
	"context"
	"path"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/trajcache/chunkstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue // uri:version -> item
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uri := params.Item["dataset_uri"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := uri + ":" + version

	// Check conditional expression
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uri := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	// Find items matching uri, sort by version descending
	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["dataset_uri"].(*types.AttributeValueMemberS).Value == uri {
			items = append(items, item)
		}
	}

	for i := 0; i < len(items)-1; i++ {
		for j := i + 1; j < len(items); j++ {
			vi := items[i]["version"].(*types.AttributeValueMemberN).Value
			vj := items[j]["version"].(*types.AttributeValueMemberN).Value
			if len(vi) < len(vj) || (len(vi) == len(vj) && vi < vj) {
				items[i], items[j] = items[j], items[i]
			}
		}
	}

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

// fakeObjectStore is an in-memory object store for testing.
type fakeObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) objectKey(name string) string {
	return path.Join("test-prefix", name)
}

func (f *fakeObjectStore) getObject(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, chunkstore.ErrNotFound
	}
	return data, nil
}

func (f *fakeObjectStore) putObject(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func newTestManifestStore() (*VersionedManifestStore, *fakeObjectStore, *mockDDBClient) {
	objects := newFakeObjectStore()
	ddb := newMockDDBClient()
	store := &VersionedManifestStore{
		s3Store:    objects,
		ddbClient:  ddb,
		tableName:  "test-manifests",
		datasetURI: "s3://bucket/test-prefix",
	}
	return store, objects, ddb
}

func TestVersionedManifestStore_EmptyDataset(t *testing.T) {
	store, _, _ := newTestManifestStore()

	_, err := store.GetManifest(context.Background())
	assert.ErrorIs(t, err, chunkstore.ErrNotFound)
}

func TestVersionedManifestStore_CommitAndRead(t *testing.T) {
	ctx := context.Background()
	store, objects, _ := newTestManifestStore()

	require.NoError(t, store.PutManifest(ctx, []byte(`{"v":1}`)))

	data, err := store.GetManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), data)

	// Manifest object lives under a versioned key.
	_, ok := objects.objects["test-prefix/manifests/v1.json"]
	assert.True(t, ok)
}

func TestVersionedManifestStore_VersionsAdvance(t *testing.T) {
	ctx := context.Background()
	store, objects, _ := newTestManifestStore()

	require.NoError(t, store.PutManifest(ctx, []byte(`{"v":1}`)))
	require.NoError(t, store.PutManifest(ctx, []byte(`{"v":2}`)))
	require.NoError(t, store.PutManifest(ctx, []byte(`{"v":3}`)))

	data, err := store.GetManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":3}`), data)

	// Earlier versions remain readable for time travel.
	assert.Equal(t, []byte(`{"v":1}`), objects.objects["test-prefix/manifests/v1.json"])
	assert.Equal(t, []byte(`{"v":2}`), objects.objects["test-prefix/manifests/v2.json"])
}

func TestVersionedManifestStore_ConcurrentCommitDetected(t *testing.T) {
	ctx := context.Background()
	store, _, ddb := newTestManifestStore()

	require.NoError(t, store.PutManifest(ctx, []byte(`{"v":1}`)))

	// Simulate another writer having claimed version 2 already.
	_, err := ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String("test-manifests"),
		Item: map[string]types.AttributeValue{
			"dataset_uri":  &types.AttributeValueMemberS{Value: "s3://bucket/test-prefix"},
			"version":      &types.AttributeValueMemberN{Value: "2"},
			"manifest_key": &types.AttributeValueMemberS{Value: "test-prefix/manifests/v2.json"},
		},
	})
	require.NoError(t, err)

	// Refresh our view so the next commit targets version 3... but force
	// a collision by racing on version 3 too.
	_, err = ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String("test-manifests"),
		Item: map[string]types.AttributeValue{
			"dataset_uri":  &types.AttributeValueMemberS{Value: "s3://bucket/test-prefix"},
			"version":      &types.AttributeValueMemberN{Value: "3"},
			"manifest_key": &types.AttributeValueMemberS{Value: "test-prefix/manifests/v3.json"},
		},
	})
	require.NoError(t, err)

	err = store.PutManifest(ctx, []byte(`{"v":"stale"}`))
	assert.ErrorIs(t, err, ErrConcurrentModification)
}
