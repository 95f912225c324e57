package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/quantfit/artifact"
)

// DDBCommitStore implements artifact.BlobStore backed by a blob store with
// DynamoDB for atomic CURRENT pointer commits. This enables safe concurrent
// writers: artifact blobs go to the underlying store, while each model's
// CURRENT pointer lives in DynamoDB and moves through conditional writes,
// providing the compare-and-swap semantics that S3 lacks.
//
// Table schema:
//   - Partition key: base_uri (string) - base URI plus the model directory
//   - Sort key: version (number) - monotonically increasing commit version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name quantfit-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	base      artifact.BlobStore
	ddbClient DDBClient
	tableName string
	baseURI   string // e.g. "s3://bucket/prefix", namespaces the partition key
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentModification is returned when a concurrent write is detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// NewDDBCommitStore creates a commit store over an existing blob store.
// The baseURI should identify the blob store location ("s3://bucket/prefix");
// together with the model directory it forms the partition key.
func NewDDBCommitStore(base artifact.BlobStore, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		base:      base,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func (s *DDBCommitStore) isCurrent(name string) bool {
	return path.Base(name) == artifact.CurrentFileName
}

// partitionKey scopes the commit sequence to one model directory, so every
// model versions independently.
func (s *DDBCommitStore) partitionKey(name string) string {
	return s.baseURI + "/" + path.Dir(name)
}

// Open opens a blob for reading. CURRENT pointers are resolved through
// DynamoDB instead of the underlying store.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (artifact.Blob, error) {
	if s.isCurrent(name) {
		version, artifactPath, err := s.latestCommit(ctx, s.partitionKey(name))
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, artifact.ErrNotFound
		}
		return &virtualCurrentBlob{content: []byte(artifactPath)}, nil
	}
	return s.base.Open(ctx, name)
}

// Put writes a blob. For CURRENT pointers, a DynamoDB conditional write
// commits the new version or fails with ErrConcurrentModification.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if s.isCurrent(name) {
		return s.commit(ctx, s.partitionKey(name), string(data))
	}
	return s.base.Put(ctx, name, data)
}

// Create creates a writable blob in the underlying store.
func (s *DDBCommitStore) Create(ctx context.Context, name string) (artifact.WritableBlob, error) {
	return s.base.Create(ctx, name)
}

// Delete deletes a blob from the underlying store.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	return s.base.Delete(ctx, name)
}

// List lists blobs with prefix from the underlying store.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.base.List(ctx, prefix)
}

// latestCommit queries DynamoDB for the latest committed version under a
// partition key. Version 0 means no commit exists yet.
func (s *DDBCommitStore) latestCommit(ctx context.Context, pk string) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: pk},
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
	pathAttr, ok := item["artifact_path"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid artifact_path attribute in DynamoDB")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, pathAttr.Value, nil
}

// commit atomically records a new pointer target using a DynamoDB
// conditional write.
func (s *DDBCommitStore) commit(ctx context.Context, pk, artifactPath string) error {
	currentVersion, _, err := s.latestCommit(ctx, pk)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	// Conditional put: only succeed if this version doesn't exist yet
	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":      &types.AttributeValueMemberS{Value: pk},
			"version":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"artifact_path": &types.AttributeValueMemberS{Value: artifactPath},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})

	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}

	return nil
}

// virtualCurrentBlob serves CURRENT pointer content resolved from DynamoDB.
type virtualCurrentBlob struct {
	content []byte
}

func (b *virtualCurrentBlob) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *virtualCurrentBlob) Close() error {
	return nil
}

func (b *virtualCurrentBlob) Size() int64 {
	return int64(len(b.content))
}
