package minio

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/artifact"
	"github.com/hupe1980/quantfit/graph"
	"github.com/hupe1980/quantfit/quantization"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-quantfit"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	// Test Put and Open
	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.qnt", data))

	blob, err := store.Open(ctx, "test.qnt")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)
	require.NoError(t, blob.Close())

	// Test List
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.qnt")

	// Test Delete, idempotent
	require.NoError(t, store.Delete(ctx, "test.qnt"))
	require.NoError(t, store.Delete(ctx, "test.qnt"))

	_, err = store.Open(ctx, "test.qnt")
	require.ErrorIs(t, err, artifact.ErrNotFound)

	// Test Create (streaming)
	wb, err := store.Create(ctx, "stream.qnt")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	blob, err = store.Open(ctx, "stream.qnt")
	require.NoError(t, err)
	content, err := artifact.ReadAll(blob)
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(content))
	require.NoError(t, blob.Close())
	require.NoError(t, store.Delete(ctx, "stream.qnt"))

	// Full registry round trip over MinIO
	w := mat.NewDense(1, 2, []float64{0.5, -0.25})
	g, err := graph.BuildLinear(w, []float64{0.1}, false)
	require.NoError(t, err)

	calib := mat.NewDense(2, 2, []float64{
		-1, -1,
		1, 1,
	})

	ptq, err := quantization.NewPostTrainingQuantizer(8)
	require.NoError(t, err)
	m, err := ptq.QuantizeModule(g, calib)
	require.NoError(t, err)

	reg := artifact.NewRegistry(store)
	_, err = reg.Save(ctx, "integration", &artifact.Artifact{
		Kind:      "regressor",
		Algorithm: "linear-regression",
		NBits:     8,
		Module:    m,
	})
	require.NoError(t, err)

	restored, err := reg.Load(ctx, "integration")
	require.NoError(t, err)

	want, err := m.Predict(calib)
	require.NoError(t, err)
	got, err := restored.Module.Predict(calib)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}
