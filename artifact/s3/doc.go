// Package s3 provides an S3 implementation of the artifact.BlobStore
// interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "registry/")
//	reg := artifact.NewRegistry(store)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads via streaming Create
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//
// # Concurrent Writers
//
// S3 has no compare-and-swap, so two registries saving the same model can
// race on the CURRENT pointer. Wrap the store in a DDBCommitStore to move
// pointer commits into DynamoDB conditional writes:
//
//	commits := s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg),
//	    "quantfit-commits", "s3://my-bucket/registry")
//	reg := artifact.NewRegistry(commits)
//
// A losing writer gets ErrConcurrentModification and can retry its save.
package s3
