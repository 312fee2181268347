// Package s3 provides an S3 implementation of the chunkstore interfaces.
//
// # Usage
//
//	store, err := s3.NewFromDefaultConfig(ctx, "my-bucket", "runs/prod-42/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reader, err := traj.Open(ctx, store)
//
// # Features
//
//   - Chunk downloads through the S3 transfer manager (parallel ranged GETs)
//   - Configurable prefix for multi-dataset isolation
//   - Optional DynamoDB-backed manifest versioning with atomic commits
//     (see VersionedManifestStore)
package s3
