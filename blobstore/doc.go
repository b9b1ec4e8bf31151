// Package blobstore publishes finished output files to a destination store.
//
// A Store receives whole objects through Put. Publish uploads a set of local
// files to a store once the operation that produced them has committed, so a
// failed run never publishes partial output.
//
// # Built-in Implementations
//
//   - LocalStore: copies into a directory with temp-file-and-rename
//   - MemoryStore: keeps objects in memory, for tests
//   - s3.Store: Amazon S3 through the aws-sdk-go-v2 upload manager
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Usage
//
//	store, err := blobstore.NewLocalStore("/data/published")
//	if err != nil {
//	    return err
//	}
//	err = blobstore.Publish(ctx, store, "cifar10_base.fbin", "cifar10_gt.ibin")
package blobstore
