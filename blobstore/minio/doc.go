// Package minio provides a blobstore.Store using the MinIO client.
//
// MinIO is a high-performance, S3-compatible object storage system. This
// package works with MinIO and other S3-compatible systems such as Ceph,
// SeaweedFS and Garage.
//
// # Basic Usage
//
//	store, err := minioblob.New(minioblob.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "datasets",
//	    Prefix:    "cifar10/",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = blobstore.Publish(ctx, store, paths...)
package minio
