// Package s3 provides a blobstore.Store backed by Amazon S3.
//
// Uploads go through the aws-sdk-go-v2 upload manager, which switches to a
// multipart upload for objects larger than one part and aborts the upload on
// failure, so a failed Put leaves no object behind.
//
// # Basic Usage
//
//	store, err := s3.New(ctx, "my-bucket", "datasets/cifar10/", "eu-central-1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = blobstore.Publish(ctx, store, paths...)
//
// Credentials and region are resolved by the default AWS config chain
// (environment, shared config, IMDS).
package s3
