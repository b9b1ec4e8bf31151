// Package resource bounds the memory and I/O bandwidth of a run.
//
//   - Memory: a weighted semaphore caps the bytes held by in-flight
//     ground-truth blocks. AcquireMemory blocks until room frees up or the
//     context ends.
//   - IO: a token bucket throttles uploads to a blob store.
//
// All methods are safe for concurrent use, and a nil *Controller imposes no
// limits:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   1 << 30,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(ctx, blockBytes); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(blockBytes)
//
//	r = resource.NewRateLimitedReader(ctx, r, rc)
package resource
