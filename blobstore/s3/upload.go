package s3

import (
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
)

// maxParts is the S3 limit on parts per multipart upload.
const maxParts = 10000

// UploadConfig configures the S3 uploader.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	// Default: 8MB (larger than SDK default of 5MB for better throughput)
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5 (matches SDK default)
	Concurrency int

	// EnableChecksum asks S3 to validate a CRC32C checksum of every part.
	// Default: true
	EnableChecksum bool

	// LeavePartsOnError controls whether failed multipart uploads
	// are automatically aborted.
	// Default: false (abort on error)
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:          8 * 1024 * 1024,
		Concurrency:       5,
		EnableChecksum:    true,
		LeavePartsOnError: false,
	}
}

// partSizeFor grows the part size so an object of size bytes fits in maxParts.
func (c UploadConfig) partSizeFor(size int64) int64 {
	ps := c.PartSize
	if ps < manager.MinUploadPartSize {
		ps = manager.MinUploadPartSize
	}
	if size > ps*maxParts {
		ps = size/maxParts + 1
	}
	return ps
}

// newUploader creates a configured S3 uploader for an object of size bytes.
func newUploader(client Client, cfg UploadConfig, size int64) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.partSizeFor(size)
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}
