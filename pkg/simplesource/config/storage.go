package config

import (
	"fmt"
	"path/filepath"

	"github.com/tendant/simple-source/pkg/simplesource"
	fsblob "github.com/tendant/simple-source/pkg/simplesource/storage/fs"
	memblob "github.com/tendant/simple-source/pkg/simplesource/storage/memory"
	s3blob "github.com/tendant/simple-source/pkg/simplesource/storage/s3"
)

// buildBlobStore creates a BlobStore based on the configuration
func (c *ServerConfig) buildBlobStore() (simplesource.BlobStore, error) {
	switch c.StorageBackend {
	case "memory":
		return memblob.New(), nil
	case "fs":
		return fsblob.New(fsblob.Config{
			BaseDir:  filepath.Join(c.DataDir, "blobs"),
			Compress: c.CompressBlobs,
		})
	case "s3":
		return s3blob.New(s3blob.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.StorageBackend)
	}
}
