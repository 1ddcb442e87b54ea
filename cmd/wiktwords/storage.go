// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

// S3 is the subset of minio.Client used in this program.
//
// We define our own interface for easier testing, so we only have to fake
// those parts of the (rather big) S3 interface that we actually use.
type S3 interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// UploadOutputs puts the extraction artifacts into object storage under
// a per-date prefix. Files already in storage are not re-uploaded.
func UploadOutputs(ctx context.Context, s3 S3, bucket, date string, paths []string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		dest := date + "/" + filepath.Base(path)

		if _, err := s3.StatObject(ctx, bucket, dest, minio.StatObjectOptions{}); err == nil {
			logger.Printf("already in object storage: %s/%s", bucket, dest)
			continue
		}

		contentType := "application/octet-stream"
		switch filepath.Ext(path) {
		case ".json":
			contentType = "application/json"
		case ".zst":
			contentType = "application/zstd"
		}
		opts := minio.PutObjectOptions{ContentType: contentType}
		if _, err := s3.FPutObject(ctx, bucket, dest, path, opts); err != nil {
			return err
		}
		logger.Printf("uploaded to object storage: %s/%s", bucket, dest)
	}
	return nil
}
