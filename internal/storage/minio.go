package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/teamshare/backend/internal/config"
	"github.com/teamshare/backend/pkg/logger"
)

// MinIOClient is the BlobStore backed by any S3-compatible service.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(cfg config.MinIOConfig) (*MinIOClient, error) {
	var creds *credentials.Credentials

	// No access key means we are running with an instance role.
	if cfg.AccessKey == "" {
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOClient{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (m *MinIOClient) Put(ctx context.Context, path string, reader io.Reader, size int64, contentType string) (ObjectRef, error) {
	info, err := m.client.PutObject(ctx, m.bucket, path, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("blob_upload_failed", err, map[string]interface{}{
			"object_name":  path,
			"size":         size,
			"content_type": contentType,
			"bucket":       m.bucket,
		})
		return ObjectRef{}, err
	}

	logger.Info("blob_upload_success", map[string]interface{}{
		"object_name":  path,
		"size":         info.Size,
		"content_type": contentType,
		"bucket":       m.bucket,
	})
	return ObjectRef{Path: path, Size: info.Size, ContentType: contentType}, nil
}

func (m *MinIOClient) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	urlValue, err := m.client.PresignedGetObject(ctx, m.bucket, path, expiry, nil)
	if err != nil {
		logger.Error("blob_presign_failed", err, map[string]interface{}{
			"object_name": path,
			"bucket":      m.bucket,
		})
		return "", err
	}
	return urlValue.String(), nil
}

func (m *MinIOClient) Delete(ctx context.Context, path string) error {
	err := m.client.RemoveObject(ctx, m.bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("blob_delete_failed", err, map[string]interface{}{
			"object_name": path,
			"bucket":      m.bucket,
		})
	} else {
		logger.Info("blob_delete_success", map[string]interface{}{
			"object_name": path,
			"bucket":      m.bucket,
		})
	}
	return err
}

func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", m.bucket, err)
	}
	return nil
}
