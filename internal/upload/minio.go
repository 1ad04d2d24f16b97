package upload

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type MinIO struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewMinIO connects and makes sure the bucket exists.
func NewMinIO(ctx context.Context, o MinIOOptions, l *zap.Logger) (*MinIO, error) {
	client, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client %s: %w", o.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, o.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", o.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", o.Bucket, err)
		}
		l.Info("minio bucket created", zap.String("bucket", o.Bucket))
	}
	return &MinIO{client: client, bucket: o.Bucket, log: l}, nil
}

func objectKey(fileName string) string {
	return "photos/" + uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
}

func (m *MinIO) Upload(ctx context.Context, data []byte, fileName string) (Result, error) {
	key := objectKey(fileName)
	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  http.DetectContentType(data),
		UserMetadata: map[string]string{"original-filename": fileName},
	})
	if err != nil {
		m.log.Error("minio put failed", zap.String("key", key), zap.Error(err))
		return Result{}, fmt.Errorf("put %s/%s: %w", m.bucket, key, err)
	}
	m.log.Info("photo uploaded",
		zap.String("key", info.Key),
		zap.String("etag", info.ETag),
		zap.Int64("size", info.Size),
	)
	return Result{URL: fmt.Sprintf("%s/%s/%s", m.client.EndpointURL().String(), m.bucket, key)}, nil
}
