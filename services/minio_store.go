package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore is the ObjectStore used for self-hosted, S3-compatible storage.
type MinioStore struct {
	client        *minio.Client
	publicURLBase string
}

func NewMinioStore(endpoint, accessKey, secretKey string, useSSL bool, publicURLBase string) (*MinioStore, error) {
	cl, err := minio.New(strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://"), &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	if publicURLBase == "" {
		publicURLBase = cl.EndpointURL().String()
	}
	return &MinioStore{client: cl, publicURLBase: publicURLBase}, nil
}

// Upload refuses to overwrite: an existing object is a conflict.
func (s *MinioStore) Upload(ctx context.Context, bucket, objectPath string, body io.Reader, size int64, contentType string) error {
	log.Printf("⬆️ Uploading minio://%s/%s (%d bytes, %s)", bucket, objectPath, size, contentType)
	if _, err := s.client.StatObject(ctx, bucket, objectPath, minio.StatObjectOptions{}); err == nil {
		return &StorageError{Kind: StorageErrConflict, Op: "upload", Err: fmt.Errorf("object %s already exists", objectPath)}
	} else if code := minio.ToErrorResponse(err).Code; code != "NoSuchKey" {
		return classifyMinioError("upload", err)
	}

	_, err := s.client.PutObject(ctx, bucket, objectPath, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		log.Printf("❌ Upload to minio://%s/%s failed: %v", bucket, objectPath, err)
		return classifyMinioError("upload", err)
	}
	return nil
}

func (s *MinioStore) PublicURL(bucket, objectPath string) string {
	return joinURL(s.publicURLBase, bucket, objectPath)
}

func (s *MinioStore) Remove(ctx context.Context, bucket, objectPath string) error {
	if err := s.client.RemoveObject(ctx, bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return classifyMinioError("remove", err)
	}
	return nil
}

func (s *MinioStore) List(ctx context.Context, bucket, prefix string) ([]StoredObject, error) {
	var objects []StoredObject
	for info := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, classifyMinioError("list", info.Err)
		}
		objects = append(objects, StoredObject{Path: info.Key, Size: info.Size, LastModified: info.LastModified})
	}
	return objects, nil
}

func (s *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, classifyMinioError("head-bucket", err)
	}
	return exists, nil
}

func (s *MinioStore) PresignUpload(ctx context.Context, bucket, objectPath, contentType string, size int64, ttl time.Duration) (string, error) {
	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	headers.Set("Content-Length", strconv.FormatInt(size, 10))
	u, err := s.client.PresignHeader(ctx, http.MethodPut, bucket, objectPath, ttl, nil, headers)
	if err != nil {
		return "", classifyMinioError("presign", err)
	}
	return u.String(), nil
}

func classifyMinioError(op string, err error) error {
	return &StorageError{Kind: storageKindFromCode(minio.ToErrorResponse(err).Code), Op: op, Err: err}
}
