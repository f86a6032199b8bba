package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3API is the subset of *s3.Client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type S3Store struct {
	Client        S3API
	Presign       *s3.PresignClient
	Region        string
	PublicURLBase string // e.g. a CDN; defaults to the virtual-hosted bucket URL
}

// NewS3Client builds an S3 client, honouring an optional endpoint override
// (path-style addressing is used for emulators).
func NewS3Client(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

func NewS3Store(client *s3.Client, region, publicURLBase string) *S3Store {
	return &S3Store{
		Client:        client,
		Presign:       s3.NewPresignClient(client),
		Region:        region,
		PublicURLBase: publicURLBase,
	}
}

// Upload creates the object. If-None-Match makes S3 reject an existing key.
func (s *S3Store) Upload(ctx context.Context, bucket, objectPath string, body io.Reader, size int64, contentType string) error {
	log.Printf("⬆️ Uploading s3://%s/%s (%d bytes, %s)", bucket, objectPath, size, contentType)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectPath),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		log.Printf("❌ Upload to s3://%s/%s failed: %v", bucket, objectPath, err)
		return classifyS3Error("upload", err)
	}
	return nil
}

func (s *S3Store) PublicURL(bucket, objectPath string) string {
	if s.PublicURLBase != "" {
		return joinURL(s.PublicURLBase, bucket, objectPath)
	}
	return joinURL(fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, s.Region), objectPath)
}

func (s *S3Store) Remove(ctx context.Context, bucket, objectPath string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectPath),
	})
	if err != nil {
		return classifyS3Error("remove", err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]StoredObject, error) {
	var objects []StoredObject
	paginator := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyS3Error("list", err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, StoredObject{
				Path:         aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

func (s *S3Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := s.Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	classified := classifyS3Error("head-bucket", err)
	if StorageKindOf(classified) == StorageErrBucketMissing {
		return false, nil
	}
	return false, classified
}

// PresignUpload returns a URL the client can PUT the object to directly. The
// declared type and length are signed, so the client cannot send a bigger body.
func (s *S3Store) PresignUpload(ctx context.Context, bucket, objectPath, contentType string, size int64, ttl time.Duration) (string, error) {
	req, err := s.Presign.PresignPutObject(ctx, presignPutInput(bucket, objectPath, contentType, size), s3.WithPresignExpires(ttl))
	if err != nil {
		return "", classifyS3Error("presign", err)
	}
	return req.URL, nil
}

func presignPutInput(bucket, objectPath, contentType string, size int64) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectPath),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		IfNoneMatch:   aws.String("*"),
	}
}

func classifyS3Error(op string, err error) error {
	kind := StorageErrUnknown
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind = storageKindFromCode(apiErr.ErrorCode())
	}
	return &StorageError{Kind: kind, Op: op, Err: err}
}
