package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"luvlang_server/config"
	"luvlang_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
)

// StoredObject is one entry of a bucket listing.
type StoredObject struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// ObjectStore persists uploaded media and resolves public URLs for it.
// Upload never overwrites: an existing object at path is a conflict.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, objectPath string, body io.Reader, size int64, contentType string) error
	PublicURL(bucket, objectPath string) string
	Remove(ctx context.Context, bucket, objectPath string) error
	List(ctx context.Context, bucket, prefix string) ([]StoredObject, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	PresignUpload(ctx context.Context, bucket, objectPath, contentType string, size int64, ttl time.Duration) (string, error)
}

type StorageErrorKind int

const (
	StorageErrUnknown StorageErrorKind = iota
	StorageErrBucketMissing
	StorageErrAccessDenied
	StorageErrConflict
)

func (k StorageErrorKind) String() string {
	switch k {
	case StorageErrBucketMissing:
		return "bucket_missing"
	case StorageErrAccessDenied:
		return "access_denied"
	case StorageErrConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// StorageError wraps a backend failure with its classified kind.
type StorageError struct {
	Kind StorageErrorKind
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// StorageKindOf returns the kind of a StorageError anywhere in err's chain.
func StorageKindOf(err error) StorageErrorKind {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return StorageErrUnknown
}

// storageKindFromCode maps provider error codes (S3 and MinIO share them) to kinds.
func storageKindFromCode(code string) StorageErrorKind {
	switch code {
	case "NoSuchBucket", "NotFound":
		return StorageErrBucketMissing
	case "AccessDenied", "Forbidden", "AllAccessDisabled", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return StorageErrAccessDenied
	case "PreconditionFailed", "ConditionalRequestConflict":
		return StorageErrConflict
	default:
		return StorageErrUnknown
	}
}

// UserMessage is the guidance shown to a user for a storage failure.
func UserMessage(kind StorageErrorKind) string {
	switch kind {
	case StorageErrBucketMissing:
		return "Photo storage is not set up yet. Please contact support."
	case StorageErrAccessDenied:
		return "You don't have permission to upload here. Please sign in again and retry."
	case StorageErrConflict:
		return "A file with the same name already exists. Please try again."
	default:
		return "Something went wrong while uploading. Please try again."
	}
}

// NewObjectSuffix returns a short random suffix for object names.
func NewObjectSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// BuildObjectPath synthesises "{userId}/{unix_ms}_{suffix}.{ext}". The
// extension comes from originalName, lowercased, or from contentType when the
// name has none.
func BuildObjectPath(userID, originalName, contentType string, now time.Time, suffix string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(originalName), "."))
	if ext == "" {
		ext = extensionForType(contentType)
	}
	name := fmt.Sprintf("%d_%s", now.UnixMilli(), suffix)
	if ext != "" {
		name += "." + ext
	}
	return userID + "/" + name
}

// OwnsObjectPath reports whether objectPath is a single object name directly
// under "{userId}/", the layout BuildObjectPath produces.
func OwnsObjectPath(userID, objectPath string) bool {
	if userID == "" || path.Clean(objectPath) != objectPath {
		return false
	}
	name, ok := strings.CutPrefix(objectPath, userID+"/")
	return ok && name != "" && !strings.Contains(name, "/")
}

func extensionForType(contentType string) string {
	contentType = models.NormalizeMediaType(contentType)
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	}
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return strings.TrimPrefix(exts[0], ".")
}

// joinURL appends escaped path segments to base.
func joinURL(base string, segments ...string) string {
	out := strings.TrimRight(base, "/")
	for _, seg := range segments {
		for _, part := range strings.Split(seg, "/") {
			out += "/" + url.PathEscape(part)
		}
	}
	return out
}

// ObjectPathFromURL recovers the object path from a URL produced by
// store.PublicURL for bucket. ok is false for foreign URLs.
func ObjectPathFromURL(store ObjectStore, bucket, rawURL string) (string, bool) {
	prefix := store.PublicURL(bucket, "")
	if !strings.HasPrefix(rawURL, prefix) || len(rawURL) == len(prefix) {
		return "", false
	}
	objectPath, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil {
		return "", false
	}
	return objectPath, true
}

// NewObjectStore builds the backend named by cfg.Storage.Driver.
func NewObjectStore(cfg *config.Config, awsCfg aws.Config) (ObjectStore, error) {
	if cfg.Storage.Driver == "minio" {
		return NewMinioStore(cfg.Storage.MinioEndpoint, cfg.Storage.MinioAccess, cfg.Storage.MinioSecret,
			cfg.Storage.MinioUseSSL, cfg.Storage.PublicBaseURL)
	}
	return NewS3Store(NewS3Client(awsCfg, cfg.AWS.Endpoint), cfg.AWS.Region, cfg.Storage.PublicBaseURL), nil
}
