// Package object implements media storage on any S3-compatible endpoint
// (MinIO, Cloudflare R2, AWS S3).
package object

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/ahmednader515/answer-guide-platform/core"
)

// DefaultURLExpiry is how long presigned download links stay valid.
const DefaultURLExpiry = 15 * time.Minute

type MediaStore struct {
	client *minio.Client
	conf   core.MediaConfig
}

func NewMediaStore(conf core.MediaConfig) (*MediaStore, error) {
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
		Region: conf.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	return &MediaStore{client: client, conf: conf}, nil
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (ms *MediaStore) EnsureBucket(ctx context.Context) error {
	exists, err := ms.client.BucketExists(ctx, ms.conf.Bucket)
	if err != nil {
		return errors.Wrapf(err, "checking bucket %s", ms.conf.Bucket)
	}
	if exists {
		return nil
	}
	err = ms.client.MakeBucket(ctx, ms.conf.Bucket, minio.MakeBucketOptions{Region: ms.conf.Region})
	return errors.Wrapf(err, "creating bucket %s", ms.conf.Bucket)
}

// Upload stores the content under a fresh key in the given folder and returns
// that key.
func (ms *MediaStore) Upload(ctx context.Context, folder, filename, contentType string, size int64, content io.Reader) (string, error) {
	key := ObjectKey(folder, filename)
	_, err := ms.client.PutObject(ctx, ms.conf.Bucket, key, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrapf(err, "uploading %s", key)
	}
	return key, nil
}

func (ms *MediaStore) Delete(ctx context.Context, key string) error {
	err := ms.client.RemoveObject(ctx, ms.conf.Bucket, key, minio.RemoveObjectOptions{})
	return errors.Wrapf(err, "deleting %s", key)
}

// PresignedGetURL returns a time-limited download URL for the object.
func (ms *MediaStore) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if strings.Contains(key, "..") {
		return "", errors.New("invalid object key")
	}
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	u, err := ms.client.PresignedGetObject(ctx, ms.conf.Bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrapf(err, "presigning %s", key)
	}
	return u.String(), nil
}

// PublicURL returns the stable public URL for the object when a public base is
// configured, falling back to the key itself.
func (ms *MediaStore) PublicURL(key string) string {
	if ms.conf.PublicBaseURL == "" {
		return key
	}
	return strings.TrimSuffix(ms.conf.PublicBaseURL, "/") + "/" + url.PathEscape(key)
}

// ObjectKey builds a collision-resistant object key of the form
// <folder>/<unix-nano>-<random>-<sanitized-filename>.
func ObjectKey(folder, filename string) string {
	name := sanitizeFilename(path.Base(filename))
	return fmt.Sprintf("%s/%d-%06d-%s", strings.Trim(folder, "/"), time.Now().UnixNano(), rand.Intn(1000000), name)
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
