// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sdukit/sdukit/pkg/coord"
)

type (
	// S3Config configures an S3-compatible repository.
	S3Config struct {
		Endpoint  string
		Region    string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
		// Prefix is prepended to every object key.
		Prefix string
		// CacheDir receives downloaded objects, mirroring their keys.
		CacheDir string
	}

	// S3 reads artifacts from a bucket and downloads them into a local cache
	// directory. Objects already present in the cache are not downloaded again.
	S3 struct {
		client   *minio.Client
		bucket   string
		prefix   string
		cacheDir string

		checkOnce sync.Once
		checkErr  error
	}
)

// NewS3 validates cfg and creates the client. No request is made until the
// first lookup.
func NewS3(cfg S3Config) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if strings.TrimSpace(cfg.CacheDir) == "" {
		return nil, errors.New("s3 cache directory is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	// empty keys make the static provider sign anonymously
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3{
		client:   client,
		bucket:   bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		cacheDir: cfg.CacheDir,
	}, nil
}

// Versions implements Store by listing the "directories" under the
// artifact's key prefix.
func (s *S3) Versions(ctx context.Context, c coord.Coordinate) ([]string, error) {
	if err := s.checkBucket(ctx); err != nil {
		return nil, err
	}
	prefix := s.key(ArtifactDir(c)) + "/"
	seen := make(map[string]bool)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list versions of %s: %w", c.Key(), obj.Err)
		}
		if v := versionFromKey(prefix, obj.Key); v != "" {
			seen[v] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// Fetch implements Store.
func (s *S3) Fetch(ctx context.Context, c coord.Coordinate) (string, error) {
	key := s.key(ObjectPath(c))
	local := filepath.Join(s.cacheDir, filepath.FromSlash(key))
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local, nil
	}
	if err := s.checkBucket(ctx); err != nil {
		return "", err
	}

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%s: %w", c, ErrNotFound)
		}
		return "", fmt.Errorf("stat s3://%s/%s: %w", s.bucket, key, err)
	}
	if err := s.client.FGetObject(ctx, s.bucket, key, local, minio.GetObjectOptions{}); err != nil {
		return "", fmt.Errorf("download s3://%s/%s: %w", s.bucket, key, err)
	}
	return local, nil
}

func (s *S3) checkBucket(ctx context.Context) error {
	s.checkOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		switch {
		case err != nil:
			s.checkErr = fmt.Errorf("check bucket %s: %w", s.bucket, err)
		case !exists:
			s.checkErr = fmt.Errorf("bucket %s does not exist", s.bucket)
		}
	})
	return s.checkErr
}

func (s *S3) key(p string) string {
	if s.prefix == "" {
		return p
	}
	return path.Join(s.prefix, p)
}

// versionFromKey returns the first path segment below prefix. Non-recursive
// listings report sub-prefixes with a trailing slash.
func versionFromKey(prefix, key string) string {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok {
		return ""
	}
	v, _, found := strings.Cut(rest, "/")
	if !found {
		return ""
	}
	return v
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket" || code == "NotFound"
}
