package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrInvalidKey is returned for keys that escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// Config holds MinIO connection settings. An empty Endpoint stores objects
// on local disk under PublicDir/img.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicDir string
}

// Client stores uploaded objects in MinIO or on local disk.
type Client struct {
	mc     *minio.Client
	bucket string
	root   string

	once      sync.Once
	bucketErr error
}

func NewClient(cfg Config) (*Client, error) {
	root := filepath.Join(cfg.PublicDir, "img")
	if cfg.Endpoint == "" {
		return &Client{root: root}, nil
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio client: bucket is required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Client{mc: mc, bucket: cfg.Bucket, root: root}, nil
}

// Remote reports whether objects go to MinIO.
func (c *Client) Remote() bool {
	return c.mc != nil
}

// Put writes data under key, e.g. "tours/tour-1-cover.jpeg".
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	if c.mc == nil {
		return c.putLocal(clean, data)
	}
	if err := c.ensureBucket(ctx); err != nil {
		return err
	}
	_, err = c.mc.PutObject(ctx, c.bucket, clean, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", clean, err)
	}
	slog.Debug("object stored", slog.String("bucket", c.bucket), slog.String("key", clean), slog.Int("size", len(data)))
	return nil
}

// Delete removes the object under key. Missing objects are not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	if c.mc == nil {
		if err := os.Remove(filepath.Join(c.root, filepath.FromSlash(clean))); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return c.mc.RemoveObject(ctx, c.bucket, clean, minio.RemoveObjectOptions{})
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.once.Do(func() {
		exists, err := c.mc.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketErr = fmt.Errorf("check bucket %s: %w", c.bucket, err)
			return
		}
		if !exists {
			if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
				c.bucketErr = fmt.Errorf("create bucket %s: %w", c.bucket, err)
			}
		}
	})
	return c.bucketErr
}

func (c *Client) putLocal(key string, data []byte) error {
	path := filepath.Join(c.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}
