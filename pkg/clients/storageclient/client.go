package storageclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/jakechorley/youth-roster-sync/pkg/utils"
)

const jsonContentType = "application/json"

var (
	ErrNotFound = errors.New("object not found")
	ErrUpload   = errors.New("upload failed")
	ErrDownload = errors.New("download failed")
)

// CredentialSource provides scoped Google credentials
type CredentialSource interface {
	Get(ctx context.Context, kind utils.CredentialKind) (*google.Credentials, error)
}

// Client stores blobs and JSON documents in a single GCS bucket
// The GCS client is created on first use with the storage service account
type Client struct {
	credentials CredentialSource
	bucketName  string
	logger      *zap.Logger

	mu     sync.Mutex
	gcs    *storage.Client
	bucket Bucket
}

// NewClient creates a storage client for bucketName
func NewClient(credentials CredentialSource, bucketName string, logger *zap.Logger) *Client {
	return &Client{
		credentials: credentials,
		bucketName:  bucketName,
		logger:      logger,
	}
}

// NewClientFromBucket creates a storage client around an existing bucket
func NewClientFromBucket(bucket Bucket, logger *zap.Logger) *Client {
	return &Client{
		bucket: bucket,
		logger: logger,
	}
}

// Init creates the GCS client if it does not exist yet
func (c *Client) Init(ctx context.Context) error {
	_, err := c.handle(ctx)
	return err
}

func (c *Client) handle(ctx context.Context) (Bucket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bucket != nil {
		return c.bucket, nil
	}

	creds, err := c.credentials.Get(ctx, utils.KindStorage)
	if err != nil {
		return nil, err
	}

	gcs, err := storage.NewClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create storage client: %v", utils.ErrCredential, err)
	}

	c.logger.Debug("Storage client initialized", zap.String("bucket", c.bucketName))

	c.gcs = gcs
	c.bucket = newGCSBucket(gcs, c.bucketName)
	return c.bucket, nil
}

// PutBytes writes data to path, replacing any existing object
func (c *Client) PutBytes(ctx context.Context, path string, data []byte, contentType string) error {
	bucket, err := c.handle(ctx)
	if err != nil {
		return err
	}

	// Cancelling the context aborts the upload instead of committing a partial object
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := bucket.Object(path).NewWriter(writeCtx, contentType)
	if _, err := w.Write(data); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("%w: failed to write %s: %v", ErrUpload, path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: failed to finalize %s: %v", ErrUpload, path, err)
	}

	c.logger.Debug("Uploaded object",
		zap.String("path", path),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)))

	return nil
}

// GetBytes reads the object at path
func (c *Client) GetBytes(ctx context.Context, path string) ([]byte, error) {
	bucket, err := c.handle(ctx)
	if err != nil {
		return nil, err
	}

	r, err := bucket.Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrDownload, path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrDownload, path, err)
	}

	return data, nil
}

// PutJSON writes v as an indented JSON document
func (c *Client) PutJSON(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %v", ErrUpload, path, err)
	}
	return c.PutBytes(ctx, path, data, jsonContentType)
}

// GetJSON reads the JSON document at path into v
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	data, err := c.GetBytes(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", ErrDownload, path, err)
	}
	return nil
}

// Delete removes the object at path
func (c *Client) Delete(ctx context.Context, path string) error {
	bucket, err := c.handle(ctx)
	if err != nil {
		return err
	}

	if err := bucket.Object(path).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: failed to delete %s: %v", ErrUpload, path, err)
	}

	return nil
}

// List returns the names of all objects under prefix
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	bucket, err := c.handle(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	it := bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list %s: %v", ErrDownload, prefix, err)
		}
		names = append(names, attrs.Name)
	}

	return names, nil
}

// Close releases the GCS client if one was created
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gcs == nil {
		return nil
	}

	err := c.gcs.Close()
	c.gcs = nil
	c.bucket = nil
	return err
}
