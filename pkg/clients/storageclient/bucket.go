package storageclient

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
)

// Bucket is the subset of *storage.BucketHandle the client uses
type Bucket interface {
	Object(name string) Object
	Objects(ctx context.Context, q *storage.Query) ObjectIterator
}

// Object is the subset of *storage.ObjectHandle the client uses
type Object interface {
	NewWriter(ctx context.Context, contentType string) io.WriteCloser
	NewReader(ctx context.Context) (io.ReadCloser, error)
	Delete(ctx context.Context) error
}

// ObjectIterator is satisfied by *storage.ObjectIterator
type ObjectIterator interface {
	Next() (*storage.ObjectAttrs, error)
}

type gcsBucket struct {
	handle *storage.BucketHandle
}

func newGCSBucket(client *storage.Client, name string) Bucket {
	return &gcsBucket{handle: client.Bucket(name)}
}

func (b *gcsBucket) Object(name string) Object {
	return &gcsObject{handle: b.handle.Object(name)}
}

func (b *gcsBucket) Objects(ctx context.Context, q *storage.Query) ObjectIterator {
	return b.handle.Objects(ctx, q)
}

type gcsObject struct {
	handle *storage.ObjectHandle
}

func (o *gcsObject) NewWriter(ctx context.Context, contentType string) io.WriteCloser {
	w := o.handle.NewWriter(ctx)
	w.ContentType = contentType
	return w
}

func (o *gcsObject) NewReader(ctx context.Context) (io.ReadCloser, error) {
	return o.handle.NewReader(ctx)
}

func (o *gcsObject) Delete(ctx context.Context) error {
	return o.handle.Delete(ctx)
}
