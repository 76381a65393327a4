package storageclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"

	"github.com/jakechorley/youth-roster-sync/pkg/utils"
)

type storedObject struct {
	data        []byte
	contentType string
}

// memBucket is an in-memory Bucket
type memBucket struct {
	mu       sync.Mutex
	objects  map[string]storedObject
	writeErr error
}

func newMemBucket() *memBucket {
	return &memBucket{objects: make(map[string]storedObject)}
}

func (b *memBucket) Object(name string) Object {
	return &memObject{bucket: b, name: name}
}

func (b *memBucket) Objects(ctx context.Context, q *storage.Query) ObjectIterator {
	b.mu.Lock()
	defer b.mu.Unlock()

	var names []string
	for name := range b.objects {
		if strings.HasPrefix(name, q.Prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return &memIterator{names: names}
}

type memIterator struct {
	names []string
}

func (it *memIterator) Next() (*storage.ObjectAttrs, error) {
	if len(it.names) == 0 {
		return nil, iterator.Done
	}
	name := it.names[0]
	it.names = it.names[1:]
	return &storage.ObjectAttrs{Name: name}, nil
}

type memObject struct {
	bucket *memBucket
	name   string
}

func (o *memObject) NewWriter(ctx context.Context, contentType string) io.WriteCloser {
	return &memWriter{object: o, contentType: contentType}
}

func (o *memObject) NewReader(ctx context.Context) (io.ReadCloser, error) {
	o.bucket.mu.Lock()
	defer o.bucket.mu.Unlock()

	obj, ok := o.bucket.objects[o.name]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (o *memObject) Delete(ctx context.Context) error {
	o.bucket.mu.Lock()
	defer o.bucket.mu.Unlock()

	if _, ok := o.bucket.objects[o.name]; !ok {
		return storage.ErrObjectNotExist
	}
	delete(o.bucket.objects, o.name)
	return nil
}

type memWriter struct {
	object      *memObject
	contentType string
	buf         bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) {
	if w.object.bucket.writeErr != nil {
		return 0, w.object.bucket.writeErr
	}
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	b := w.object.bucket
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.writeErr != nil {
		return b.writeErr
	}
	b.objects[w.object.name] = storedObject{data: w.buf.Bytes(), contentType: w.contentType}
	return nil
}

type failingCredentials struct{}

func (failingCredentials) Get(ctx context.Context, kind utils.CredentialKind) (*google.Credentials, error) {
	return nil, utils.ErrCredential
}

func TestPutAndGetBytes(t *testing.T) {
	bucket := newMemBucket()
	client := NewClientFromBucket(bucket, zap.NewNop())
	ctx := context.Background()

	err := client.PutBytes(ctx, "students/may/alice_1_1/photo.jpg", []byte{1, 2, 3}, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "image/png", bucket.objects["students/may/alice_1_1/photo.jpg"].contentType)

	data, err := client.GetBytes(ctx, "students/may/alice_1_1/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestPutBytes_Overwrites(t *testing.T) {
	client := NewClientFromBucket(newMemBucket(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, client.PutBytes(ctx, "media/a.png", []byte("first"), "image/png"))
	require.NoError(t, client.PutBytes(ctx, "media/a.png", []byte("second"), "image/png"))

	data, err := client.GetBytes(ctx, "media/a.png")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestPutBytes_WriteFailure(t *testing.T) {
	bucket := newMemBucket()
	bucket.writeErr = errors.New("quota exceeded")
	client := NewClientFromBucket(bucket, zap.NewNop())

	err := client.PutBytes(context.Background(), "media/a.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, ErrUpload)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, bucket.objects)
}

func TestGetBytes_NotFound(t *testing.T) {
	client := NewClientFromBucket(newMemBucket(), zap.NewNop())

	_, err := client.GetBytes(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutAndGetJSON(t *testing.T) {
	bucket := newMemBucket()
	client := NewClientFromBucket(bucket, zap.NewNop())
	ctx := context.Background()

	type doc struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, client.PutJSON(ctx, SettingsPath, doc{Name: "youth", Count: 3}))
	assert.Equal(t, jsonContentType, bucket.objects[SettingsPath].contentType)

	var got doc
	require.NoError(t, client.GetJSON(ctx, SettingsPath, &got))
	assert.Equal(t, doc{Name: "youth", Count: 3}, got)
}

func TestGetJSON_Malformed(t *testing.T) {
	bucket := newMemBucket()
	bucket.objects[ProfilePath] = storedObject{data: []byte("{not json")}
	client := NewClientFromBucket(bucket, zap.NewNop())

	var v map[string]any
	err := client.GetJSON(context.Background(), ProfilePath, &v)
	assert.ErrorIs(t, err, ErrDownload)
}

func TestDelete(t *testing.T) {
	bucket := newMemBucket()
	bucket.objects["media/a.png"] = storedObject{data: []byte("x")}
	client := NewClientFromBucket(bucket, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, client.Delete(ctx, "media/a.png"))
	assert.Empty(t, bucket.objects)

	err := client.Delete(ctx, "media/a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	bucket := newMemBucket()
	bucket.objects["students/may/a/metadata.json"] = storedObject{}
	bucket.objects["students/may/a/photo.jpg"] = storedObject{}
	bucket.objects["students/june/b/metadata.json"] = storedObject{}
	client := NewClientFromBucket(bucket, zap.NewNop())

	names, err := client.List(context.Background(), MonthPrefix("may"))
	require.NoError(t, err)
	assert.Equal(t, []string{"students/may/a/metadata.json", "students/may/a/photo.jpg"}, names)

	names, err = client.List(context.Background(), MonthPrefix("december"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestInit_CredentialFailure(t *testing.T) {
	client := NewClient(failingCredentials{}, "youth-roster-media", zap.NewNop())

	err := client.Init(context.Background())
	assert.ErrorIs(t, err, utils.ErrCredential)

	err = client.PutBytes(context.Background(), "media/a.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, utils.ErrCredential)

	assert.NoError(t, client.Close())
}
