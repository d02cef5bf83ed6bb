package adapter

import (
	"context"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

const gcsScheme = "gs://"

// Storage is the interface for blob storage of input files and conversation history
type Storage interface {
	// Put returns a writer to save an object
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get returns a reader of an object
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// storageClient implements Storage interface using Cloud Storage
type storageClient struct {
	bucketName string
	client     *storage.Client
}

// NewStorage creates a new Cloud Storage client
func NewStorage(ctx context.Context, bucketName string) (Storage, error) {
	return newStorageClient(ctx, bucketName)
}

func newStorageClient(ctx context.Context, bucketName string) (*storageClient, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &storageClient{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (s *storageClient) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	bucket := s.client.Bucket(s.bucketName)
	obj := bucket.Object(key)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"
	return writer, nil
}

func (s *storageClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	bucket := s.client.Bucket(s.bucketName)
	obj := bucket.Object(key)
	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("bucket", s.bucketName), goerr.V("key", key))
	}

	return reader, nil
}

// ParseObjectURL splits "gs://bucket/path/to/object" into bucket and key.
// ok is false for anything that is not a Cloud Storage URL.
func ParseObjectURL(location string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(location, gcsScheme)
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Open reads a local file or a gs:// object
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if strings.HasPrefix(location, gcsScheme) {
		bucket, key, ok := ParseObjectURL(location)
		if !ok {
			return nil, goerr.New("invalid cloud storage url", goerr.V("location", location))
		}
		st, err := newStorageClient(ctx, bucket)
		if err != nil {
			return nil, err
		}
		r, err := st.Get(ctx, key)
		if err != nil {
			st.client.Close()
			return nil, err
		}
		return &objectReader{ReadCloser: r, client: st.client}, nil
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open file", goerr.V("path", location))
	}
	return f, nil
}

// Create writes a local file or a gs:// object. The object is committed on Close.
func Create(ctx context.Context, location string) (io.WriteCloser, error) {
	if strings.HasPrefix(location, gcsScheme) {
		bucket, key, ok := ParseObjectURL(location)
		if !ok {
			return nil, goerr.New("invalid cloud storage url", goerr.V("location", location))
		}
		st, err := newStorageClient(ctx, bucket)
		if err != nil {
			return nil, err
		}
		w, err := st.Put(ctx, key)
		if err != nil {
			st.client.Close()
			return nil, err
		}
		return &objectWriter{WriteCloser: w, client: st.client}, nil
	}

	f, err := os.Create(location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create file", goerr.V("path", location))
	}
	return f, nil
}

// objectReader closes the client opened for a single object along with the object
type objectReader struct {
	io.ReadCloser
	client *storage.Client
}

func (r *objectReader) Close() error {
	return closeWithClient(r.ReadCloser, r.client)
}

// objectWriter commits the object and then closes its client
type objectWriter struct {
	io.WriteCloser
	client *storage.Client
}

func (w *objectWriter) Close() error {
	return closeWithClient(w.WriteCloser, w.client)
}

func closeWithClient(c io.Closer, client *storage.Client) error {
	if err := c.Close(); err != nil {
		client.Close()
		return goerr.Wrap(err, "failed to close object")
	}
	if err := client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage client")
	}
	return nil
}
