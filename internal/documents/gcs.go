package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"landledger/pkg/platform/sentinel"
)

// GCSStore keeps documents in a Google Cloud Storage bucket.
type GCSStore struct {
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSStore wraps an existing client. prefix is prepended to every handle.
func NewGCSStore(client *storage.Client, bucket, prefix string) *GCSStore {
	return &GCSStore{bucket: client.Bucket(bucket), prefix: prefix}
}

func (s *GCSStore) object(handle string) *storage.ObjectHandle {
	return s.bucket.Object(s.prefix + handle)
}

// Put writes only when the object does not exist yet, so a handle is never
// silently overwritten.
func (s *GCSStore) Put(ctx context.Context, handle, contentType string, data []byte) error {
	w := s.object(handle).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return translateGCSError(err, "write document")
	}
	if err := w.Close(); err != nil {
		return translateGCSError(err, "finalize document")
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, handle string) (*Blob, error) {
	r, err := s.object(handle).NewReader(ctx)
	if err != nil {
		return nil, translateGCSError(err, "open document")
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return &Blob{Data: data, ContentType: r.Attrs.ContentType}, nil
}

func (s *GCSStore) Delete(ctx context.Context, handle string) error {
	err := s.object(handle).Delete(ctx)
	if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return translateGCSError(err, "delete document")
}

func translateGCSError(err error, op string) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusPreconditionFailed:
			return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
		case gerr.Code == http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
		case gerr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%s: %w: %v", op, sentinel.ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
