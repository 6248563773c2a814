// Package documents is the gateway to the opaque blob store holding citizen
// uploads. Handles are object names; callers never see backend details.
package documents

import (
	"context"
	"fmt"
)

// Blob is a fetched document.
type Blob struct {
	Data        []byte
	ContentType string
}

// Store persists and retrieves documents by handle. Put fails with
// sentinel.ErrConflict when the handle is taken, Get and Delete report
// sentinel.ErrNotFound for missing handles (Delete treats it as success).
type Store interface {
	Put(ctx context.Context, handle, contentType string, data []byte) error
	Get(ctx context.Context, handle string) (*Blob, error)
	Delete(ctx context.Context, handle string) error
}

// Handle builds the object name for one document of one application.
func Handle(applicationID, kind string) string {
	return fmt.Sprintf("applications/%s/%s", applicationID, kind)
}
