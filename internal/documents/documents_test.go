package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landledger/pkg/platform/sentinel"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	handle := Handle("app-1", "surveyPlan")
	assert.Equal(t, "applications/app-1/surveyPlan", handle)

	require.NoError(t, store.Put(ctx, handle, ContentTypePNG, pngHeader))
	assert.ErrorIs(t, store.Put(ctx, handle, ContentTypePNG, pngHeader), sentinel.ErrConflict)

	blob, err := store.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, blob.Data)
	assert.Equal(t, ContentTypePNG, blob.ContentType)

	require.NoError(t, store.Delete(ctx, handle))
	require.NoError(t, store.Delete(ctx, handle))
	_, err = store.Get(ctx, handle)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Zero(t, store.Len())
}

func TestContentInspector(t *testing.T) {
	lenient := NewContentInspector(false)

	tests := []struct {
		name     string
		data     []byte
		wantType string
		wantOK   bool
	}{
		{"png", pngHeader, ContentTypePNG, true},
		{"jpeg", jpegHeader, ContentTypeJPEG, true},
		{"pdf header", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), ContentTypePDF, true},
		{"plain text", []byte("hello, this is not a deed"), "text/plain; charset=utf-8", false},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), "image/gif", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, ok := lenient.Inspect(tt.data)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantOK, ok)
		})
	}

	t.Run("strict mode rejects a truncated pdf", func(t *testing.T) {
		strict := NewContentInspector(true)
		gotType, ok := strict.Inspect([]byte("%PDF-1.4\nthis is not really a pdf"))
		assert.Equal(t, ContentTypePDF, gotType)
		assert.False(t, ok)
	})
}
