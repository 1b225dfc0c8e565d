package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://apartment-listings.s3.eu-central-1.amazonaws.com", PublicBaseURL("apartment-listings", "eu-central-1", ""))
	assert.Equal(t, "http://localhost:9000/apartment-listings", PublicBaseURL("apartment-listings", "eu-central-1", "http://localhost:9000/"))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage("http://cdn", "uploads/")

	require.NoError(t, s.Save(ctx, "uploads/a.png", strings.NewReader("png"), "image/png"))
	b, ct, ok := s.Object("uploads/a.png")
	require.True(t, ok)
	assert.Equal(t, "png", string(b))
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, "http://cdn/uploads/a.png", s.URL("uploads/a.png"))
	assert.Equal(t, "uploads/", s.Prefix())

	require.NoError(t, s.Delete(ctx, "uploads/a.png"))
	assert.Equal(t, 0, s.Len())
}
