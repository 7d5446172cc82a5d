package s3storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(Config{Bucket: "evidence"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Endpoint is required")

	_, err = New(Config{Endpoint: "s3.local:9000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bucket is required")
}

func TestStorage_GetPublicURL(t *testing.T) {
	s, err := New(Config{Endpoint: "s3.local:9000", Bucket: "evidence"})
	require.NoError(t, err)
	assert.Equal(t, "http://s3.local:9000/evidence/jobs/j-1/photo.jpg",
		s.GetPublicURL("jobs/j-1/photo.jpg"))

	s, err = New(Config{Endpoint: "s3.example.com", Bucket: "evidence", UseSSL: true})
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com/evidence/jobs/j-1/photo.jpg",
		s.GetPublicURL("jobs/j-1/photo.jpg"))
}

func TestStorage_GetPublicURL_CDNOverride(t *testing.T) {
	s, err := New(Config{
		Endpoint:      "s3.local:9000",
		Bucket:        "evidence",
		PublicBaseURL: "https://media.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/jobs/j-1/photo.jpg",
		s.GetPublicURL("jobs/j-1/photo.jpg"))
}
