package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	appconfig "event-photo-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "events/e1/photos/p1.jpg", PhotoKey("e1", "p1"))
	assert.Equal(t, "events/e1/cover/c1.jpg", CoverKey("e1", "c1"))

	assert.True(t, IsCoverKey("e1", CoverKey("e1", "c1")))
	assert.False(t, IsCoverKey("e2", CoverKey("e1", "c1")))
	assert.False(t, IsCoverKey("e1", PhotoKey("e1", "p1")))
	assert.False(t, IsCoverKey("e1", "events/e1/cover/.jpg"))
	assert.False(t, IsCoverKey("e1", "events/e1/cover/a/b.jpg"))
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "https://s3.local:9000", endpointURL("s3.local:9000", false))
	assert.Equal(t, "http://s3.local:9000", endpointURL("s3.local:9000", true))
	assert.Equal(t, "http://minio:9000", endpointURL("http://minio:9000", false))
}

func TestPresignPut(t *testing.T) {
	store, err := NewS3Store(context.Background(), appconfig.AWSConfig{
		Region:     "us-east-1",
		S3Bucket:   "photos",
		AccessKey:  "AKIDEXAMPLE",
		SecretKey:  "secret",
		Endpoint:   "minio.local:9000",
		DisableSSL: true,
		PresignTTL: 2 * time.Minute,
	})
	require.NoError(t, err)

	url, err := store.PresignPut(context.Background(), PhotoKey("e1", "p1"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://minio.local:9000/photos/events/e1/photos/p1.jpg"), url)
	assert.Contains(t, url, "X-Amz-Expires=120")
	assert.Equal(t, 2*time.Minute, store.TTL())
	assert.Equal(t, "https://photos.s3.us-east-1.amazonaws.com/k", store.ObjectURL("k"))
}
