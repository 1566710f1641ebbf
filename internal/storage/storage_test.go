package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectStorageType(t *testing.T) {
	testCases := []struct {
		endpoint string
		want     StorageType
	}{
		{endpoint: "https://abc.r2.cloudflarestorage.com", want: StorageTypeR2},
		{endpoint: "s3.eu-west-1.amazonaws.com", want: StorageTypeS3},
		{endpoint: "", want: StorageTypeS3},
		{endpoint: "localhost:9000", want: StorageTypeS3Compatible},
	}

	for _, tc := range testCases {
		t.Run(tc.endpoint, func(t *testing.T) {
			assert.Equal(t, tc.want, detectStorageType(tc.endpoint))
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "localhost:9000", normalizeEndpoint("http://localhost:9000/"))
	assert.Equal(t, "minio.internal", normalizeEndpoint("https://minio.internal/bucket/path"))
	assert.Equal(t, "", normalizeEndpoint(""))
}

func TestGetURL(t *testing.T) {
	s, err := NewS3Storage(context.Background(), &S3Config{
		Endpoint:  "localhost:9000",
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "drops",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/archive/x.json", s.GetURL("archive/x.json"))

	s, err = NewS3Storage(context.Background(), &S3Config{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Bucket: "drops"})
	require.NoError(t, err)
	assert.Equal(t, "s3://drops/k", s.GetURL("k"))
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), &S3Config{})
	assert.Error(t, err)
}
