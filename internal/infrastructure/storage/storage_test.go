package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 records PUTs and answers HEADs for a single path-style bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[r.URL.Path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeStorage(t *testing.T) (*S3ObjectStorage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3ObjectStorage(context.Background(), config.StorageConfig{
		Bucket:          "quotes",
		Endpoint:        srv.URL,
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
		KeyPrefix:       "quotes/",
		PresignExpiry:   5 * time.Minute,
	})
	require.NoError(t, err)
	return s, fake
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	_, err := NewS3ObjectStorage(context.Background(), config.StorageConfig{})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3ObjectStorage(context.Background(), config.StorageConfig{Bucket: "b", AccessKeyID: "k"})
	assert.ErrorContains(t, err, "secret access key")
}

func TestS3ObjectStorage_PutAndExists(t *testing.T) {
	s, fake := newFakeStorage(t)
	ctx := context.Background()
	tenantID := uuid.New()
	key := s.Key(tenantID, "Q-20260101-0001", "pdf")
	assert.Equal(t, "quotes/"+tenantID.String()+"/Q-20260101-0001.pdf", key)

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Put(ctx, key, []byte("%PDF-1.7"), "application/pdf"))
	assert.Equal(t, []byte("%PDF-1.7"), fake.objects["/quotes/"+key])
	assert.Equal(t, "application/pdf", fake.types["/quotes/"+key])

	exists, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Error(t, s.Put(ctx, "", nil, "application/pdf"))
}

func TestS3ObjectStorage_PresignGet(t *testing.T) {
	s, _ := newFakeStorage(t)
	url, err := s.PresignGet(context.Background(), "quotes/a/Q-1.pdf")
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "/quotes/quotes/a/Q-1.pdf"), url)
	assert.Contains(t, url, "X-Amz-Expires=300")
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestMemoryObjectStorage(t *testing.T) {
	m := NewMemoryObjectStorage("q/")
	ctx := context.Background()
	key := m.Key(uuid.Nil, "Q-1", ".html")
	assert.Equal(t, "q/00000000-0000-0000-0000-000000000000/Q-1.html", key)

	_, err := m.PresignGet(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, m.Put(ctx, key, []byte("<html>"), "text/html"))
	data, ct, err := m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "<html>", string(data))
	assert.Equal(t, "text/html", ct)

	url, err := m.PresignGet(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "memory://"+key, url)
}
