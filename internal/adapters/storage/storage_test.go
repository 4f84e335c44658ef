package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/greencycle-be/internal/adapters/storage"
	"github.com/ammerola/greencycle-be/test/helpers"
)

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
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newS3Store(t *testing.T, baseURL string) (*storage.S3ImageStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:           "ap-northeast-2",
		Credentials:      credentials.NewStaticCredentialsProvider("test", "test", ""),
		EndpointResolver: s3.EndpointResolverFromURL(srv.URL),
		UsePathStyle:     true,
	})
	cfg := &storage.S3Config{Region: "ap-northeast-2", Bucket: "greencycle-images", PublicBaseURL: baseURL}
	return storage.NewS3ImageStoreWithClient(client, cfg, helpers.TestLogger()), fake
}

func TestS3ImageStore_Upload(t *testing.T) {
	store, fake := newS3Store(t, "https://cdn.greencycle.kr/")

	url, err := store.Upload(context.Background(), "items/abc/photo.jpg", strings.NewReader("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.greencycle.kr/items/abc/photo.jpg", url)
	assert.Equal(t, []byte("jpeg-bytes"), fake.objects["/greencycle-images/items/abc/photo.jpg"])
	assert.Equal(t, "image/jpeg", fake.types["/greencycle-images/items/abc/photo.jpg"])
}

func TestS3ImageStore_UploadLocationAndDelete(t *testing.T) {
	store, fake := newS3Store(t, "")
	ctx := context.Background()

	url, err := store.Upload(ctx, "items/abc/photo.png", strings.NewReader("png"), "")
	require.NoError(t, err)
	assert.Contains(t, url, "/greencycle-images/items/abc/photo.png")
	assert.Equal(t, "image/png", fake.types["/greencycle-images/items/abc/photo.png"])

	require.NoError(t, store.Delete(ctx, "items/abc/photo.png"))
	assert.NotContains(t, fake.objects, "/greencycle-images/items/abc/photo.png")
}

func TestLocalImageStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := storage.NewLocalImageStore(root, "http://localhost:8080/images/", helpers.TestLogger())

	url, err := store.Upload(ctx, "items/1/a.jpg", strings.NewReader("data"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/images/items/1/a.jpg", url)

	data, err := os.ReadFile(filepath.Join(root, "items", "1", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	require.NoError(t, store.Delete(ctx, "items/1/a.jpg"))
	require.NoError(t, store.Delete(ctx, "items/1/a.jpg"))
	_, err = os.Stat(filepath.Join(root, "items", "1", "a.jpg"))
	assert.True(t, os.IsNotExist(err))

	_, err = store.Upload(ctx, "../escape.jpg", strings.NewReader("x"), "image/jpeg")
	assert.ErrorContains(t, err, "invalid image key")
}
