package s3

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"sitedesk-backend/internal/blob"
)

type object struct {
	body        []byte
	contentType string
}

// fakeS3 understands path-style PutObject, GetObject and DeleteObject.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]object
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = object{body: body, contentType: r.Header.Get("Content-Type")}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		_, _ = w.Write(obj.body)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStore(t *testing.T) (*Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string]object)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), Config{
		Region:          "eu-central-1",
		Bucket:          "photos",
		Endpoint:        srv.URL,
		PathStyle:       true,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		HTTPClient:      srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s, fake
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, fake := newStore(t)

	if err := s.Put(ctx, "sites/2/a.jpg", strings.NewReader("jpeg-bytes"), "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	if obj, ok := fake.objects["photos/sites/2/a.jpg"]; !ok || string(obj.body) != "jpeg-bytes" {
		t.Fatalf("stored objects = %v", fake.objects)
	}

	rc, ct, err := s.Get(ctx, "sites/2/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "jpeg-bytes" || ct != "image/jpeg" {
		t.Fatalf("Get = %q %q", data, ct)
	}

	if err := s.Delete(ctx, "sites/2/a.jpg"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get(ctx, "sites/2/a.jpg"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}
