package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"sitedesk-backend/internal/blob"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	key := "sites/1/photo.png"
	if err := s.Put(ctx, key, strings.NewReader("png-bytes"), "image/png"); err != nil {
		t.Fatal(err)
	}
	rc, ct, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "png-bytes" || ct != "image/png" {
		t.Fatalf("Get = %q %q", data, ct)
	}

	// overwrite replaces content
	if err := s.Put(ctx, key, strings.NewReader("v2"), "image/png"); err != nil {
		t.Fatal(err)
	}
	rc, _, _ = s.Get(ctx, key)
	data, _ = io.ReadAll(rc)
	rc.Close()
	if string(data) != "v2" {
		t.Fatalf("after overwrite = %q", data)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get(ctx, key); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete err = %v", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "../outside.jpg", "/etc/passwd", "a/../../b"} {
		if err := s.Put(ctx, key, strings.NewReader("x"), ""); err == nil {
			t.Errorf("Put(%q) succeeded", key)
		}
	}
}
