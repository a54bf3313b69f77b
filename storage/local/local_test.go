package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/portfolio/storage"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s
}

func TestNewStorage_CreatesThumbnailDir(t *testing.T) {
	s := newStorage(t)
	info, err := os.Stat(filepath.Join(s.BasePath(), "thumbnails"))
	if err != nil {
		t.Fatalf("thumbnails dir missing: %v", err)
	}
	if !info.IsDir() {
		t.Error("thumbnails should be a directory")
	}
}

func TestPutOpenDelete(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	if err := s.Put(ctx, "abc.png", strings.NewReader("original"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, storage.ThumbnailKey("abc.png"), strings.NewReader("thumb"), "image/jpeg"); err != nil {
		t.Fatalf("Put thumbnail: %v", err)
	}

	rc, err := s.Open(ctx, "abc.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "original" {
		t.Errorf("content = %q", data)
	}

	ok, err := s.Exists(ctx, "thumbnails/abc.png")
	if err != nil || !ok {
		t.Errorf("Exists thumbnail = %v, %v", ok, err)
	}

	existed, err := s.Delete(ctx, "abc.png")
	if err != nil || !existed {
		t.Errorf("first Delete = %v, %v", existed, err)
	}
	existed, err = s.Delete(ctx, "abc.png")
	if err != nil || existed {
		t.Errorf("second Delete = %v, %v; want false, nil", existed, err)
	}
}

func TestPut_KeepsExistingObject(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	if err := s.Put(ctx, "k.gif", strings.NewReader("one"), ""); err != nil {
		t.Fatal(err)
	}
	err := s.Put(ctx, "k.gif", strings.NewReader("two"), "")
	if !errors.Is(err, storage.ErrExists) {
		t.Fatalf("second Put err = %v, want ErrExists", err)
	}

	data, err := os.ReadFile(filepath.Join(s.BasePath(), "k.gif"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "one" {
		t.Errorf("content = %q, want original bytes", data)
	}
	entries, err := os.ReadDir(s.BasePath())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".upload-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestOpen_Missing(t *testing.T) {
	s := newStorage(t)
	_, err := s.Open(context.Background(), "nope.png")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestOpen_DirectoryIsNotFound(t *testing.T) {
	s := newStorage(t)
	_, err := s.Open(context.Background(), "thumbnails")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	for _, key := range []string{"../escape.png", "/etc/passwd", "a/../../b", "", `..\x.png`} {
		if err := s.Put(ctx, key, strings.NewReader("x"), ""); !errors.Is(err, storage.ErrWrite) {
			t.Errorf("Put(%q) err = %v, want ErrWrite", key, err)
		}
		if _, err := s.Delete(ctx, key); !errors.Is(err, storage.ErrDelete) {
			t.Errorf("Delete(%q) err = %v, want ErrDelete", key, err)
		}
	}
}

func TestURL(t *testing.T) {
	s := newStorage(t)
	if got := s.URL("abc.png"); got != "/uploads/abc.png" {
		t.Errorf("URL = %q", got)
	}
	if got := s.URL(storage.ThumbnailKey("abc.png")); got != "/uploads/thumbnails/abc.png" {
		t.Errorf("thumbnail URL = %q", got)
	}
}

func TestPing(t *testing.T) {
	s := newStorage(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	os.RemoveAll(s.BasePath())
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping should fail once the directory is gone")
	}
}
