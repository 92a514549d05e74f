package localfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadObject(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "http://localhost:8080/files/")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.UploadObject(context.Background(), "images/1-abc.png", strings.NewReader("png"), "image/png"); err != nil {
		t.Fatalf("UploadObject: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "images", "1-abc.png"))
	if err != nil || string(data) != "png" {
		t.Fatalf("expected stored file, got %q, %v", data, err)
	}

	err = s.UploadObject(context.Background(), "images/1-abc.png", strings.NewReader("other"), "image/png")
	if !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}

	if got := s.PublicURL("images/1-abc.png"); got != "http://localhost:8080/files/images/1-abc.png" {
		t.Errorf("unexpected public url %s", got)
	}
}

func TestUploadObject_StaysInsideRoot(t *testing.T) {
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "root"), "/files")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UploadObject(context.Background(), "../../escape.txt", strings.NewReader("x"), ""); err != nil {
		t.Fatalf("UploadObject: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "root", "escape.txt")); err != nil {
		t.Errorf("expected file clamped inside root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); err == nil {
		t.Error("file escaped the storage root")
	}
}

func TestUploadObject_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir, "/files")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.UploadObject(ctx, "videos/a.mp4", strings.NewReader("data"), "video/mp4"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "videos", "a.mp4")); !os.IsNotExist(err) {
		t.Error("partial file left behind")
	}
}

func TestNew_EmptyDir(t *testing.T) {
	if _, err := New("", "/files"); err == nil {
		t.Error("expected error")
	}
}
