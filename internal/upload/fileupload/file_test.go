package fileupload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/discochess/streaklab/internal/codec/gzipcodec"
)

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	u, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer u.Close()

	content := "player,result,length,frequency\nhikaru,win,2,14\n"
	if err := u.Upload(context.Background(), "dashboard.csv", strings.NewReader(content)); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "dashboard.csv"))
	if err != nil {
		t.Fatalf("reading uploaded file: %v", err)
	}
	if string(data) != content {
		t.Errorf("uploaded content = %q, want %q", data, content)
	}
}

func TestUpload_WithCodec(t *testing.T) {
	dir := t.TempDir()
	u, err := New(dir, WithCodec(gzipcodec.New()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer u.Close()

	if err := u.Upload(context.Background(), "dashboard.csv", strings.NewReader("data")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	// Compressed artifact carries the codec extension.
	if _, err := os.Stat(filepath.Join(dir, "dashboard.csv.gz")); err != nil {
		t.Errorf("compressed artifact not found: %v", err)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	u, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer u.Close()

	ctx := context.Background()
	for _, name := range []string{"dashboard.csv", "hikaru_boxplot.png"} {
		if err := u.Upload(ctx, name, strings.NewReader("x")); err != nil {
			t.Fatalf("Upload(%s) error = %v", name, err)
		}
	}

	names, err := u.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"dashboard.csv", "hikaru_boxplot.png"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestUpload_ContextCanceled(t *testing.T) {
	u, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer u.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := u.Upload(ctx, "x", strings.NewReader("y")); err != context.Canceled {
		t.Errorf("Upload() error = %v, want context.Canceled", err)
	}
}
