package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestDownloader_DownloadToFile(t *testing.T) {
	content := strings.Repeat("pgn data\n", 100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, content)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "2024-01.pgn")
	d := NewDownloader(WithHTTPClient(server.Client()))

	var last Progress
	err := d.DownloadToFile(context.Background(), server.URL, dest, func(p Progress) { last = p })
	if err != nil {
		t.Fatalf("DownloadToFile() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != content {
		t.Errorf("downloaded %d bytes, want %d", len(got), len(content))
	}
	if last.BytesDownloaded != int64(len(content)) {
		t.Errorf("progress reported %d bytes, want %d", last.BytesDownloaded, len(content))
	}
}

func TestDownloader_ResumesPartialFile(t *testing.T) {
	content := "0123456789abcdefghij"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			fmt.Fprint(w, content)
			return
		}
		var start int64
		if _, err := fmt.Sscanf(rangeHeader, "bytes=%d-", &start); err != nil {
			t.Errorf("bad Range header %q", rangeHeader)
		}
		w.Header().Set("Content-Range",
			"bytes "+strconv.FormatInt(start, 10)+"-"+strconv.Itoa(len(content)-1)+"/"+strconv.Itoa(len(content)))
		w.WriteHeader(http.StatusPartialContent)
		fmt.Fprint(w, content[start:])
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "partial.pgn")
	if err := os.WriteFile(dest, []byte(content[:8]), 0644); err != nil {
		t.Fatal(err)
	}

	d := NewDownloader(WithHTTPClient(server.Client()))
	if err := d.DownloadToFile(context.Background(), server.URL, dest, nil); err != nil {
		t.Fatalf("DownloadToFile() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("resumed file = %q, want %q", got, content)
	}
}

func TestDownloader_FullResendOverwritesPartial(t *testing.T) {
	content := "0123456789abcdefghij"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Ignore the Range header and resend the whole body.
		fmt.Fprint(w, content)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "partial.pgn")
	if err := os.WriteFile(dest, []byte(content[:8]), 0644); err != nil {
		t.Fatal(err)
	}

	d := NewDownloader(WithHTTPClient(server.Client()))
	if err := d.DownloadToFile(context.Background(), server.URL, dest, nil); err != nil {
		t.Fatalf("DownloadToFile() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("file = %q, want %q", got, content)
	}
}

func TestDownloader_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "missing.pgn")
	d := NewDownloader(WithHTTPClient(server.Client()))

	err := d.DownloadToFile(context.Background(), server.URL, dest, nil)
	if err == nil {
		t.Fatal("DownloadToFile() expected error for 404, got nil")
	}
}
