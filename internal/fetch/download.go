// Package fetch implements a resumable HTTP downloader used by the
// archive retriever.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultResponseHeaderTimeout is the default timeout for receiving response headers.
const DefaultResponseHeaderTimeout = 30 * time.Second

// Progress reports download progress.
type Progress struct {
	BytesDownloaded int64
	BytesTotal      int64
}

// ProgressFunc is called periodically with progress updates.
type ProgressFunc func(Progress)

// Downloader handles downloading files with resume support.
type Downloader struct {
	client *http.Client
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		d.client = client
	}
}

// NewDownloader creates a new Downloader with sensible defaults.
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Timeout: 0, // No overall timeout - we handle it per-request.
			Transport: &http.Transport{
				ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download opens a download stream for url, resuming from the size of
// any partial file already at destPath. It returns the body, the total
// size, and the offset the stream starts at. The offset is zero when
// the server ignored the Range request and resent the whole body.
func (d *Downloader) Download(ctx context.Context, url string, destPath string) (io.ReadCloser, int64, int64, error) {
	// Check if partial file exists.
	var existingSize int64
	if info, err := os.Stat(destPath); err == nil {
		existingSize = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("creating request: %w", err)
	}

	if existingSize > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", existingSize))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("downloading: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, 0, 0, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var totalSize, offset int64
	if resp.StatusCode == http.StatusPartialContent {
		offset = existingSize
		// Parse Content-Range header. Format: bytes 0-999/1234
		contentRange := resp.Header.Get("Content-Range")
		if contentRange != "" {
			var start, end int64
			_, err := fmt.Sscanf(contentRange, "bytes %d-%d/%d", &start, &end, &totalSize)
			if err != nil {
				totalSize = existingSize + resp.ContentLength
			}
		}
	} else {
		totalSize = resp.ContentLength
	}

	return resp.Body, totalSize, offset, nil
}

// DownloadToFile downloads a URL directly to a file, appending to a
// partial file when the server honors the Range request.
func (d *Downloader) DownloadToFile(ctx context.Context, url string, destPath string, progress ProgressFunc) error {
	body, totalSize, offset, err := d.Download(ctx, url, destPath)
	if err != nil {
		return err
	}
	defer body.Close()

	// Append only when the stream actually resumes; a server that
	// resent the whole body overwrites the partial file.
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if offset > 0 {
		flags = os.O_WRONLY | os.O_APPEND
	}

	file, err := os.OpenFile(destPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, 32*1024)
	downloaded := offset

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("writing file: %w", writeErr)
			}
			downloaded += int64(n)

			if progress != nil {
				progress(Progress{
					BytesDownloaded: downloaded,
					BytesTotal:      totalSize,
				})
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
	}

	return nil
}
