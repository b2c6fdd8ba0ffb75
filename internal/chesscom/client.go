// Package chesscom implements a client for the Chess.com published-data API.
//
// The API is read-only and unauthenticated. Two endpoints are used: the
// per-player archive index and the per-month PGN download.
package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/streaklab/internal/fetch"
	"github.com/discochess/streaklab/internal/stats"
)

// DefaultBaseURL is the Chess.com published-data API root.
const DefaultBaseURL = "https://api.chess.com/pub"

// userAgent identifies the client per the API's fair-use policy.
const userAgent = "streaklab/1.0"

// Sentinel errors for well-defined API failure modes.
var (
	// ErrPlayerNotFound indicates the player handle is unknown.
	ErrPlayerNotFound = errors.New("chesscom: player not found")

	// ErrRateLimited indicates the API rejected the request with 429
	// after all retry attempts were exhausted.
	ErrRateLimited = errors.New("chesscom: rate limited")
)

const (
	maxAttempts  = 3
	retryBackoff = 2 * time.Second
)

// Client accesses the Chess.com published-data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	downloader *fetch.Downloader
	logger     *zap.Logger
	stats      stats.Collector
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (used in tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		c.downloader = fetch.NewDownloader(fetch.WithHTTPClient(client))
	}
}

// WithLogger sets the logger. If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithStats sets the stats collector. If not set, metrics are dropped.
func WithStats(s stats.Collector) Option {
	return func(c *Client) { c.stats = s }
}

// NewClient creates a new API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     zap.NewNop(),
		stats:      stats.NewNoop(),
		backoff:    retryBackoff,
	}
	c.downloader = fetch.NewDownloader(fetch.WithHTTPClient(c.httpClient))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// archivesResponse is the wire format of the archive index endpoint.
type archivesResponse struct {
	Archives []string `json:"archives"`
}

// Archives returns the list of monthly archive URLs for a player,
// oldest first as the API guarantees.
func (c *Client) Archives(ctx context.Context, player string) ([]string, error) {
	url := fmt.Sprintf("%s/player/%s/games/archives", c.baseURL, player)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching archive index for %s: %w", player, err)
	}

	var resp archivesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing archive index for %s: %w", player, err)
	}

	return resp.Archives, nil
}

// ArchiveMonth extracts the "YYYY-MM" month from an archive URL.
// Archive URLs end in ".../games/{YYYY}/{MM}".
func ArchiveMonth(archiveURL string) (string, error) {
	parts := strings.Split(strings.TrimSuffix(archiveURL, "/"), "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("malformed archive URL %q", archiveURL)
	}
	year, month := parts[len(parts)-2], parts[len(parts)-1]
	if len(year) != 4 || len(month) != 2 {
		return "", fmt.Errorf("malformed archive URL %q", archiveURL)
	}
	return year + "-" + month, nil
}

// FilterByRange keeps archive URLs whose month falls in [from, to].
// Bounds are "YYYY-MM" strings; an empty bound is open.
func FilterByRange(archives []string, from, to string) []string {
	var kept []string
	for _, a := range archives {
		month, err := ArchiveMonth(a)
		if err != nil {
			continue
		}
		if from != "" && month < from {
			continue
		}
		if to != "" && month > to {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// DownloadArchive downloads one monthly archive in PGN form into destDir.
// The file is named "{YYYY-MM}.pgn". Partial downloads are resumed.
func (c *Client) DownloadArchive(ctx context.Context, archiveURL, destDir string) (string, error) {
	month, err := ArchiveMonth(archiveURL)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, month+".pgn")
	pgnURL := archiveURL + "/pgn"

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = c.downloader.DownloadToFile(ctx, pgnURL, destPath, nil)
		if lastErr == nil {
			if info, err := os.Stat(destPath); err == nil {
				c.stats.IncCounter(stats.MetricBytesDownloaded, info.Size())
			}
			c.logger.Debug("archive downloaded",
				zap.String("month", month),
				zap.String("path", destPath),
			)
			return destPath, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Warn("archive download failed",
			zap.String("month", month),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt < maxAttempts {
			c.stats.IncCounter(stats.MetricFetchRetries, 1)
			select {
			case <-time.After(time.Duration(attempt) * c.backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("downloading %s: %w", pgnURL, lastErr)
}

// Validate checks that every archive in the list has a non-empty file in dir.
// It returns the months that are missing or empty.
func Validate(dir string, archives []string) ([]string, error) {
	var missing []string
	for _, a := range archives {
		month, err := ArchiveMonth(a)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(filepath.Join(dir, month+".pgn"))
		if err != nil || info.Size() == 0 {
			missing = append(missing, month)
		}
	}
	return missing, nil
}

// get issues a GET with the fixed retry policy and returns the body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, retryAfter, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// 404 is definitive, retrying will not help.
		if errors.Is(err, ErrPlayerNotFound) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt < maxAttempts {
			c.stats.IncCounter(stats.MetricFetchRetries, 1)
			wait := time.Duration(attempt) * c.backoff
			if retryAfter > wait {
				wait = retryAfter
			}
			c.logger.Warn("request failed, retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, 0, fmt.Errorf("reading response: %w", err)
		}
		return body, 0, nil
	case http.StatusNotFound:
		return nil, 0, ErrPlayerNotFound
	case http.StatusTooManyRequests:
		var retryAfter time.Duration
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, retryAfter, ErrRateLimited
	default:
		return nil, 0, fmt.Errorf("unexpected status: %s", resp.Status)
	}
}
