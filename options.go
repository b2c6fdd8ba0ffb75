package streaklab

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/streaklab/internal/engine"
	"github.com/discochess/streaklab/internal/pgn"
	"github.com/discochess/streaklab/internal/stats"
	"github.com/discochess/streaklab/internal/upload"
)

// Option configures a Pipeline.
type Option interface {
	apply(*options)
}

// options holds the pipeline configuration.
type options struct {
	dataDir    string
	players    []string
	aliases    map[string][]string
	from       time.Time
	to         time.Time
	timeClass  string
	enginePath string
	engineOpts []engine.Option
	uploader   upload.Uploader
	httpClient *http.Client
	baseURL    string
	stats      stats.Collector
	logger     *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		dataDir:   "data",
		aliases:   map[string][]string{},
		timeClass: pgn.TimeClassBlitz,
		stats:     stats.NewNoop(),
		logger:    zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithDataDir sets the root directory for all pipeline files.
// Default is "data".
func WithDataDir(dir string) Option {
	return optionFunc(func(o *options) {
		o.dataDir = dir
	})
}

// WithPlayers sets the player handles to process, in order.
func WithPlayers(players ...string) Option {
	return optionFunc(func(o *options) {
		o.players = append(o.players, players...)
	})
}

// WithAliases registers additional names a player appears under in PGN
// headers (e.g. "Nakamura, Hikaru" for the handle "hikaru").
func WithAliases(player string, aliases ...string) Option {
	return optionFunc(func(o *options) {
		o.aliases[player] = append(o.aliases[player], aliases...)
	})
}

// WithDateRange restricts retrieval to archives within [from, to].
// Zero times leave the corresponding bound open.
func WithDateRange(from, to time.Time) Option {
	return optionFunc(func(o *options) {
		o.from = from
		o.to = to
	})
}

// WithTimeClass sets the time control class the streak analysis runs
// on. Default is blitz.
func WithTimeClass(class string) Option {
	return optionFunc(func(o *options) {
		o.timeClass = class
	})
}

// WithEngine sets the UCI engine binary used for accuracy scoring,
// plus its options. Without it the accuracy stage fails.
func WithEngine(path string, engineOpts ...engine.Option) Option {
	return optionFunc(func(o *options) {
		o.enginePath = path
		o.engineOpts = engineOpts
	})
}

// WithUploader sets the destination for dashboard artifacts.
// If not set, artifacts stay in the data directory only.
func WithUploader(u upload.Uploader) Option {
	return optionFunc(func(o *options) {
		o.uploader = u
	})
}

// WithHTTPClient sets the HTTP client used for archive retrieval.
func WithHTTPClient(c *http.Client) Option {
	return optionFunc(func(o *options) {
		o.httpClient = c
	})
}

// WithArchiveBaseURL overrides the archive service base URL.
// Intended for tests.
func WithArchiveBaseURL(url string) Option {
	return optionFunc(func(o *options) {
		o.baseURL = url
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}
