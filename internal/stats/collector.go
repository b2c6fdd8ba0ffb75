// Package stats provides a unified interface for collecting pipeline metrics.
package stats

// Metric names used throughout the pipeline.
const (
	// Retrieval metrics.
	MetricArchivesFetched = "streaklab_archives_fetched_total"
	MetricBytesDownloaded = "streaklab_bytes_downloaded_total"
	MetricFetchRetries    = "streaklab_fetch_retries_total"

	// Processing metrics.
	MetricGamesParsed  = "streaklab_games_parsed_total"
	MetricGamesDropped = "streaklab_games_dropped_total"
	MetricGamesDeduped = "streaklab_games_deduped_total"

	// Accuracy metrics.
	MetricGamesScored    = "streaklab_games_scored_total"
	MetricGamesSkipped   = "streaklab_games_skipped_total"
	MetricEngineFailures = "streaklab_engine_failures_total"
	MetricEvalCacheHits  = "streaklab_eval_cache_hits_total"
	MetricEvalCacheMiss  = "streaklab_eval_cache_misses_total"
	MetricMoveLatency    = "streaklab_engine_move_seconds"

	// Combine metrics.
	MetricStreaksFound = "streaklab_streaks_found_total"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
