package streaklab

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/streaklab/internal/accuracy"
	"github.com/discochess/streaklab/internal/analysis"
	"github.com/discochess/streaklab/internal/chesscom"
	"github.com/discochess/streaklab/internal/dataset"
	"github.com/discochess/streaklab/internal/pgn"
	"github.com/discochess/streaklab/internal/stats"
	"github.com/discochess/streaklab/internal/streak"
	"github.com/discochess/streaklab/internal/tables"
)

// FetchPlayer downloads every monthly archive in the configured date
// range that is not yet on disk.
func (p *Pipeline) FetchPlayer(ctx context.Context, player string) error {
	archives, err := p.client.Archives(ctx, player)
	if err != nil {
		return fmt.Errorf("listing archives for %s: %w", player, err)
	}

	var from, to string
	if !p.opts.from.IsZero() {
		from = p.opts.from.Format("2006-01")
	}
	if !p.opts.to.IsZero() {
		to = p.opts.to.Format("2006-01")
	}
	archives = chesscom.FilterByRange(archives, from, to)

	dir := p.rawDir(player)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating raw directory: %w", err)
	}

	missing, err := chesscom.Validate(dir, archives)
	if err != nil {
		return err
	}

	p.logger.Info("fetching archives",
		zap.String("player", player),
		zap.Int("total", len(archives)),
		zap.Int("missing", len(missing)),
	)

	for _, archiveURL := range archives {
		month, err := chesscom.ArchiveMonth(archiveURL)
		if err != nil {
			return err
		}
		if !slices.Contains(missing, month) {
			continue
		}
		path, err := p.client.DownloadArchive(ctx, archiveURL, dir)
		if err != nil {
			return fmt.Errorf("downloading %s for %s: %w", month, player, err)
		}
		p.stats.IncCounter(stats.MetricArchivesFetched, 1)
		p.logger.Info("archive downloaded",
			zap.String("player", player),
			zap.String("month", month),
			zap.String("path", path),
		)
	}
	return nil
}

// ProcessPlayer consolidates the raw archives into one sorted,
// deduplicated, annotated PGN plus the CSV dataset and its manifest.
func (p *Pipeline) ProcessPlayer(ctx context.Context, player string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rawFiles, err := filepath.Glob(filepath.Join(p.rawDir(player), "*.pgn"))
	if err != nil {
		return fmt.Errorf("listing raw archives: %w", err)
	}
	if len(rawFiles) == 0 {
		return fmt.Errorf("no raw archives for %s in %s", player, p.rawDir(player))
	}
	sort.Strings(rawFiles)

	var games []pgn.RawGame
	var months []string
	for _, path := range rawFiles {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening archive %s: %w", path, err)
		}
		fileGames, err := pgn.Split(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("splitting archive %s: %w", path, err)
		}
		games = append(games, fileGames...)
		month := filepath.Base(path)
		months = append(months, month[:len(month)-len(filepath.Ext(month))])
	}

	pgn.SortChronological(games)
	games, dropped := pgn.Dedup(games)
	p.stats.IncCounter(stats.MetricGamesDeduped, int64(dropped))
	games = pgn.Annotate(games)

	consolidated := p.consolidatedPath(player)
	f, err := os.Create(consolidated)
	if err != nil {
		return fmt.Errorf("creating consolidated PGN: %w", err)
	}
	if err := pgn.Write(f, games); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing consolidated PGN: %w", err)
	}

	p.logger.Info("archives consolidated",
		zap.String("player", player),
		zap.Int("games", len(games)),
		zap.Int("duplicates", dropped),
	)

	builder := dataset.NewBuilder(player,
		dataset.WithAliases(p.opts.aliases[player]...),
		dataset.WithLogger(p.logger),
		dataset.WithStats(p.stats),
	)
	in, err := os.Open(consolidated)
	if err != nil {
		return fmt.Errorf("opening consolidated PGN: %w", err)
	}
	ds, report, err := builder.Build(in)
	in.Close()
	if err != nil {
		return err
	}

	if err := dataset.SaveCSV(p.datasetPath(player), ds); err != nil {
		return err
	}
	if err := p.writeDropReport(player, report); err != nil {
		return err
	}
	return dataset.WriteManifest(p.playerDir(player), &dataset.Manifest{
		Version:      dataset.ManifestVersion,
		Player:       player,
		GameCount:    len(ds.Games),
		DroppedCount: len(report.Dropped),
		Archives:     months,
		BuiltAt:      time.Now().UTC(),
	})
}

func (p *Pipeline) writeDropReport(player string, report *dataset.DropReport) error {
	f, err := os.Create(p.droppedPath(player))
	if err != nil {
		return fmt.Errorf("creating drop report: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "index,game_id,reason"); err != nil {
		return err
	}
	for _, d := range report.Dropped {
		if _, err := fmt.Fprintf(f, "%d,%s,%s\n", d.Index, d.GameID, d.Reason); err != nil {
			return err
		}
	}
	return nil
}

// TabulatePlayer derives the structured tables from the dataset:
// per-day win rates, per-opening results, win-streak listings and the
// streak frequency table.
func (p *Pipeline) TabulatePlayer(player string) error {
	ds, err := dataset.LoadCSV(p.datasetPath(player))
	if err != nil {
		return fmt.Errorf("loading dataset for %s: %w", player, err)
	}

	dir := p.tablesDir(player)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating tables directory: %w", err)
	}

	if err := writeTable(filepath.Join(dir, "per_day.csv"), func(f *os.File) error {
		return tables.WritePerDay(f, tables.PerDay(ds))
	}); err != nil {
		return err
	}
	if err := writeTable(filepath.Join(dir, "per_opening.csv"), func(f *os.File) error {
		return tables.WritePerOpening(f, tables.PerOpening(ds))
	}); err != nil {
		return err
	}

	filtered := ds.FilterTimeClass(p.opts.timeClass)
	streaks, details := tables.WinStreaks(filtered.Games)

	if err := writeTable(filepath.Join(dir, "streaks_unordered.csv"), func(f *os.File) error {
		return tables.WriteStreaks(f, streaks)
	}); err != nil {
		return err
	}
	if err := writeTable(filepath.Join(dir, "streaks_ordered.csv"), func(f *os.File) error {
		return tables.WriteStreaks(f, tables.Ordered(streaks))
	}); err != nil {
		return err
	}
	if err := writeTable(filepath.Join(dir, "streak_details.csv"), func(f *os.File) error {
		return tables.WriteDetails(f, details)
	}); err != nil {
		return err
	}
	if err := writeTable(p.frequenciesPath(player), func(f *os.File) error {
		return tables.WriteFrequencies(f, tables.FrequencyTable(streaks))
	}); err != nil {
		return err
	}

	p.logger.Info("tables written",
		zap.String("player", player),
		zap.String("timeClass", p.opts.timeClass),
		zap.Int("games", len(filtered.Games)),
		zap.Int("streaks", len(streaks)),
	)
	return nil
}

func writeTable(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating table %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing table %s: %w", path, err)
	}
	return nil
}

// AccuracyPlayer scores every unprocessed game in the player's
// consolidated PGN, resuming from the checkpoint if present.
func (p *Pipeline) AccuracyPlayer(ctx context.Context, player string) error {
	if p.opts.enginePath == "" {
		return ErrNoEngine
	}

	in, err := os.Open(p.consolidatedPath(player))
	if err != nil {
		return fmt.Errorf("opening consolidated PGN for %s: %w", player, err)
	}
	defer in.Close()

	runner := accuracy.NewRunner(
		p.accuracyPath(player),
		p.checkpointPath(player),
		accuracy.EngineFactory(p.opts.enginePath, p.opts.engineOpts...),
		accuracy.WithLogger(p.logger),
		accuracy.WithStats(p.stats),
	)
	return runner.Run(ctx, in)
}

// AnalyzePlayer summarizes the streak frequency table and renders the
// box plot.
func (p *Pipeline) AnalyzePlayer(player string) error {
	f, err := os.Open(p.frequenciesPath(player))
	if err != nil {
		return fmt.Errorf("opening frequency table for %s: %w", player, err)
	}
	rows, err := tables.ReadFrequencies(f)
	f.Close()
	if err != nil {
		return err
	}

	summary := analysis.Summarize(rows)
	p.logger.Info("streak summary",
		zap.String("player", player),
		zap.Int("n", summary.N),
		zap.Float64("mean", summary.Mean),
		zap.Float64("median", summary.Median),
		zap.Float64("mode", summary.Mode),
		zap.Float64("min", summary.Min),
		zap.Float64("max", summary.Max),
		zap.Float64("q1", summary.Q1),
		zap.Float64("q3", summary.Q3),
		zap.Float64("p99", summary.P99),
		zap.Float64("highestStreak", summary.HighestStreak),
		zap.Int("highestStreakFreq", summary.HighestStreakFreq),
	)

	if summary.N == 0 {
		p.logger.Warn("no streaks to plot", zap.String("player", player))
		return nil
	}

	if err := os.MkdirAll(p.plotsDir(), 0755); err != nil {
		return fmt.Errorf("creating plots directory: %w", err)
	}
	plotPath := filepath.Join(p.plotsDir(), player+"_boxplot.png")
	return analysis.RenderBoxPlot(rows, player, plotPath)
}

// Combine merges every player's result sequence into the dashboard
// table of streak-length frequencies and publishes it through the
// uploader, if one is configured.
func (p *Pipeline) Combine(ctx context.Context) error {
	freqs := make(map[string][]streak.Frequency, len(p.opts.players))
	for _, player := range p.opts.players {
		ds, err := dataset.LoadCSV(p.datasetPath(player))
		if err != nil {
			return fmt.Errorf("loading dataset for %s: %w", player, err)
		}
		filtered := ds.FilterTimeClass(p.opts.timeClass)

		records := streak.Partition(filtered.Games)
		p.stats.IncCounter(stats.MetricStreaksFound, int64(len(records)))
		freqs[player] = streak.Frequencies(records)
	}

	rows := streak.Merge(p.opts.players, freqs)
	if err := p.writeDashboard(rows); err != nil {
		return err
	}

	p.logger.Info("dashboard table written",
		zap.String("path", p.dashboardPath()),
		zap.Int("rows", len(rows)),
	)

	if p.uploader == nil {
		return nil
	}
	return p.publish(ctx)
}

func (p *Pipeline) writeDashboard(rows []streak.PlayerRow) error {
	f, err := os.Create(p.dashboardPath())
	if err != nil {
		return fmt.Errorf("creating dashboard table: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "player,result,length,frequency"); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(f, "%s,%s,%d,%d\n", r.Player, r.Result, r.Length, r.Frequency); err != nil {
			return err
		}
	}
	return nil
}

// publish uploads the dashboard table and every rendered plot.
func (p *Pipeline) publish(ctx context.Context) error {
	if err := p.uploadFile(ctx, "dashboard.csv", p.dashboardPath()); err != nil {
		return err
	}

	plots, err := filepath.Glob(filepath.Join(p.plotsDir(), "*.png"))
	if err != nil {
		return fmt.Errorf("listing plots: %w", err)
	}
	for _, plot := range plots {
		if err := p.uploadFile(ctx, filepath.Base(plot), plot); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) uploadFile(ctx context.Context, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := p.uploader.Upload(ctx, name, f); err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	p.logger.Info("artifact uploaded", zap.String("name", name))
	return nil
}

