package streaklab

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/discochess/streaklab/internal/dataset"
	"github.com/discochess/streaklab/internal/upload/fileupload"
)

func archiveGame(day, hour int, white, black, result string) string {
	return fmt.Sprintf(`[Event "Live Chess"]
[Site "Chess.com"]
[White "%s"]
[Black "%s"]
[Result "%s"]
[WhiteElo "3200"]
[BlackElo "2800"]
[TimeControl "300"]
[UTCDate "2024.01.%02d"]
[UTCTime "%02d:00:00"]
[Link "https://www.chess.com/game/live/%d"]

1. e4 e5 2. Nf3 Nc6 %s

`, white, black, result, day, hour, day*100+hour, result)
}

// testServer serves an archive index with one month plus its PGN.
func testServer(t *testing.T, player, pgnBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/player/"+player+"/games/archives", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"archives":[%q]}`, srv.URL+"/player/"+player+"/games/2024/01")
	})
	mux.HandleFunc("/player/"+player+"/games/2024/01/pgn", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pgnBody)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPipelineRun(t *testing.T) {
	// Result sequence for hikaru as white: W W L W.
	archive := archiveGame(1, 10, "hikaru", "opp", "1-0") +
		archiveGame(1, 11, "hikaru", "opp", "1-0") +
		archiveGame(2, 10, "hikaru", "opp", "0-1") +
		archiveGame(2, 11, "hikaru", "opp", "1-0")

	srv := testServer(t, "hikaru", archive)
	dataDir := t.TempDir()
	uploadDir := t.TempDir()

	uploader, err := fileupload.New(uploadDir)
	if err != nil {
		t.Fatal(err)
	}

	pipe, err := New(
		WithDataDir(dataDir),
		WithPlayers("hikaru"),
		WithArchiveBaseURL(srv.URL),
		WithUploader(uploader),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer pipe.Close()

	if err := pipe.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Dataset has all four games in chronological order.
	ds, err := dataset.LoadCSV(filepath.Join(dataDir, "hikaru", "dataset.csv"))
	if err != nil {
		t.Fatalf("loading dataset: %v", err)
	}
	if len(ds.Games) != 4 {
		t.Fatalf("dataset has %d games, want 4", len(ds.Games))
	}
	wantResults := []dataset.Result{dataset.Win, dataset.Win, dataset.Loss, dataset.Win}
	for i, want := range wantResults {
		if ds.Games[i].Result != want {
			t.Errorf("game %d result = %s, want %s", i+1, ds.Games[i].Result, want)
		}
		if ds.Games[i].ID != i+1 {
			t.Errorf("game %d ID = %d, want %d", i+1, ds.Games[i].ID, i+1)
		}
	}

	// Dashboard table buckets the streaks: (win,2) (loss,1) (win,1).
	dashboard, err := os.ReadFile(filepath.Join(dataDir, "dashboard.csv"))
	if err != nil {
		t.Fatalf("reading dashboard: %v", err)
	}
	want := "player,result,length,frequency\n" +
		"hikaru,win,1,1\n" +
		"hikaru,win,2,1\n" +
		"hikaru,loss,1,1\n"
	if string(dashboard) != want {
		t.Errorf("dashboard = %q, want %q", dashboard, want)
	}

	// Dashboard was published through the uploader.
	uploaded, err := os.ReadFile(filepath.Join(uploadDir, "dashboard.csv"))
	if err != nil {
		t.Fatalf("reading uploaded dashboard: %v", err)
	}
	if string(uploaded) != want {
		t.Errorf("uploaded dashboard differs from local table")
	}

	// Manifest reflects the build.
	m, err := dataset.ReadManifest(filepath.Join(dataDir, "hikaru"))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if m.GameCount != 4 || m.Player != "hikaru" {
		t.Errorf("manifest = %+v", m)
	}
}

func TestPipelineRun_Reprocessing(t *testing.T) {
	archive := archiveGame(1, 10, "hikaru", "opp", "1-0") +
		archiveGame(1, 11, "opp", "hikaru", "1/2-1/2")

	srv := testServer(t, "hikaru", archive)
	dataDir := t.TempDir()

	pipe, err := New(
		WithDataDir(dataDir),
		WithPlayers("hikaru"),
		WithArchiveBaseURL(srv.URL),
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := pipe.FetchPlayer(ctx, "hikaru"); err != nil {
		t.Fatalf("FetchPlayer() error = %v", err)
	}

	run := func() []byte {
		if err := pipe.ProcessPlayer(ctx, "hikaru"); err != nil {
			t.Fatalf("ProcessPlayer() error = %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dataDir, "hikaru", "consolidated.pgn"))
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	first := run()
	second := run()
	if string(first) != string(second) {
		t.Error("reprocessing the same archives produced a different consolidated PGN")
	}
}

func TestPipelineRun_ExtendedRangeFetchesNewMonths(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/player/hikaru/games/archives", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"archives":[%q,%q]}`,
			srv.URL+"/player/hikaru/games/2024/01",
			srv.URL+"/player/hikaru/games/2024/02")
	})
	mux.HandleFunc("/player/hikaru/games/2024/01/pgn", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, archiveGame(1, 10, "hikaru", "opponent", "1-0"))
	})
	mux.HandleFunc("/player/hikaru/games/2024/02/pgn", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, archiveGame(2, 10, "hikaru", "opponent", "0-1"))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	dataDir := t.TempDir()
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	newPipe := func(to time.Time) *Pipeline {
		pipe, err := New(
			WithDataDir(dataDir),
			WithPlayers("hikaru"),
			WithArchiveBaseURL(srv.URL),
			WithHTTPClient(srv.Client()),
			WithDateRange(jan, to),
		)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		return pipe
	}

	if err := newPipe(jan).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rawDir := filepath.Join(dataDir, "hikaru", "raw")
	if _, err := os.Stat(filepath.Join(rawDir, "2024-01.pgn")); err != nil {
		t.Fatalf("2024-01 archive not downloaded: %v", err)
	}
	if _, err := os.Stat(filepath.Join(rawDir, "2024-02.pgn")); !os.IsNotExist(err) {
		t.Fatal("2024-02 archive downloaded outside the configured range")
	}

	// Extending the range on an existing data dir must fetch the new month.
	if err := newPipe(feb).Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(rawDir, "2024-02.pgn")); err != nil {
		t.Errorf("extended range did not fetch 2024-02: %v", err)
	}
}

func TestPipelineRun_SkipsCompletedStages(t *testing.T) {
	archive := archiveGame(1, 10, "hikaru", "opp", "1-0")
	srv := testServer(t, "hikaru", archive)
	dataDir := t.TempDir()

	pipe, err := New(
		WithDataDir(dataDir),
		WithPlayers("hikaru"),
		WithArchiveBaseURL(srv.URL),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := pipe.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	// The second run must not re-download: poison the PGN endpoint.
	srv.Close()
	if err := pipe.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
}

func TestNew_NoPlayers(t *testing.T) {
	if _, err := New(); err != ErrNoPlayers {
		t.Errorf("New() error = %v, want ErrNoPlayers", err)
	}
}

func TestPipelineRun_UnknownPlayer(t *testing.T) {
	srv := testServer(t, "hikaru", "")
	pipe, err := New(
		WithDataDir(t.TempDir()),
		WithPlayers("nobody"),
		WithArchiveBaseURL(srv.URL),
	)
	if err != nil {
		t.Fatal(err)
	}

	err = pipe.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Run() error = %v, want player-not-found", err)
	}
}
