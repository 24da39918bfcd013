package cycle

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"fileferry/internal/archive"
	"fileferry/internal/config"
	"fileferry/internal/errors"
	ferryfs "fileferry/internal/fs"
	"fileferry/internal/retry"
	"fileferry/internal/selector"
	"fileferry/internal/stability"
	"fileferry/internal/transform"
	"fileferry/internal/upload"
)

type nullSleeper struct{}

func (nullSleeper) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func pipelineConfig(watchDir, archiveDir, endpoint string) config.Config {
	return config.Config{
		Files: config.FilesConfig{
			WatchDir:        watchDir,
			Pattern:         "*_y_149-ALL.txt",
			TimestampPrefix: true,
		},
		Stability: config.StabilityConfig{QuietPeriodSecs: 1, MaxWaitSecs: 10},
		Transform: config.TransformConfig{
			Enabled:    true,
			Format:     "tsv",
			Header:     []string{"Plant", "Delivery", "Material"},
			Trim:       true,
			Dedupe:     true,
			LineEnding: "lf",
		},
		API: config.APIConfig{
			Endpoint:    endpoint,
			Mode:        "multipart",
			FieldName:   "file",
			TimeoutSecs: 5,
			Auth:        "none",
		},
		Retry:   config.RetryConfig{MaxAttempts: 3, BaseDelaySecs: 1, Multiplier: 2, MaxDelaySecs: 30},
		Archive: config.ArchiveConfig{Enabled: true, Dir: archiveDir},
		Log:     config.LogConfig{Level: "info", Format: "text"},
	}
}

func newController(t *testing.T, cfg config.Config) *Controller {
	t.Helper()
	fsys := ferryfs.NewRealFS()
	log := testLogger()
	sleeper := nullSleeper{}

	client, err := upload.NewClient(cfg.API, log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay(),
		Multiplier:  cfg.Retry.Multiplier,
		MaxDelay:    cfg.Retry.MaxDelay(),
	}

	deps := Deps{
		FS:       fsys,
		Sleeper:  sleeper,
		Selector: selector.New(fsys, cfg.Files.WatchDir, selector.GlobMatcher{Pattern: cfg.Files.Pattern}, cfg.Files.TimestampPrefix),
		Gate:     stability.New(fsys, sleeper, cfg.Stability.PollInterval(), cfg.Stability.MaxWait()),
		Engine:   transform.New(cfg.Transform),
		Uploader: upload.New(client, policy, sleeper, log),
		Log:      log,
	}
	if cfg.Archive.Enabled {
		deps.Archiver = archive.New(fsys, cfg.Archive.Dir)
	}
	return New(cfg, deps)
}

const rawReport = "Plant\tDelivery\tMaterial\n" +
	" PLT01 \t80001234\t9876543210\n" +
	"PLT01\t80001234\t9876543210\n"

func TestRunOnce_FullPipeline(t *testing.T) {
	tmp := t.TempDir()
	watchDir := filepath.Join(tmp, "watch")
	archiveDir := filepath.Join(tmp, "archive")
	if err := os.MkdirAll(watchDir, 0o755); err != nil {
		t.Fatal(err)
	}
	srcName := "20250115143022_y_149-ALL.txt"
	if err := os.WriteFile(filepath.Join(watchDir, srcName), []byte(rawReport), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotFilename string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotBody, _ = io.ReadAll(file)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctrl := newController(t, pipelineConfig(watchDir, archiveDir, srv.URL))
	result, err := ctrl.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != Processed {
		t.Fatalf("status = %v (err %v), want Processed", result.Status, result.Err)
	}

	if gotFilename != srcName {
		t.Errorf("uploaded filename = %q", gotFilename)
	}
	// Transform trimmed and deduplicated the two payload rows.
	want := "Plant\tDelivery\tMaterial\nPLT01\t80001234\t9876543210\n"
	if string(gotBody) != want {
		t.Errorf("uploaded body = %q, want %q", gotBody, want)
	}

	if _, err := os.Stat(filepath.Join(watchDir, srcName)); !os.IsNotExist(err) {
		t.Error("source file still in watch dir after archiving")
	}
	if _, err := os.Stat(filepath.Join(archiveDir, srcName)); err != nil {
		t.Errorf("archived file missing: %v", err)
	}
}

func TestRunOnce_NoMatchingFile(t *testing.T) {
	tmp := t.TempDir()
	watchDir := filepath.Join(tmp, "watch")
	if err := os.MkdirAll(watchDir, 0o755); err != nil {
		t.Fatal(err)
	}

	ctrl := newController(t, pipelineConfig(watchDir, filepath.Join(tmp, "archive"), "http://unused.invalid"))
	result, err := ctrl.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != NoFile {
		t.Errorf("status = %v, want NoFile", result.Status)
	}
}

func TestRunOnce_TransformFailureLeavesFile(t *testing.T) {
	tmp := t.TempDir()
	watchDir := filepath.Join(tmp, "watch")
	if err := os.MkdirAll(watchDir, 0o755); err != nil {
		t.Fatal(err)
	}
	srcName := "20250115143022_y_149-ALL.txt"
	srcPath := filepath.Join(watchDir, srcName)
	if err := os.WriteFile(srcPath, []byte("Wrong\tHeader\tRow\nx\ty\tz\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	ctrl := newController(t, pipelineConfig(watchDir, filepath.Join(tmp, "archive"), srv.URL))
	result, err := ctrl.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != TransformFailed {
		t.Fatalf("status = %v, want TransformFailed", result.Status)
	}
	if errors.GetCode(result.Err) != errors.EHeaderMismatch {
		t.Errorf("code = %s, want E_HEADER_MISMATCH", errors.GetCode(result.Err))
	}
	if requests.Load() != 0 {
		t.Error("nothing should be uploaded after a transform failure")
	}
	if _, err := os.Stat(srcPath); err != nil {
		t.Errorf("file should stay in place for inspection: %v", err)
	}
}

func TestRunOnce_UploadRejectionLeavesFile(t *testing.T) {
	tmp := t.TempDir()
	watchDir := filepath.Join(tmp, "watch")
	if err := os.MkdirAll(watchDir, 0o755); err != nil {
		t.Fatal(err)
	}
	srcName := "20250115143022_y_149-ALL.txt"
	srcPath := filepath.Join(watchDir, srcName)
	if err := os.WriteFile(srcPath, []byte(rawReport), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	ctrl := newController(t, pipelineConfig(watchDir, filepath.Join(tmp, "archive"), srv.URL))
	result, err := ctrl.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != UploadFailed {
		t.Fatalf("status = %v, want UploadFailed", result.Status)
	}
	if errors.GetCode(result.Err) != errors.EUploadFatal {
		t.Errorf("code = %s, want E_UPLOAD_FATAL", errors.GetCode(result.Err))
	}
	if _, err := os.Stat(srcPath); err != nil {
		t.Errorf("file should stay in place after upload failure: %v", err)
	}
}

func TestLoop_SinglePassSurfacesFailure(t *testing.T) {
	tmp := t.TempDir()
	watchDir := filepath.Join(tmp, "watch")
	if err := os.MkdirAll(watchDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(watchDir, "20250115143022_y_149-ALL.txt"), []byte(rawReport), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := pipelineConfig(watchDir, filepath.Join(tmp, "archive"), srv.URL)
	cfg.Loop.IntervalSeconds = 0

	err := newController(t, cfg).Loop(context.Background())
	if errors.GetCode(err) != errors.EUploadFatal {
		t.Errorf("code = %s, want E_UPLOAD_FATAL (err: %v)", errors.GetCode(err), err)
	}
}

func TestLoop_CancelledBetweenCycles(t *testing.T) {
	tmp := t.TempDir()
	watchDir := filepath.Join(tmp, "watch")
	if err := os.MkdirAll(watchDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := pipelineConfig(watchDir, filepath.Join(tmp, "archive"), "http://unused.invalid")
	cfg.Loop.IntervalSeconds = 300

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// First cycle is NoFile; the cancelled context stops the inter-cycle sleep.
	err := newController(t, cfg).Loop(ctx)
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestStatus_String(t *testing.T) {
	if Processed.String() != "processed" || NoFile.String() != "no_file" || NotStable.String() != "not_stable" {
		t.Error("unexpected Status string values")
	}
}
