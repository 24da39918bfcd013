package selector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fileferry/internal/errors"
	ferryfs "fileferry/internal/fs"
)

func writeFile(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
	}
	return path
}

func TestSelect_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	s := New(ferryfs.NewRealFS(), dir, GlobMatcher{Pattern: "*.txt"}, false)

	got, err := s.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil candidate, got %+v", got)
	}
}

func TestSelect_MissingWatchDir(t *testing.T) {
	s := New(ferryfs.NewRealFS(), filepath.Join(t.TempDir(), "missing"), GlobMatcher{Pattern: "*"}, false)

	_, err := s.Select()
	if err == nil {
		t.Fatal("expected error for missing watch directory")
	}
	if errors.GetCode(err) != errors.EWatchDir {
		t.Errorf("code = %s, want E_WATCH_DIR", errors.GetCode(err))
	}
}

func TestSelect_NewestMtimeWins(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	writeFile(t, dir, "old.txt", base)
	newest := writeFile(t, dir, "new.txt", base.Add(time.Hour))
	writeFile(t, dir, "middle.txt", base.Add(time.Minute))
	writeFile(t, dir, "ignored.csv", base.Add(2*time.Hour))

	s := New(ferryfs.NewRealFS(), dir, GlobMatcher{Pattern: "*.txt"}, false)
	got, err := s.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Path != newest {
		t.Errorf("selected %+v, want %s", got, newest)
	}
}

func TestSelect_MtimeTieBreaksOnName(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	writeFile(t, dir, "aaa.txt", mtime)
	want := writeFile(t, dir, "zzz.txt", mtime)
	writeFile(t, dir, "mmm.txt", mtime)

	s := New(ferryfs.NewRealFS(), dir, GlobMatcher{Pattern: "*.txt"}, false)
	got, err := s.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Path != want {
		t.Errorf("selected %+v, want %s", got, want)
	}
}

func TestSelect_StampBeatsMtime(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	// The file with the greater filename stamp carries the OLDER mtime;
	// prefix mode must pick it anyway.
	want := writeFile(t, dir, "20250115150000_y_149-ALL.txt", base)
	writeFile(t, dir, "20250115143022_y_149-ALL.txt", base.Add(time.Hour))

	s := New(ferryfs.NewRealFS(), dir, GlobMatcher{Pattern: "*_y_149-ALL.txt"}, true)
	got, err := s.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Path != want {
		t.Errorf("selected %+v, want %s", got, want)
	}
}

func TestSelect_PrefixModeExcludesUnparseableNames(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	writeFile(t, dir, "report_final.txt", base.Add(time.Hour))
	want := writeFile(t, dir, "20250115143022_report.txt", base)

	s := New(ferryfs.NewRealFS(), dir, GlobMatcher{Pattern: "*.txt"}, true)
	got, err := s.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Path != want {
		t.Errorf("selected %+v, want %s", got, want)
	}
}

func TestSelect_PrefixModeAllUnparseable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "report.txt", time.Time{})
	writeFile(t, dir, "2025_partial.txt", time.Time{})

	s := New(ferryfs.NewRealFS(), dir, GlobMatcher{Pattern: "*.txt"}, true)
	got, err := s.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil candidate, got %+v", got)
	}
}

func TestParseStampPrefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"valid", "20250115143022_y.txt", time.Date(2025, 1, 15, 14, 30, 22, 0, time.UTC), true},
		{"exactly 14 digits", "20250115143022", time.Date(2025, 1, 15, 14, 30, 22, 0, time.UTC), true},
		{"too short", "2025011514", time.Time{}, false},
		{"non-digit in token", "2025011514302x_y.txt", time.Time{}, false},
		{"digits but not a date", "20251399999999_y.txt", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStampPrefix(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("stamp = %v, want %v", got, tt.want)
			}
		})
	}
}
