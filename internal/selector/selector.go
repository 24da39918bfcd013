// Package selector chooses the single candidate file to process from the
// watched directory.
//
// Two selection keys are supported. In timestamp-prefix mode the filename is
// expected to start with a 14-digit YYYYMMDDHHMMSS token and the greatest
// parsed value wins; names that fail to parse are excluded entirely. In
// mtime mode the greatest modification time wins, with the lexicographically
// greatest name as the deterministic tie-break. Selection never reads file
// contents.
package selector

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"fileferry/internal/errors"
	ferryfs "fileferry/internal/fs"
)

// Matcher decides whether a base name belongs to the watched set.
type Matcher interface {
	Match(name string) (bool, error)
}

// GlobMatcher matches base names against a filepath.Match pattern.
type GlobMatcher struct {
	Pattern string
}

func (g GlobMatcher) Match(name string) (bool, error) {
	return filepath.Match(g.Pattern, name)
}

// Candidate is an immutable snapshot of a directory entry at selection time.
type Candidate struct {
	Path    string
	Size    int64
	ModTime time.Time
	// Stamp is the parsed filename timestamp; zero when absent or when
	// prefix mode is off.
	Stamp time.Time
}

// Selector lists and picks candidate files.
type Selector struct {
	fsys            ferryfs.FS
	dir             string
	matcher         Matcher
	timestampPrefix bool
}

// New creates a Selector over dir. When timestampPrefix is true the filename
// timestamp is the selection key; otherwise mtime.
func New(fsys ferryfs.FS, dir string, matcher Matcher, timestampPrefix bool) *Selector {
	return &Selector{fsys: fsys, dir: dir, matcher: matcher, timestampPrefix: timestampPrefix}
}

// Select returns the chosen candidate, or (nil, nil) when nothing matches.
// A missing or unreadable watch directory is E_WATCH_DIR.
func (s *Selector) Select() (*Candidate, error) {
	names, err := s.fsys.Glob(s.dir, "*")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.EWatchDir, "watch directory does not exist: "+s.dir, err)
		}
		return nil, errors.Wrap(errors.EWatchDir, "failed to read watch directory: "+s.dir, err)
	}

	var candidates []Candidate
	for _, path := range names {
		base := filepath.Base(path)
		ok, err := s.matcher.Match(base)
		if err != nil {
			return nil, errors.Wrap(errors.EConfigInvalid, "bad file pattern", err)
		}
		if !ok {
			continue
		}

		var stamp time.Time
		if s.timestampPrefix {
			parsed, ok := ParseStampPrefix(base)
			if !ok {
				// Not an equal-oldest fallback: unparseable names are
				// out of consideration in prefix mode.
				continue
			}
			stamp = parsed
		}

		info, err := s.fsys.Stat(path)
		if err != nil {
			// Raced with the producer cleaning up; skip this entry.
			continue
		}
		candidates = append(candidates, Candidate{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Stamp:   stamp,
		})
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return s.less(candidates[j], candidates[i]) // descending
	})
	chosen := candidates[0]
	return &chosen, nil
}

// less orders a before b under the active selection key.
func (s *Selector) less(a, b Candidate) bool {
	if s.timestampPrefix {
		if !a.Stamp.Equal(b.Stamp) {
			return a.Stamp.Before(b.Stamp)
		}
	} else if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.Before(b.ModTime)
	}
	return filepath.Base(a.Path) < filepath.Base(b.Path)
}

// ParseStampPrefix parses a leading 14-digit YYYYMMDDHHMMSS token from name.
// The token must be a valid calendar timestamp; "20251399999999" does not
// count.
func ParseStampPrefix(name string) (time.Time, bool) {
	if len(name) < 14 {
		return time.Time{}, false
	}
	token := name[:14]
	for _, c := range token {
		if c < '0' || c > '9' {
			return time.Time{}, false
		}
	}
	t, err := time.ParseInLocation("20060102150405", token, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
