// Package fs provides the filesystem seam for fileferry.
//
// Every pipeline stage that touches disk goes through the FS interface so
// tests can run against an in-memory stub instead of a real directory tree.
package fs

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FS is the filesystem capability surface used by the pipeline.
type FS interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	Stat(path string) (fs.FileInfo, error)
	Rename(oldpath, newpath string) error
	Remove(path string) error
	MkdirAll(path string, perm os.FileMode) error
	// Glob returns the names of files in dir whose base name matches
	// pattern (filepath.Match syntax). Directories are excluded.
	Glob(dir, pattern string) ([]string, error)
}

// RealFS implements FS against the host filesystem.
type RealFS struct{}

// NewRealFS returns an FS backed by the os package.
func NewRealFS() FS {
	return RealFS{}
}

func (RealFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (RealFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (RealFS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

func (RealFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (RealFS) Remove(path string) error { return os.Remove(path) }

func (RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (RealFS) Glob(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, filepath.Join(dir, e.Name()))
		}
	}
	return matches, nil
}
