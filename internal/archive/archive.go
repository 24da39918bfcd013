// Package archive relocates successfully processed files.
//
// Archiving is a move, not a copy: on success the file exists in the archive
// directory under its original name (or a numbered variant on collision) and
// no longer exists at the source path.
package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fileferry/internal/errors"
	ferryfs "fileferry/internal/fs"
)

// maxCollisionProbes bounds the numbered-suffix search.
const maxCollisionProbes = 1000

// Archiver moves files into the archive directory.
type Archiver struct {
	fsys ferryfs.FS
	dir  string
}

// New creates an Archiver targeting dir.
func New(fsys ferryfs.FS, dir string) *Archiver {
	return &Archiver{fsys: fsys, dir: dir}
}

// Move relocates path into the archive directory and returns the
// destination. An existing archived file of the same name is never
// overwritten; a numeric suffix disambiguates.
func (a *Archiver) Move(path string) (string, error) {
	if err := a.fsys.MkdirAll(a.dir, 0o755); err != nil {
		return "", errors.Wrap(errors.EArchiveFailed, "failed to create archive directory: "+a.dir, err)
	}

	dest, err := a.resolveDest(filepath.Base(path))
	if err != nil {
		return "", err
	}

	if err := a.fsys.Rename(path, dest); err != nil {
		// Rename fails across filesystems; fall back to copy+remove.
		if copyErr := a.copyAndRemove(path, dest); copyErr != nil {
			return "", errors.WrapWithDetails(errors.EArchiveFailed, "failed to move file to archive", copyErr,
				map[string]string{"src": path, "dest": dest})
		}
	}
	return dest, nil
}

// resolveDest probes for a free destination name: name, name.1, name.2, ...
func (a *Archiver) resolveDest(name string) (string, error) {
	dest := filepath.Join(a.dir, name)
	for i := 0; i <= maxCollisionProbes; i++ {
		if i > 0 {
			dest = filepath.Join(a.dir, fmt.Sprintf("%s.%d", name, i))
		}
		_, err := a.fsys.Stat(dest)
		if os.IsNotExist(err) {
			return dest, nil
		}
		if err != nil {
			return "", errors.Wrap(errors.EArchiveFailed, "failed to probe archive destination", err)
		}
	}
	return "", errors.Newf(errors.EArchiveFailed, "no free archive name for %q after %d probes", name, maxCollisionProbes)
}

func (a *Archiver) copyAndRemove(src, dest string) error {
	data, err := a.fsys.ReadFile(src)
	if err != nil {
		return err
	}
	perm := fs.FileMode(0o644)
	if info, err := a.fsys.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}
	if err := a.fsys.WriteFile(dest, data, perm); err != nil {
		return err
	}
	return a.fsys.Remove(src)
}
