package commands

import (
	"fmt"
	"io"

	"fileferry/internal/config"
	ferryfs "fileferry/internal/fs"
)

// Init writes a commented starter configuration to path.
func Init(fsys ferryfs.FS, path string, stdout io.Writer) error {
	if err := config.WriteDefault(fsys, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	fmt.Fprintln(stdout, "edit the [files] and [api] sections, then run: fileferry run")
	return nil
}
