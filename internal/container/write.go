package container

import (
	"os"
	"path/filepath"

	"github.com/newfla/presquile/internal/types"
)

// writeAtomic replaces path with image. The data goes to a temporary file
// in the same directory which is synced and renamed over path, so readers
// see either the old file or the new one. src describes the file the image
// was built from; its mode and, optionally, its mod time carry over.
func writeAtomic(path string, image []byte, src os.FileInfo, opts Options) error { //nolint:gocyclo // atomic replace is a fixed sequence of steps
	ioErr := func(op string, err error) error {
		return &types.IOError{Op: op, Path: path, Err: err}
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), ".presquile-*.tmp")
	if err != nil {
		return ioErr("create temp file", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()    //nolint:errcheck // best effort cleanup
			_ = os.Remove(tempPath) //nolint:errcheck // best effort cleanup
		}
	}()

	if _, err := tempFile.Write(image); err != nil {
		return ioErr("write", err)
	}
	if err := tempFile.Sync(); err != nil {
		return ioErr("sync", err)
	}
	if err := tempFile.Close(); err != nil {
		return ioErr("close", err)
	}
	if err := os.Chmod(tempPath, src.Mode().Perm()); err != nil {
		return ioErr("chmod", err)
	}

	backup := ""
	if opts.BackupSuffix != "" {
		if _, err := os.Stat(path); err == nil {
			backup = path + opts.BackupSuffix
			if err := os.Rename(path, backup); err != nil {
				return ioErr("backup", err)
			}
		}
	}

	if err := os.Rename(tempPath, path); err != nil {
		if backup != "" {
			_ = os.Rename(backup, path) //nolint:errcheck // put the original back
		}
		return ioErr("rename", err)
	}
	success = true

	if opts.PreserveModTime {
		_ = os.Chtimes(path, src.ModTime(), src.ModTime()) //nolint:errcheck // the data is already in place
	}
	return nil
}
