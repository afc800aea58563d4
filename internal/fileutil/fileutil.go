// Package fileutil holds the file replacement helper the storage layer
// uses when restoring a database from a backup.
package fileutil

import (
	"io"
	"os"
	"path/filepath"
)

// ReplaceFile atomically replaces the file at path with the contents
// of src. The data is staged in a temporary file in the same directory
// so the final rename never crosses a filesystem boundary; a reader
// sees either the old file or the complete new one.
func ReplaceFile(path string, src io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".replace-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
