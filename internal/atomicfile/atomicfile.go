// Package atomicfile writes cache files so that readers never see a partial
// one: a crash mid-write leaves only a dot-prefixed temporary file behind.
package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
)

// TempPrefix starts the name of every temporary file Write creates. Cache
// lookups skip names with a leading dot.
const TempPrefix = ".tmp-"

// Write writes data to a temporary sibling of path and renames it into place.
func Write(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), TempPrefix+"*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return errors.Join(err, tmp.Close(), os.Remove(tmp.Name()))
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(err, os.Remove(tmp.Name()))
	}
	return os.Rename(tmp.Name(), path)
}
