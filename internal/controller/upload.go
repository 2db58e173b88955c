package controller

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Upload is the file picked for indexing. A nil *Upload means nothing is
// selected.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileUpload selects the file at path, or nothing when path is blank.
func FileUpload(path string) *Upload {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return &Upload{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}
